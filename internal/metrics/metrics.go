package metrics

import "github.com/prometheus/client_golang/prometheus"

var PublishedMessages = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "livechartboard_broadcast_published_total",
		Help: "drawing state messages published by the host",
	}, []string{"transport", "event"})

var ReceivedMessages = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "livechartboard_broadcast_received_total",
		Help: "drawing state messages applied by a viewer",
	}, []string{"transport", "event"})

var TransportErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "livechartboard_transport_errors_total",
		Help: "swallowed publish and subscribe failures",
	}, []string{"transport", "op"})

var CommittedDrawings = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "livechartboard_committed_drawings_total",
		Help: "committed drawings per tool family",
	}, []string{"family"})

var RenderedFrames = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "livechartboard_frames_total",
		Help: "compositor frames, drawn or skipped",
	}, []string{"result"})

var RelayConnections = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "livechartboard_relay_connections",
		Help: "websocket peers connected to the relay",
	})

func init() {
	prometheus.MustRegister(
		PublishedMessages,
		ReceivedMessages,
		TransportErrors,
		CommittedDrawings,
		RenderedFrames,
		RelayConnections,
	)
}
