// Package net hosts the session relay: a websocket pub/sub hub that forwards
// drawing payloads from the host to its viewers, plus share links and local
// network discovery.
package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"LiveChartBoard/internal/broadcast"
	"LiveChartBoard/internal/metrics"
)

var logger = log.WithField("component", "relay")

// WebsocketPath is the relay endpoint of the websocket transport.
const WebsocketPath = "/ws"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 20
)

// Relay forwards every published frame to the peers subscribed to its channel
// and event. It keeps no history.
type Relay struct {
	peers    *PeerManager
	upgrader websocket.Upgrader
	engine   *gin.Engine
	nextID   atomic.Int64
}

func NewRelay() *Relay {
	r := &Relay{
		peers: NewPeerManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		AllowMethods:    []string{"GET"},
		AllowWebSockets: true,
		MaxAge:          12 * time.Hour,
	}))

	engine.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/api/peers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"peers": r.peers.Len()})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET(WebsocketPath, func(c *gin.Context) {
		r.serveWebsocket(c.Writer, c.Request)
	})

	r.engine = engine
	return r
}

// Handler returns the relay routes.
func (r *Relay) Handler() http.Handler { return r.engine }

func (r *Relay) Peers() *PeerManager { return r.peers }

// Run serves the relay on port until ctx is done.
func (r *Relay) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Infof("relay listening on port %d", port)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return errors.Wrapf(err, "relay on port %d", port)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("relay forced to shutdown")
		}
		return nil
	}
}

func (r *Relay) serveWebsocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	peer := NewPeer(fmt.Sprintf("%s#%d", req.RemoteAddr, r.nextID.Add(1)), conn)
	r.peers.Add(peer)

	go r.writePump(peer)
	r.readPump(peer)
}

func (r *Relay) readPump(peer *Peer) {
	defer func() {
		r.peers.Remove(peer)
		_ = peer.conn.Close()
	}()

	peer.conn.SetReadLimit(maxMessageSize)
	_ = peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	peer.conn.SetPongHandler(func(string) error {
		return peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := peer.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).WithField("peer", peer.id).Warn("unexpected close")
			}
			return
		}

		var msg broadcast.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.WithError(err).WithField("peer", peer.id).Warn("malformed frame")
			continue
		}
		r.handle(peer, msg)
	}
}

func (r *Relay) handle(peer *Peer, msg broadcast.Message) {
	switch msg.Op {
	case broadcast.OpSubscribe:
		r.peers.Subscribe(peer, msg.Key())

	case broadcast.OpUnsubscribe:
		r.peers.Unsubscribe(peer, msg.Key())

	case broadcast.OpPublish:
		metrics.ReceivedMessages.WithLabelValues("relay", msg.Event).Inc()
		n := r.peers.Broadcast(msg, peer)
		metrics.PublishedMessages.WithLabelValues("relay", msg.Event).Add(float64(n))

	default:
		logger.WithField("peer", peer.id).Warnf("unknown op %q", msg.Op)
	}
}

func (r *Relay) writePump(peer *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = peer.conn.Close()
	}()

	for {
		select {
		case data, ok := <-peer.send:
			_ = peer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = peer.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := peer.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				metrics.TransportErrors.WithLabelValues("relay", "write").Inc()
				return
			}

		case <-ticker.C:
			_ = peer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := peer.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
