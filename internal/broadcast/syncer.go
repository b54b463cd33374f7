package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"LiveChartBoard/internal/metrics"
	"LiveChartBoard/internal/state"
)

// Syncer binds one session to its broadcast channel. A host publishes, a
// viewer applies what it receives to its mirror. The role never changes.
type Syncer struct {
	transport Transport
	name      string
	channel   string
	host      bool

	replayOnJoin bool
	source       func() state.Snapshot
	replay       func()

	mirror *state.Mirror
	errLog *WarnFirstLogger

	mu     sync.Mutex
	ctx    context.Context
	unsubs []func()

	appliedCallbacks []func()
}

type SyncerOption func(s *Syncer)

// WithReplayOnJoin enables the snapshot request a viewer publishes when it
// joins, and the host's reply to it.
func WithReplayOnJoin(enabled bool) SyncerOption {
	return func(s *Syncer) {
		s.replayOnJoin = enabled
	}
}

// WithSnapshotSource sets how a host reads its current state when answering a
// snapshot request.
func WithSnapshotSource(source func() state.Snapshot) SyncerOption {
	return func(s *Syncer) {
		s.source = source
	}
}

func NewSyncer(transport Transport, sessionID string, isHost bool, options ...SyncerOption) *Syncer {
	s := &Syncer{
		transport: transport,
		name:      transportName(transport),
		channel:   ChannelID(sessionID),
		host:      isHost,
		mirror:    state.NewMirror(),
		errLog:    NewWarnFirstLogger(5, time.Minute, logger.WithField("channel", ChannelID(sessionID))),
		ctx:       context.Background(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// SetReplayHandler hands snapshot requests to the owner of the state, which
// answers through PublishState in line with its other publishes. It takes
// precedence over the snapshot source and must be called before Start.
func (s *Syncer) SetReplayHandler(handler func()) {
	s.replay = handler
}

func (s *Syncer) IsHost() bool { return s.host }

func (s *Syncer) Channel() string { return s.channel }

// Mirror is the viewer's copy of the host state. It stays empty on the host.
func (s *Syncer) Mirror() *state.Mirror { return s.mirror }

// OnApplied registers a callback fired after a received payload was applied to
// the mirror.
func (s *Syncer) OnApplied(cb func()) {
	s.appliedCallbacks = append(s.appliedCallbacks, cb)
}

func (s *Syncer) EmitApplied() {
	for _, cb := range s.appliedCallbacks {
		cb()
	}
}

// Start subscribes to the session channel. A viewer listens for full and
// partial snapshots; a host listens for snapshot requests only when replay on
// join is enabled.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if s.host {
		if s.replayOnJoin && (s.source != nil || s.replay != nil) {
			return s.subscribe(ctx, EventSnapshotRequest, s.handleSnapshotRequest)
		}
		return nil
	}

	if err := s.subscribe(ctx, EventState, s.handleState); err != nil {
		return err
	}
	if err := s.subscribe(ctx, EventSubstate, s.handleSubstate); err != nil {
		return err
	}

	if s.replayOnJoin {
		s.publish(ctx, EventSnapshotRequest, []byte(`{}`))
	}
	return nil
}

func (s *Syncer) subscribe(ctx context.Context, event string, handler Handler) error {
	unsubscribe, err := s.transport.Subscribe(ctx, s.channel, event, handler)
	if unsubscribe != nil {
		s.mu.Lock()
		s.unsubs = append(s.unsubs, unsubscribe)
		s.mu.Unlock()
	}
	if err != nil {
		metrics.TransportErrors.WithLabelValues(s.name, "subscribe").Inc()
		return errors.Wrapf(err, "unable to subscribe %s %s", s.channel, event)
	}
	return nil
}

// PublishState sends the whole snapshot. It is a no-op for viewers.
func (s *Syncer) PublishState(ctx context.Context, snapshot state.Snapshot) {
	if !s.host {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		logger.WithError(err).Error("unable to encode snapshot")
		return
	}
	s.publish(ctx, EventState, payload)
}

// PublishPartial sends the Fibonacci and emoji blocks present in p. It is a
// no-op for viewers and for an empty partial.
func (s *Syncer) PublishPartial(ctx context.Context, p state.PartialSnapshot) {
	if !s.host || p.Empty() {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		logger.WithError(err).Error("unable to encode partial snapshot")
		return
	}
	s.publish(ctx, EventSubstate, payload)
}

// publish never fails: transport errors are logged and the message is dropped.
func (s *Syncer) publish(ctx context.Context, event string, payload []byte) {
	if err := s.transport.Publish(ctx, s.channel, event, payload); err != nil {
		metrics.TransportErrors.WithLabelValues(s.name, "publish").Inc()
		s.errLog.WarnOrError(err, "unable to publish %s", event)
		return
	}
	metrics.PublishedMessages.WithLabelValues(s.name, event).Inc()
}

func (s *Syncer) handleState(payload []byte) {
	var snapshot state.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		s.errLog.WarnOrError(err, "malformed %s payload", EventState)
		return
	}
	s.mirror.Replace(snapshot)
	metrics.ReceivedMessages.WithLabelValues(s.name, EventState).Inc()
	s.EmitApplied()
}

func (s *Syncer) handleSubstate(payload []byte) {
	var partial state.PartialSnapshot
	if err := json.Unmarshal(payload, &partial); err != nil {
		s.errLog.WarnOrError(err, "malformed %s payload", EventSubstate)
		return
	}
	s.mirror.Merge(partial)
	metrics.ReceivedMessages.WithLabelValues(s.name, EventSubstate).Inc()
	s.EmitApplied()
}

func (s *Syncer) handleSnapshotRequest(_ []byte) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	logger.Debugf("answering snapshot request on %s", s.channel)
	if s.replay != nil {
		s.replay()
		return
	}
	s.PublishState(ctx, s.source())
}

// Close drops every subscription. The transport itself is owned by the caller.
func (s *Syncer) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}
