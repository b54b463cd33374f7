// Package session owns the drawing state of one chart session: the tool
// engines, the participant role, the broadcast binding and the frames handed
// to the compositor. It replaces any process wide drawing state; a session is
// created with New and torn down with Close.
package session

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"LiveChartBoard/internal/broadcast"
	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/render"
	"LiveChartBoard/internal/state"
	"LiveChartBoard/internal/tools"
)

var logger = log.WithField("component", "session")

// Options are resolved once at session start.
type Options struct {
	ID     string
	IsHost bool

	Viewport  geometry.Viewport
	Period    string
	ChartType string
}

// Session serializes pointer events, received payloads and frame reads behind
// one mutex. Payloads are published after the state lock is released, in
// mutation order.
type Session struct {
	id   string
	role tools.Role

	mu    sync.Mutex
	sel   *tools.Selection
	hist  *tools.History
	lines *tools.LineTools
	fib   *tools.FibonacciTools
	emoji *tools.EmojiTools

	viewport  geometry.Viewport
	period    string
	chartType string

	revision state.Clock
	frameRev uint64
	erasing  bool

	dirtyFull  bool
	dirtyFib   bool
	dirtyEmoji bool

	// pubMu keeps publishes in mutation order without holding mu during I/O
	pubMu  sync.Mutex
	syncer *broadcast.Syncer

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	changeCallbacks []func()
}

// New creates a session. A nil syncer makes a local, unreplicated session in
// which every participant may draw.
func New(ctx context.Context, opts Options, syncer *broadcast.Syncer) *Session {
	if opts.ID == "" {
		opts.ID = state.NewSessionID()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:        opts.ID,
		role:      tools.Role{Host: opts.IsHost, Replicated: syncer != nil},
		viewport:  opts.Viewport,
		period:    opts.Period,
		chartType: opts.ChartType,
		syncer:    syncer,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.sel = tools.NewSelection()
	s.hist = tools.NewHistory()
	s.lines = tools.NewLineTools(s.sel, s.hist, s.role)
	s.fib = tools.NewFibonacciTools(s.sel, s.hist, s.role)
	s.emoji = tools.NewEmojiTools(s.sel, s.role)
	s.lines.SetCanvasSize(opts.Viewport.Width, opts.Viewport.Height)

	s.sel.OnChange(func(tools.Family) { s.dirtyFull = true })
	s.lines.OnChange(func() { s.dirtyFull = true })
	s.fib.OnChange(func() { s.dirtyFib = true })
	s.emoji.OnChange(func() { s.dirtyEmoji = true })

	if syncer != nil {
		if opts.IsHost {
			syncer.SetReplayHandler(s.replay)
		}
		syncer.OnApplied(func() {
			s.EmitChange()
		})
	}

	logger.WithFields(log.Fields{
		"session": s.id,
		"host":    opts.IsHost,
	}).Info("session created")
	return s
}

// Start binds the session to its broadcast channel.
func (s *Session) Start() error {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.Start(s.ctx)
}

func (s *Session) ID() string { return s.id }

func (s *Session) IsHost() bool { return s.role.Host }

// CanDraw reports whether local input mutates the drawing state.
func (s *Session) CanDraw() bool { return s.role.CanMutate() }

// Close tears the session down. Later calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	if s.syncer != nil {
		s.syncer.Close()
	}
	logger.WithField("session", s.id).Info("session closed")
}

// update runs a mutation under the state lock and publishes what it changed.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fn()
	s.frameRev++

	full, partial := s.collect()

	s.pubMu.Lock()
	s.mu.Unlock()
	s.publish(full, partial)
	s.pubMu.Unlock()

	s.EmitChange()
}

// replay publishes the current state for a joining viewer. The state is read
// under mu and published under pubMu, so a mutation running concurrently is
// published either before the reply or after it, never in between.
func (s *Session) replay() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshot()

	s.pubMu.Lock()
	s.mu.Unlock()
	s.syncer.PublishState(s.ctx, snapshot)
	s.pubMu.Unlock()
}

// collect resets the dirty flags and builds the payload for them. A full
// snapshot supersedes any partial one.
func (s *Session) collect() (*state.Snapshot, *state.PartialSnapshot) {
	full, fib, emoji := s.dirtyFull, s.dirtyFib, s.dirtyEmoji
	s.dirtyFull, s.dirtyFib, s.dirtyEmoji = false, false, false

	if s.syncer == nil || !s.role.Host {
		return nil, nil
	}

	switch {
	case full:
		snapshot := s.snapshot()
		snapshot.Revision = s.revision.Tick()
		return &snapshot, nil

	case fib || emoji:
		p := state.PartialSnapshot{Revision: s.revision.Tick()}
		if fib {
			p.Fib = &state.FibState{
				Tool:     s.fib.Tool(),
				Drawings: s.fib.Drawings(),
				Preview:  s.fib.Preview(),
			}
		}
		if emoji {
			p.Emoji = &state.EmojiState{
				Tool:       s.emoji.Active(),
				Selected:   s.emoji.Emoji(),
				Drawings:   s.emoji.Emojis(),
				SelectedID: s.emoji.SelectedID(),
			}
		}
		return nil, &p
	}
	return nil, nil
}

func (s *Session) publish(full *state.Snapshot, partial *state.PartialSnapshot) {
	switch {
	case full != nil:
		s.syncer.PublishState(s.ctx, *full)
	case partial != nil:
		s.syncer.PublishPartial(s.ctx, *partial)
	}
}

// snapshot assembles the replicated state. The caller holds mu.
func (s *Session) snapshot() state.Snapshot {
	return state.Snapshot{
		Cursor:           s.lines.Cursor(),
		FreehandTool:     s.lines.FreehandTool(),
		LineTool:         s.lines.LineTool(),
		FibTool:          s.fib.Tool(),
		Eraser:           s.lines.Eraser(),
		EmojiTool:        s.emoji.Active(),
		SelectedEmoji:    s.emoji.Emoji(),
		Color:            s.lines.Color(),
		HighlighterColor: s.lines.HighlighterColor(),
		Paths:            s.lines.Paths(),
		Lines:            s.lines.Lines(),
		Period:           s.period,
		ChartType:        s.chartType,
		FibDrawings:      s.fib.Drawings(),
		FibPreview:       s.fib.Preview(),
		EmojiDrawings:    s.emoji.Emojis(),
		SelectedEmojiID:  s.emoji.SelectedID(),
		Revision:         s.revision.Current(),
	}
}

// Snapshot returns the state a participant renders: the host's own state, or
// the viewer's mirror of it.
func (s *Session) Snapshot() state.Snapshot {
	if !s.role.CanMutate() {
		return s.syncer.Mirror().Snapshot()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Frame implements render.FrameSource.
func (s *Session) Frame() render.Frame {
	if !s.role.CanMutate() {
		s.mu.Lock()
		vp, rev := s.viewport, s.frameRev
		s.mu.Unlock()

		mirror := s.syncer.Mirror()
		return render.Frame{
			Viewport: vp,
			State:    mirror.Snapshot(),
			Revision: rev + uint64(mirror.Received()),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return render.Frame{
		Viewport:        s.viewport,
		State:           s.snapshot(),
		CurrentPath:     s.lines.CurrentPath(),
		LinePreview:     s.lines.Preview(),
		ShowLineHandles: s.lines.LineTool() != "",
		ShowSelection:   true,
		Revision:        s.frameRev,
	}
}
