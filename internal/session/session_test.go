package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveChartBoard/internal/broadcast"
	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/state"
)

var testViewport = geometry.NewViewport(800, 600, 100, 300)

type pair struct {
	hub    *broadcast.MemoryHub
	host   *Session
	viewer *Session
}

func newPair(t *testing.T, replay bool) *pair {
	ctx := context.Background()
	hub := broadcast.NewMemoryHub()

	host := New(ctx, Options{ID: "s1", IsHost: true, Viewport: testViewport},
		broadcast.NewSyncer(hub, "s1", true, broadcast.WithReplayOnJoin(replay)))
	require.NoError(t, host.Start())

	viewer := New(ctx, Options{ID: "s1", Viewport: testViewport},
		broadcast.NewSyncer(hub, "s1", false, broadcast.WithReplayOnJoin(replay)))
	require.NoError(t, viewer.Start())

	t.Cleanup(func() {
		viewer.Close()
		host.Close()
	})
	return &pair{hub: hub, host: host, viewer: viewer}
}

func countMessages(t *testing.T, hub *broadcast.MemoryHub, event string) *int {
	n := new(int)
	_, err := hub.Subscribe(context.Background(), broadcast.ChannelID("s1"), event, func([]byte) { *n++ })
	require.NoError(t, err)
	return n
}

func local() *Session {
	return New(context.Background(), Options{ID: "local", IsHost: true, Viewport: testViewport}, nil)
}

func TestHostLineReachesViewer(t *testing.T) {
	p := newPair(t, false)

	changes := 0
	p.viewer.OnChange(func() { changes++ })

	p.host.SelectLine(state.LineHorizontal)
	p.host.PointerDown(100, 150)
	p.host.PointerUp()

	got := p.viewer.Snapshot()
	require.Len(t, got.Lines, 1)
	assert.Equal(t, state.LineHorizontal, got.Lines[0].Type)
	assert.Equal(t, 150.0, got.Lines[0].Points[0].Y)
	assert.Equal(t, 150.0, got.Lines[0].Points[1].Y)
	assert.Equal(t, p.host.Snapshot().Revision, got.Revision)
	assert.Greater(t, changes, 0)
}

func TestFibonacciPreviewStreamsAsPartial(t *testing.T) {
	p := newPair(t, false)
	full := countMessages(t, p.hub, broadcast.EventState)
	partial := countMessages(t, p.hub, broadcast.EventSubstate)

	p.host.SelectFibonacci(state.FibRetracement)
	assert.Equal(t, 1, *full)
	assert.Equal(t, state.FibRetracement, p.viewer.Snapshot().FibTool)

	p.host.PointerDown(100, 400)
	p.host.PointerUp()
	p.host.PointerMove(100, 200)
	assert.Equal(t, 1, *full)
	assert.Equal(t, 2, *partial)

	preview := p.viewer.Snapshot().FibPreview
	require.NotNil(t, preview)
	assert.Equal(t, state.Point{X: 100, Y: 400}, preview.Anchor)
	assert.Equal(t, state.Point{X: 100, Y: 200}, preview.Drag)

	p.host.PointerDown(100, 200)
	got := p.viewer.Snapshot()
	assert.Nil(t, got.FibPreview)
	assert.Empty(t, got.FibTool)
	require.Len(t, got.FibDrawings, 1)
	assert.Equal(t, []state.Point{{X: 100, Y: 400}, {X: 100, Y: 200}}, got.FibDrawings[0].Points)
}

func TestEmojiStreamsAsPartial(t *testing.T) {
	p := newPair(t, false)
	p.host.SetEmoji("🚀")

	partial := countMessages(t, p.hub, broadcast.EventSubstate)
	p.host.PointerDown(100, 100)
	p.host.PointerUp()
	p.host.PointerDown(100, 100)
	p.host.PointerMove(200, 150)
	p.host.PointerUp()

	assert.Equal(t, 3, *partial)
	got := p.viewer.Snapshot()
	require.Len(t, got.EmojiDrawings, 1)
	assert.Equal(t, "🚀", got.EmojiDrawings[0].Emoji)
	assert.Equal(t, got.EmojiDrawings[0].ID, got.SelectedEmojiID)
	assert.Equal(t, 184.0, got.EmojiDrawings[0].X)
}

func TestIdleEventsDoNotPublish(t *testing.T) {
	p := newPair(t, false)
	full := countMessages(t, p.hub, broadcast.EventState)
	partial := countMessages(t, p.hub, broadcast.EventSubstate)

	p.host.PointerMove(10, 10)
	p.host.PointerUp()
	p.host.PointerLeave()
	p.host.Escape()

	assert.Zero(t, *full)
	assert.Zero(t, *partial)
}

func TestViewerInputIsIgnored(t *testing.T) {
	p := newPair(t, false)
	full := countMessages(t, p.hub, broadcast.EventState)
	partial := countMessages(t, p.hub, broadcast.EventSubstate)

	assert.False(t, p.viewer.CanDraw())
	p.viewer.SelectFreehand(state.ToolPencil)
	p.viewer.PointerDown(10, 10)
	p.viewer.PointerMove(20, 20)
	p.viewer.PointerUp()
	p.viewer.SetEmoji("🔥")
	p.viewer.PointerDown(50, 50)
	p.viewer.ClearAll()

	assert.Zero(t, *full)
	assert.Zero(t, *partial)
	got := p.viewer.Snapshot()
	assert.Empty(t, got.Paths)
	assert.Empty(t, got.EmojiDrawings)
	assert.Empty(t, p.host.Snapshot().Paths)
}

func TestReplayOnJoin(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		replay bool
		lines  int
	}{
		{"enabled", true, 1},
		{"disabled", false, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			hub := broadcast.NewMemoryHub()
			host := New(ctx, Options{ID: "s1", IsHost: true, Viewport: testViewport},
				broadcast.NewSyncer(hub, "s1", true, broadcast.WithReplayOnJoin(tc.replay)))
			require.NoError(t, host.Start())
			defer host.Close()

			host.SelectLine(state.LineVertical)
			host.PointerDown(300, 10)
			host.PointerUp()

			late := New(ctx, Options{ID: "s1", Viewport: testViewport},
				broadcast.NewSyncer(hub, "s1", false, broadcast.WithReplayOnJoin(tc.replay)))
			require.NoError(t, late.Start())
			defer late.Close()

			assert.Len(t, late.Snapshot().Lines, tc.lines)
		})
	}
}

func TestReplayIsOrderedWithHostPublishes(t *testing.T) {
	p := newPair(t, true)

	p.host.SelectLine(state.LineHorizontal)
	p.host.PointerDown(100, 150)
	p.host.PointerUp()

	replies := make(chan state.Snapshot, 4)
	_, err := p.hub.Subscribe(context.Background(), broadcast.ChannelID("s1"), broadcast.EventState, func(payload []byte) {
		var snapshot state.Snapshot
		if assert.NoError(t, json.Unmarshal(payload, &snapshot)) {
			replies <- snapshot
		}
	})
	require.NoError(t, err)

	// a publish of the host is in flight
	p.host.pubMu.Lock()
	requested := make(chan struct{})
	go func() {
		defer close(requested)
		_ = p.hub.Publish(context.Background(), broadcast.ChannelID("s1"), broadcast.EventSnapshotRequest, []byte(`{}`))
	}()

	select {
	case <-replies:
		t.Fatal("the reply overtook a pending host publish")
	case <-time.After(50 * time.Millisecond):
	}

	p.host.pubMu.Unlock()
	<-requested

	select {
	case reply := <-replies:
		assert.Len(t, reply.Lines, 1)
		assert.Equal(t, p.host.Snapshot().Revision, reply.Revision)
	case <-time.After(time.Second):
		t.Fatal("no reply to the snapshot request")
	}
	assert.Len(t, p.viewer.Snapshot().Lines, 1)
}

func TestViewerFrameFollowsMirror(t *testing.T) {
	p := newPair(t, false)

	before := p.viewer.Frame()
	p.host.SelectFreehand(state.ToolPencil)
	p.host.PointerDown(10, 10)
	p.host.PointerMove(20, 20)

	frame := p.viewer.Frame()
	assert.Greater(t, frame.Revision, before.Revision)
	assert.Equal(t, state.ToolPencil, frame.State.FreehandTool)
	assert.Empty(t, frame.State.Paths)
	assert.Nil(t, frame.CurrentPath)
	assert.False(t, frame.ShowSelection)

	p.host.PointerUp()
	assert.Len(t, p.viewer.Frame().State.Paths, 1)
}

func TestLocalClearAllScenario(t *testing.T) {
	s := local()
	defer s.Close()
	assert.True(t, s.CanDraw())

	s.SelectFreehand(state.ToolPencil)
	for i := 0; i < 3; i++ {
		s.PointerDown(10, float64(10+i*20))
		s.PointerMove(60, float64(10+i*20))
		s.PointerUp()
	}
	s.SelectLine(state.LineTrend)
	for i := 0; i < 2; i++ {
		s.PointerDown(100, 100)
		s.PointerMove(200, float64(200+i*10))
		s.PointerUp()
	}
	s.SelectFibonacci(state.FibRetracement)
	s.PointerDown(100, 400)
	s.PointerDown(100, 200)
	s.SetEmoji("🎯")
	s.PointerDown(500, 500)
	s.PointerUp()

	got := s.Snapshot()
	require.Len(t, got.Paths, 3)
	require.Len(t, got.Lines, 2)
	require.Len(t, got.FibDrawings, 1)

	s.ClearAll()
	got = s.Snapshot()
	assert.Empty(t, got.Paths)
	assert.Empty(t, got.Lines)
	assert.Empty(t, got.FibDrawings)
	assert.Empty(t, got.LineTool)
	assert.False(t, got.EmojiTool)
	assert.Len(t, got.EmojiDrawings, 1)

	s.Undo()
	assert.Empty(t, s.Snapshot().Paths)

	s.ClearEmojis()
	assert.Empty(t, s.Snapshot().EmojiDrawings)
	s.UndoEmoji()
	assert.Len(t, s.Snapshot().EmojiDrawings, 1)
}

func TestPointerLeaveFinalizesGesture(t *testing.T) {
	s := local()
	defer s.Close()

	s.SelectFreehand(state.ToolHighlighter)
	s.PointerDown(10, 10)
	s.PointerMove(20, 20)
	s.PointerMove(30, 30)
	require.NotNil(t, s.Frame().CurrentPath)

	s.PointerLeave()
	frame := s.Frame()
	assert.Nil(t, frame.CurrentPath)
	require.Len(t, frame.State.Paths, 1)
	assert.Len(t, frame.State.Paths[0].Points, 3)
	assert.Equal(t, state.ToolHighlighter, frame.State.Paths[0].Tool)
}

func TestPendingFibonacciSurvivesPointerUp(t *testing.T) {
	s := local()
	defer s.Close()

	s.SelectFibonacci(state.FibWedge)
	s.PointerDown(10, 10)
	s.PointerUp()
	s.PointerDown(100, 10)
	s.PointerLeave()
	require.NotNil(t, s.Snapshot().FibPreview)

	s.Escape()
	got := s.Snapshot()
	assert.Nil(t, got.FibPreview)
	assert.Empty(t, got.FibDrawings)
}

func TestFibonacciHandleWinsOverDrawingTool(t *testing.T) {
	s := local()
	defer s.Close()

	s.SelectFibonacci(state.FibRetracement)
	s.PointerDown(100, 100)
	s.PointerDown(200, 200)

	s.SelectLine(state.LineTrend)
	s.PointerDown(200, 200)
	s.PointerMove(250, 260)
	s.PointerUp()

	got := s.Snapshot()
	assert.Empty(t, got.Lines)
	assert.Equal(t, state.Point{X: 250, Y: 260}, got.FibDrawings[0].Points[1])
}

func TestUndoLastFollowsActiveFamily(t *testing.T) {
	s := local()
	defer s.Close()

	s.SelectFreehand(state.ToolPencil)
	s.PointerDown(10, 10)
	s.PointerUp()
	s.SelectFibonacci(state.FibCircles)
	s.PointerDown(100, 100)
	s.PointerDown(150, 150)

	s.UndoLast()
	got := s.Snapshot()
	assert.Empty(t, got.Paths)
	assert.Len(t, got.FibDrawings, 1)

	s.UndoLast()
	assert.Empty(t, s.Snapshot().FibDrawings)
}

func TestEmojiToolToggle(t *testing.T) {
	s := local()
	defer s.Close()

	s.SetEmoji("🔥")
	s.PointerDown(300, 300)
	s.PointerUp()
	require.Len(t, s.Snapshot().EmojiDrawings, 1)
	assert.True(t, s.Snapshot().EmojiTool)

	s.SetEmojiTool(false)
	s.PointerDown(500, 500)
	s.PointerUp()
	got := s.Snapshot()
	assert.False(t, got.EmojiTool)
	assert.Len(t, got.EmojiDrawings, 1)
	assert.Empty(t, got.SelectedEmojiID, "a click on empty canvas drops the selection")

	s.SetEmojiTool(true)
	s.PointerDown(500, 500)
	assert.Len(t, s.Snapshot().EmojiDrawings, 2)
}

func TestFrameFlags(t *testing.T) {
	s := local()
	defer s.Close()

	s.SelectLine(state.LineTrend)
	s.PointerDown(10, 10)
	before := s.Frame().Revision
	s.PointerMove(50, 50)

	frame := s.Frame()
	assert.Greater(t, frame.Revision, before)
	assert.True(t, frame.ShowLineHandles)
	assert.True(t, frame.ShowSelection)
	require.NotNil(t, frame.LinePreview)
	assert.Equal(t, state.Point{X: 50, Y: 50}, frame.LinePreview.Points[1])
	assert.Equal(t, testViewport, frame.Viewport)
}

func TestSetViewportAndChart(t *testing.T) {
	p := newPair(t, false)
	full := countMessages(t, p.hub, broadcast.EventState)

	vp := geometry.NewViewport(1024, 768, 50, 60)
	p.host.SetViewport(vp)
	assert.Equal(t, vp, p.host.Frame().Viewport)
	assert.Zero(t, *full)

	p.host.SetChart("1h", "candles")
	p.host.SetChart("1h", "candles")
	assert.Equal(t, 1, *full)
	got := p.viewer.Snapshot()
	assert.Equal(t, "1h", got.Period)
	assert.Equal(t, "candles", got.ChartType)
}

func TestCloseStopsInput(t *testing.T) {
	s := local()
	changes := 0
	s.OnChange(func() { changes++ })

	s.Close()
	s.Close()
	s.SelectFreehand(state.ToolPencil)
	s.PointerDown(1, 1)
	s.PointerUp()

	assert.Zero(t, changes)
	assert.Empty(t, s.Snapshot().Paths)
}
