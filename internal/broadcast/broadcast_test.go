package broadcast

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveChartBoard/internal/state"
)

func sampleSnapshot() state.Snapshot {
	return state.Snapshot{
		Cursor:   state.CursorCrosshair,
		LineTool: state.LineTrend,
		Color:    "#2962ff",
		Paths: []state.FreehandPath{{ID: "p1", Tool: state.ToolPencil, Color: "#2962ff", Width: 2, Opacity: 1,
			Points: []state.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}},
		Lines: []state.LineDrawing{{ID: "l1", Type: state.LineHorizontal, Color: "#2962ff",
			Points: []state.Point{{X: 0, Y: 50}, {X: 800, Y: 50}}}},
		Revision: 3,
	}
}

func TestMemoryHub(t *testing.T) {
	ctx := context.Background()
	hub := NewMemoryHub()

	var got [][]byte
	unsubscribe, err := hub.Subscribe(ctx, ChannelID("s1"), EventState, func(payload []byte) {
		got = append(got, payload)
	})
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, ChannelID("s1"), EventState, []byte(`{"a":1}`)))
	require.NoError(t, hub.Publish(ctx, ChannelID("s1"), EventSubstate, []byte(`{"b":1}`)))
	require.NoError(t, hub.Publish(ctx, ChannelID("s2"), EventState, []byte(`{"c":1}`)))
	assert.Equal(t, [][]byte{[]byte(`{"a":1}`)}, got)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers(ChannelID("s1"), EventState))
	require.NoError(t, hub.Publish(ctx, ChannelID("s1"), EventState, []byte(`{}`)))
	assert.Len(t, got, 1)

	require.NoError(t, hub.Close())
	assert.ErrorIs(t, hub.Publish(ctx, ChannelID("s1"), EventState, nil), ErrClosed)
	_, err = hub.Subscribe(ctx, ChannelID("s1"), EventState, func([]byte) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestChannelID(t *testing.T) {
	assert.Equal(t, "drawing:abc", ChannelID("abc"))
}

func newPair(t *testing.T, options ...SyncerOption) (*MemoryHub, *Syncer, *Syncer) {
	hub := NewMemoryHub()
	host := NewSyncer(hub, "room", true, options...)
	viewer := NewSyncer(hub, "room", false, options...)
	require.NoError(t, host.Start(context.Background()))
	require.NoError(t, viewer.Start(context.Background()))
	return hub, host, viewer
}

func TestSyncerFullSnapshotIsIdempotent(t *testing.T) {
	_, host, viewer := newPair(t)
	applied := 0
	viewer.OnApplied(func() { applied++ })

	snapshot := sampleSnapshot()
	host.PublishState(context.Background(), snapshot)
	once := viewer.Mirror().Snapshot()

	host.PublishState(context.Background(), snapshot)
	twice := viewer.Mirror().Snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, snapshot.Lines, twice.Lines)
	assert.Equal(t, 2, applied)
}

func TestSyncerReplacesTheWholeMirror(t *testing.T) {
	_, host, viewer := newPair(t)

	host.PublishState(context.Background(), sampleSnapshot())
	host.PublishState(context.Background(), state.Snapshot{Cursor: state.CursorDefault, Revision: 4})

	got := viewer.Mirror().Snapshot()
	assert.Empty(t, got.Paths)
	assert.Empty(t, got.Lines)
	assert.Equal(t, state.CursorDefault, got.Cursor)
}

func TestSyncerPartialMergesPresentFamilies(t *testing.T) {
	_, host, viewer := newPair(t)
	host.PublishState(context.Background(), sampleSnapshot())

	fib := state.FibonacciDrawing{ID: "f1", Type: state.FibRetracement, Points: []state.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
		Levels: state.FibRetracement.DefaultLevels(), Visible: true}
	host.PublishPartial(context.Background(), state.PartialSnapshot{
		Fib:      &state.FibState{Drawings: []state.FibonacciDrawing{fib}},
		Revision: 5,
	})

	got := viewer.Mirror().Snapshot()
	require.Len(t, got.FibDrawings, 1)
	assert.Equal(t, "f1", got.FibDrawings[0].ID)
	assert.Len(t, got.Lines, 1, "families absent from the partial are kept")
	assert.Empty(t, got.EmojiDrawings)

	host.PublishPartial(context.Background(), state.PartialSnapshot{Revision: 6})
	assert.Equal(t, 2, viewer.Mirror().Received(), "empty partials are not sent")
}

func TestViewerNeverPublishes(t *testing.T) {
	hub := NewMemoryHub()
	viewer := NewSyncer(hub, "room", false)
	other := NewSyncer(hub, "room", false)
	require.NoError(t, viewer.Start(context.Background()))
	require.NoError(t, other.Start(context.Background()))

	viewer.PublishState(context.Background(), sampleSnapshot())
	viewer.PublishPartial(context.Background(), state.PartialSnapshot{Emoji: &state.EmojiState{}})
	assert.Equal(t, 0, other.Mirror().Received())
}

func TestLateViewerSeesNothingWithoutReplay(t *testing.T) {
	hub := NewMemoryHub()
	host := NewSyncer(hub, "room", true, WithSnapshotSource(sampleSnapshot))
	require.NoError(t, host.Start(context.Background()))
	host.PublishState(context.Background(), sampleSnapshot())

	viewer := NewSyncer(hub, "room", false)
	require.NoError(t, viewer.Start(context.Background()))
	assert.Equal(t, 0, viewer.Mirror().Received())
	assert.Equal(t, 0, hub.Subscribers(ChannelID("room"), EventSnapshotRequest))
}

func TestReplayOnJoin(t *testing.T) {
	hub := NewMemoryHub()
	host := NewSyncer(hub, "room", true, WithReplayOnJoin(true), WithSnapshotSource(sampleSnapshot))
	require.NoError(t, host.Start(context.Background()))

	viewer := NewSyncer(hub, "room", false, WithReplayOnJoin(true))
	require.NoError(t, viewer.Start(context.Background()))

	got := viewer.Mirror().Snapshot()
	assert.Equal(t, 1, viewer.Mirror().Received())
	assert.Equal(t, sampleSnapshot().Lines, got.Lines)

	host.Close()
	assert.Equal(t, 0, hub.Subscribers(ChannelID("room"), EventSnapshotRequest))
}

func TestMalformedPayloadIsIgnored(t *testing.T) {
	hub, _, viewer := newPair(t)
	require.NoError(t, hub.Publish(context.Background(), ChannelID("room"), EventState, []byte(`{not json`)))
	assert.Equal(t, 0, viewer.Mirror().Received())
}

type failingTransport struct {
	publishes int
}

func (f *failingTransport) Subscribe(ctx context.Context, channelID, event string, handler Handler) (func(), error) {
	return nil, errors.New("subscribe refused")
}

func (f *failingTransport) Publish(ctx context.Context, channelID, event string, payload []byte) error {
	f.publishes++
	return errors.New("network down")
}

func (f *failingTransport) Close() error { return nil }

func TestTransportFailuresAreSwallowed(t *testing.T) {
	transport := &failingTransport{}
	host := NewSyncer(transport, "room", true)
	require.NoError(t, host.Start(context.Background()))

	assert.NotPanics(t, func() {
		host.PublishState(context.Background(), sampleSnapshot())
		host.PublishPartial(context.Background(), state.PartialSnapshot{Emoji: &state.EmojiState{}})
	})
	assert.Equal(t, 2, transport.publishes)

	viewer := NewSyncer(transport, "room", false)
	assert.Error(t, viewer.Start(context.Background()))
}

func TestWarnFirstLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	w := NewWarnFirstLogger(2, time.Hour, logger)

	for i := 0; i < 4; i++ {
		w.WarnOrError(errors.New("boom"), "publish failed %d", i)
	}

	require.Len(t, hook.Entries, 4)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[0].Level)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[1].Level)
	assert.Equal(t, logrus.ErrorLevel, hook.Entries[2].Level)
	assert.Equal(t, "boom", hook.Entries[3].Data[logrus.ErrorKey].(error).Error())
}

func newRedisTransport(t *testing.T) *RedisTransport {
	server := miniredis.RunT(t)
	transport := NewRedisTransport(NewRedisClient(server.Host(), server.Port(), "", 0), "test")
	t.Cleanup(func() { _ = transport.Close() })
	return transport
}

func TestRedisTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transport := newRedisTransport(t)
	require.NoError(t, transport.Ping(ctx))

	received := make(chan []byte, 1)
	unsubscribe, err := transport.Subscribe(ctx, ChannelID("redis"), EventState, func(payload []byte) {
		received <- payload
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, transport.Publish(ctx, ChannelID("redis"), EventSubstate, []byte(`{"skip":true}`)))
	require.NoError(t, transport.Publish(ctx, ChannelID("redis"), EventState, []byte(`{"revision":1}`)))

	select {
	case payload := <-received:
		assert.JSONEq(t, `{"revision":1}`, string(payload))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestRedisTransportKeepsPublishOrderAcrossEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transport := newRedisTransport(t)
	channel := ChannelID("ordered")

	const total = 20
	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	record := func(payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(payload))
		if len(got) == total {
			close(done)
		}
	}

	unsubState, err := transport.Subscribe(ctx, channel, EventState, record)
	require.NoError(t, err)
	defer unsubState()
	unsubSub, err := transport.Subscribe(ctx, channel, EventSubstate, record)
	require.NoError(t, err)
	defer unsubSub()

	var want []string
	for i := 0; i < total; i++ {
		event := EventState
		if i%2 == 1 {
			event = EventSubstate
		}
		payload := fmt.Sprintf(`{"revision":%d}`, i)
		want = append(want, payload)
		require.NoError(t, transport.Publish(ctx, channel, event, []byte(payload)))
	}

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("not every message was received")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, got)
}

func TestRedisTransportSharesOneSubscriptionPerChannel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transport := newRedisTransport(t)
	channel := ChannelID("shared")

	unsubState, err := transport.Subscribe(ctx, channel, EventState, func([]byte) {})
	require.NoError(t, err)
	unsubSub, err := transport.Subscribe(ctx, channel, EventSubstate, func([]byte) {})
	require.NoError(t, err)

	transport.mu.Lock()
	assert.Len(t, transport.channels, 1)
	transport.mu.Unlock()

	unsubState()
	unsubState()
	transport.mu.Lock()
	assert.Len(t, transport.channels, 1, "the substate handler keeps the channel open")
	transport.mu.Unlock()

	unsubSub()
	transport.mu.Lock()
	assert.Empty(t, transport.channels)
	transport.mu.Unlock()
}
