package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// MaxDialRetries bounds the reconnect attempts of one connect cycle.
var MaxDialRetries uint64 = 20

const writeTimeout = 5 * time.Second

// WebsocketTransport talks to the relay server. Subscriptions are kept locally
// and replayed to the relay after every reconnect.
type WebsocketTransport struct {
	url    string
	dialer *websocket.Dialer

	// mu protects conn and serializes writes
	mu   sync.Mutex
	conn *websocket.Conn

	subsMu sync.RWMutex
	subs   map[string]map[int]Handler
	keys   map[string]subscription
	nextID int

	reconnectC chan struct{}
	cancel     context.CancelFunc
	closed     bool

	connectedCallbacks []func()
}

func NewWebsocketTransport(url string) *WebsocketTransport {
	return &WebsocketTransport{
		url:        url,
		dialer:     websocket.DefaultDialer,
		subs:       make(map[string]map[int]Handler),
		keys:       make(map[string]subscription),
		reconnectC: make(chan struct{}, 1),
	}
}

func (t *WebsocketTransport) Name() string { return "websocket" }

// OnConnected registers a callback fired after every successful (re)connect.
func (t *WebsocketTransport) OnConnected(cb func()) {
	t.connectedCallbacks = append(t.connectedCallbacks, cb)
}

func (t *WebsocketTransport) EmitConnected() {
	for _, cb := range t.connectedCallbacks {
		cb()
	}
}

// Connect dials the relay with exponential backoff and starts the read loop.
func (t *WebsocketTransport) Connect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	if err := t.dial(ctx); err != nil {
		cancel()
		return err
	}

	go t.listen(ctx)
	return nil
}

func (t *WebsocketTransport) dial(ctx context.Context) error {
	op := func() error {
		conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			logger.WithError(err).Debugf("dial %s failed", t.url)
			return err
		}

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxDialRetries), ctx))
	if err != nil {
		return errors.Wrapf(err, "unable to connect to relay %s", t.url)
	}

	if err := t.resubscribe(); err != nil {
		return err
	}

	logger.Infof("connected to relay %s", t.url)
	t.EmitConnected()
	return nil
}

func (t *WebsocketTransport) resubscribe() error {
	t.subsMu.RLock()
	keys := make([]subscription, 0, len(t.keys))
	for _, s := range t.keys {
		keys = append(keys, s)
	}
	t.subsMu.RUnlock()

	for _, s := range keys {
		if err := t.write(Message{Op: OpSubscribe, Channel: s.channel, Event: s.event}); err != nil {
			return err
		}
	}
	return nil
}

func (t *WebsocketTransport) reconnect() {
	select {
	case t.reconnectC <- struct{}{}:
	default:
	}
}

func (t *WebsocketTransport) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-t.reconnectC:
			t.mu.Lock()
			if t.conn != nil {
				_ = t.conn.Close()
				t.conn = nil
			}
			t.mu.Unlock()

			if err := t.dial(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.WithError(err).Error("relay reconnect failed")
				t.reconnect()
			}

		default:
			conn := t.Conn()
			if conn == nil {
				t.reconnect()
				continue
			}

			mt, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.WithError(err).Warn("relay read failed, reconnecting")
				t.reconnect()
				continue
			}

			if mt != websocket.TextMessage {
				continue
			}
			t.dispatch(data)
		}
	}
}

func (t *WebsocketTransport) dispatch(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.WithError(err).Warn("malformed relay frame")
		return
	}
	if msg.Op != OpPublish {
		return
	}

	t.subsMu.RLock()
	handlers := make([]Handler, 0, len(t.subs[msg.Key()]))
	for _, h := range t.subs[msg.Key()] {
		handlers = append(handlers, h)
	}
	t.subsMu.RUnlock()

	for _, h := range handlers {
		h(msg.Payload)
	}
}

// Conn returns the current connection, nil while reconnecting.
func (t *WebsocketTransport) Conn() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *WebsocketTransport) write(msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.conn == nil {
		return errors.New("relay not connected")
	}

	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return t.conn.WriteJSON(msg)
}

func (t *WebsocketTransport) Subscribe(ctx context.Context, channelID, event string, handler Handler) (func(), error) {
	s := subscription{channel: channelID, event: event}
	key := s.key()

	t.subsMu.Lock()
	first := len(t.subs[key]) == 0
	if t.subs[key] == nil {
		t.subs[key] = make(map[int]Handler)
	}
	id := t.nextID
	t.nextID++
	t.subs[key][id] = handler
	t.keys[key] = s
	t.subsMu.Unlock()

	unsubscribe := func() {
		t.subsMu.Lock()
		delete(t.subs[key], id)
		last := len(t.subs[key]) == 0
		if last {
			delete(t.keys, key)
		}
		t.subsMu.Unlock()

		if last {
			_ = t.write(Message{Op: OpUnsubscribe, Channel: channelID, Event: event})
		}
	}

	if first {
		if err := t.write(Message{Op: OpSubscribe, Channel: channelID, Event: event}); err != nil {
			// kept locally, replayed on reconnect
			return unsubscribe, errors.Wrap(err, "subscribe")
		}
	}
	return unsubscribe, nil
}

func (t *WebsocketTransport) Publish(ctx context.Context, channelID, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.write(Message{Op: OpPublish, Channel: channelID, Event: event, Payload: payload})
}

func (t *WebsocketTransport) Close() error {
	if t.cancel != nil {
		t.cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if cerr := t.conn.Close(); err == nil {
		err = cerr
	}
	t.conn = nil
	return err
}
