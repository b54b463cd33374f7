package broadcast

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// NewRedisClient builds a client the same way for every command.
func NewRedisClient(host, port, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: password,
		DB:       db,
	})
}

// RedisTransport uses redis pub/sub. The redis channel is the session channel
// id, optionally prefixed by a namespace; the event name travels in the message
// body. Every redis channel has a single PubSub read by a single goroutine, so
// the events of one channel reach their handlers in publish order.
type RedisTransport struct {
	client    *redis.Client
	namespace string

	mu       sync.Mutex
	channels map[string]*redisChannel
	nextID   int
	closed   bool
}

// redisChannel is one redis subscription shared by every handler of the channel.
type redisChannel struct {
	pubsub   *redis.PubSub
	handlers map[string]map[int]Handler
	refs     int
}

func NewRedisTransport(client *redis.Client, namespace string) *RedisTransport {
	return &RedisTransport{
		client:    client,
		namespace: namespace,
		channels:  make(map[string]*redisChannel),
	}
}

func (t *RedisTransport) Name() string { return "redis" }

func (t *RedisTransport) channel(channelID string) string {
	if t.namespace == "" {
		return channelID
	}
	return t.namespace + ":" + channelID
}

// Ping checks the connection.
func (t *RedisTransport) Ping(ctx context.Context) error {
	return errors.Wrap(t.client.Ping(ctx).Err(), "redis ping")
}

func (t *RedisTransport) Subscribe(ctx context.Context, channelID, event string, handler Handler) (func(), error) {
	name := t.channel(channelID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}

	ch, ok := t.channels[name]
	if !ok {
		pubsub := t.client.Subscribe(ctx, name)
		// wait for the subscription confirmation so that no publish is lost after return
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, errors.Wrapf(err, "redis subscribe %s", channelID)
		}

		ch = &redisChannel{pubsub: pubsub, handlers: make(map[string]map[int]Handler)}
		t.channels[name] = ch
		go t.read(ch)
	}

	if ch.handlers[event] == nil {
		ch.handlers[event] = make(map[int]Handler)
	}
	t.nextID++
	id := t.nextID
	ch.handlers[event][id] = handler
	ch.refs++

	var once sync.Once
	return func() {
		once.Do(func() { t.unsubscribe(name, ch, event, id) })
	}, nil
}

func (t *RedisTransport) unsubscribe(name string, ch *redisChannel, event string, id int) {
	t.mu.Lock()
	delete(ch.handlers[event], id)
	ch.refs--
	last := ch.refs == 0 && t.channels[name] == ch
	if last {
		delete(t.channels, name)
	}
	t.mu.Unlock()

	if last {
		if err := ch.pubsub.Close(); err != nil {
			logger.WithError(err).Debug("redis unsubscribe")
		}
	}
}

// read dispatches the messages of one redis channel until its PubSub is closed.
func (t *RedisTransport) read(ch *redisChannel) {
	for m := range ch.pubsub.Channel() {
		var msg Message
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			logger.WithError(err).Warn("malformed redis message")
			continue
		}

		t.mu.Lock()
		handlers := make([]Handler, 0, len(ch.handlers[msg.Event]))
		for _, h := range ch.handlers[msg.Event] {
			handlers = append(handlers, h)
		}
		t.mu.Unlock()

		for _, h := range handlers {
			h(msg.Payload)
		}
	}
}

func (t *RedisTransport) Publish(ctx context.Context, channelID, event string, payload []byte) error {
	body, err := json.Marshal(Message{Op: OpPublish, Channel: channelID, Event: event, Payload: payload})
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, t.channel(channelID), body).Err()
}

func (t *RedisTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var err error
	for _, ch := range t.channels {
		err = multierr.Append(err, ch.pubsub.Close())
	}
	t.channels = nil
	return multierr.Append(err, t.client.Close())
}
