// Package broadcast replicates the host's drawing state to every viewer of a
// session over a pub/sub transport. The host is the only writer; viewers
// replace or merge their mirror on every received payload.
package broadcast

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "broadcast")

const (
	// EventState carries a full snapshot.
	EventState = "drawing-state"
	// EventSubstate carries the Fibonacci and emoji families only.
	EventSubstate = "drawing-substate"
	// EventSnapshotRequest is published by a joining viewer when replay on join
	// is enabled.
	EventSnapshotRequest = "snapshot-request"
)

// ErrClosed is returned by a transport used after Close.
var ErrClosed = errors.New("transport closed")

// ChannelID returns the pub/sub channel of a session.
func ChannelID(sessionID string) string {
	return "drawing:" + sessionID
}

// Handler receives the raw payload of one message.
type Handler func(payload []byte)

// Transport is the pub/sub provider. Delivery is fire and forget: no ack, no
// retry, no history.
type Transport interface {
	Subscribe(ctx context.Context, channelID, event string, handler Handler) (unsubscribe func(), err error)
	Publish(ctx context.Context, channelID, event string, payload []byte) error
	Close() error
}

// Op is the frame type of the relay wire protocol.
type Op string

const (
	OpSubscribe   Op = "subscribe"
	OpUnsubscribe Op = "unsubscribe"
	OpPublish     Op = "publish"
)

// Message is one frame of the relay wire protocol, also used as the redis
// message body.
type Message struct {
	Op      Op              `json:"op"`
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Key identifies a subscription.
func (m Message) Key() string {
	return m.Channel + "#" + m.Event
}

type subscription struct {
	channel string
	event   string
}

func (s subscription) key() string {
	return s.channel + "#" + s.event
}

type named interface {
	Name() string
}

func transportName(t Transport) string {
	if n, ok := t.(named); ok {
		return n.Name()
	}
	return "custom"
}
