package connect

import (
	"reflect"
	"sync"

	"github.com/cskr/pubsub"

	"github.com/yllada/vpn-connect/common"
)

// Bus topics.
const (
	TopicSnapshots   = "snapshots"
	TopicViewActions = "view-actions"
)

// Subscription receives published messages. It is closed when the bus
// shuts down or the subscription is cancelled.
type Subscription chan interface{}

// Bus fans snapshots and view actions out to subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses that message.
type Bus struct {
	mu     sync.Mutex
	ps     *pubsub.PubSub
	closed bool
}

// NewBus creates a bus whose subscriptions buffer capacity messages.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = common.SubscriberBufferSize
	}
	return &Bus{ps: pubsub.New(capacity)}
}

// Publish delivers msg to subscribers of topic.
func (b *Bus) Publish(topic string, msg interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	common.LogDebug("publish topic=%s payload=%s", topic, payloadType(msg))
	b.ps.TryPub(msg, topic)
}

// Subscribe returns a subscription to topics. After Close it returns an
// already closed subscription.
func (b *Bus) Subscribe(topics ...string) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ch := make(Subscription)
		close(ch)
		return ch
	}
	return b.ps.Sub(topics...)
}

// Unsubscribe cancels sub and closes it.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ps.Unsub(sub)
}

// Close closes every subscription. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.ps.Shutdown()
}

func payloadType(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
