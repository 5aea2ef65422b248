package connect

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := NewBus(4)
	defer b.Close()

	snaps := b.Subscribe(TopicSnapshots)
	actions := b.Subscribe(TopicViewActions)

	b.Publish(TopicSnapshots, Snapshot{Revision: 1})
	b.Publish(TopicViewActions, ViewActionOutOfTime{})

	select {
	case msg := <-snaps:
		if s, ok := msg.(Snapshot); !ok || s.Revision != 1 {
			t.Errorf("snapshot subscriber got %#v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot not delivered")
	}

	select {
	case msg := <-actions:
		if _, ok := msg.(ViewActionOutOfTime); !ok {
			t.Errorf("action subscriber got %#v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("view action not delivered")
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus(1)
	defer b.Close()
	sub := b.Subscribe(TopicSnapshots)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(TopicSnapshots, Snapshot{Revision: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	b.Unsubscribe(sub)
}

func TestBus_CloseAndUnsubscribe(t *testing.T) {
	b := NewBus(2)
	sub := b.Subscribe(TopicSnapshots)
	other := b.Subscribe(TopicSnapshots)

	b.Unsubscribe(other)
	if _, ok := <-other; ok {
		t.Error("unsubscribed channel should be closed")
	}

	b.Close()
	b.Close()
	if _, ok := <-sub; ok {
		t.Error("Close should close subscriptions")
	}

	// No-ops after close.
	b.Publish(TopicSnapshots, Snapshot{})
	b.Unsubscribe(sub)
	if _, ok := <-b.Subscribe(TopicSnapshots); ok {
		t.Error("Subscribe after Close should return a closed subscription")
	}
}
