package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Channel():
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
	return Event{}
}

// TestBasicPubSub tests delivery by kind
func TestBasicPubSub(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	sub, err := ps.Subscribe(context.Background(), string(KindStep))
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	ps.Publish(Event{Kind: KindStep, Step: 3, Prevalence: 0.1})
	ps.Publish(Event{Kind: KindGeneration, Generation: 1})

	ev := recvEvent(t, sub)
	if ev.Step != 3 || ev.Prevalence != 0.1 {
		t.Errorf("unexpected event %+v", ev)
	}
	select {
	case ev := <-sub.Channel():
		t.Errorf("step subscriber received %s event", ev.Kind)
	default:
	}
}

func TestTopicAll(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	all, _ := ps.Subscribe(context.Background(), TopicAll)

	ps.Publish(Event{Kind: KindRunStarted})
	ps.Publish(Event{Kind: KindStep})
	ps.Publish(Event{Kind: KindRunFinished})

	for _, want := range []Kind{KindRunStarted, KindStep, KindRunFinished} {
		if got := recvEvent(t, all).Kind; got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	}
}

// TestMultipleSubscribers tests fan-out to every subscriber of a topic
func TestMultipleSubscribers(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	subs := make([]*Subscription, 5)
	for i := range subs {
		sub, err := ps.Subscribe(context.Background(), string(KindGeneration))
		if err != nil {
			t.Fatalf("Failed to subscribe %d: %v", i, err)
		}
		subs[i] = sub
	}
	if got := ps.GetSubscriberCount(string(KindGeneration)); got != 5 {
		t.Fatalf("GetSubscriberCount = %d, want 5", got)
	}

	ps.Publish(Event{Kind: KindGeneration, Generation: 4})

	for i, sub := range subs {
		if ev := recvEvent(t, sub); ev.Generation != 4 {
			t.Errorf("subscriber %d got %+v", i, ev)
		}
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	_, _ = ps.Subscribe(context.Background(), string(KindStep))
	for i := 0; i < DefaultBuffer+10; i++ {
		ps.Publish(Event{Kind: KindStep, Step: i})
	}
	if got := ps.Dropped(); got != 10 {
		t.Errorf("Dropped() = %d, want 10", got)
	}
}

func TestContextCancellationUnsubscribes(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := ps.Subscribe(ctx, TopicAll)
	cancel()

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	if ps.GetSubscriberCount(TopicAll) != 0 {
		t.Error("subscriber not removed")
	}
}

func TestShutdown(t *testing.T) {
	ps := NewPubSub()
	sub, _ := ps.Subscribe(context.Background(), TopicAll)

	ps.Shutdown()
	ps.Shutdown()

	if _, ok := <-sub.Channel(); ok {
		t.Error("channel open after shutdown")
	}
	sub.Unsubscribe()
	ps.Publish(Event{Kind: KindStep})

	if _, err := ps.Subscribe(context.Background(), TopicAll); !errors.Is(err, ErrShutdown) {
		t.Errorf("Subscribe after shutdown = %v", err)
	}
}

// TestConcurrentPublishUnsubscribe exercises the send/close exclusion
func TestConcurrentPublishUnsubscribe(t *testing.T) {
	ps := NewPubSub()
	defer ps.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub, _ := ps.Subscribe(context.Background(), TopicAll)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ps.Publish(Event{Kind: KindStep, Step: j})
			}
		}()
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.Publish(Event{Kind: KindStep})
}
