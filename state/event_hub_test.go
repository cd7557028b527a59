package state

import (
	"testing"
)

func TestEventHub_PublishReachesSubscribers(t *testing.T) {
	hub := NewEventHub()

	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	if got := hub.SubscriberCount(); got != 2 {
		t.Fatalf("subscriber count = %d, want 2", got)
	}

	hub.Publish(PipelineEvent{VideoID: 7, Stage: "transcribe", Status: "completed"})

	for i, ch := range []<-chan PipelineEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.VideoID != 7 || ev.Stage != "transcribe" {
				t.Errorf("subscriber %d got %+v", i, ev)
			}
			if ev.At.IsZero() {
				t.Errorf("subscriber %d: timestamp not set", i)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestEventHub_UnsubscribeStopsDeliveryAndClosesChannel(t *testing.T) {
	hub := NewEventHub()

	ch, cancel := hub.Subscribe()
	cancel()
	cancel() // idempotent

	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("subscriber count = %d, want 0", got)
	}

	hub.Publish(PipelineEvent{VideoID: 1, Stage: "ingest", Status: "pending"})

	if _, open := <-ch; open {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestEventHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewEventHub()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Overflow the buffer; Publish must drop rather than stall.
	for i := 0; i < 100; i++ {
		hub.Publish(PipelineEvent{VideoID: int64(i), Stage: "analyze", Status: "processing"})
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered events = %d, want full buffer %d", got, cap(ch))
	}
}
