package notify

import (
	"testing"
	"time"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus(nil)
	a := b.Subscribe()
	c := b.Subscribe()
	defer b.Unsubscribe(a)
	defer b.Unsubscribe(c)

	b.Notify(Success, "Task added!", "")

	for _, ch := range []chan Notice{a, c} {
		select {
		case n := <-ch:
			if n.Message != "Task added!" || n.Level != Success {
				t.Errorf("got %+v", n)
			}
			if n.At.IsZero() {
				t.Error("notice not stamped")
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber got nothing")
		}
	}
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus(nil)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Notify(Info, "tick", "")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffer holds %d, want %d", len(ch), cap(ch))
	}
}

func TestUnsubscribeTwice(t *testing.T) {
	b := NewBus(nil)
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel still open")
	}
}

func TestNoticeString(t *testing.T) {
	n := Notice{Message: "Failed to add task", Description: "boom"}
	if got := n.String(); got != "Failed to add task: boom" {
		t.Errorf("String() = %q", got)
	}
}
