package notify

import "testing"

func TestPublishAndUnsubscribe(t *testing.T) {
	h := NewHub[int]()
	ch, cancel := h.Subscribe(4)
	h.Publish(1)
	h.Publish(2)
	if v := <-ch; v != 1 {
		t.Errorf("first = %d, want 1", v)
	}
	if v := <-ch; v != 2 {
		t.Errorf("second = %d, want 2", v)
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}
}

// TestSlowSubscriberKeepsLatest verifies a full buffer keeps the most
// recent value instead of blocking the publisher.
func TestSlowSubscriberKeepsLatest(t *testing.T) {
	h := NewHub[int]()
	ch, cancel := h.Subscribe(1)
	defer cancel()
	for i := 1; i <= 5; i++ {
		h.Publish(i)
	}
	if v := <-ch; v != 5 {
		t.Errorf("value = %d, want 5", v)
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	h := NewHub[string]()
	ch, cancel := h.Subscribe(1)
	h.Close()
	if _, ok := <-ch; ok {
		t.Error("channel open after Close")
	}
	cancel()
	late, _ := h.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("subscription after Close is open")
	}
}
