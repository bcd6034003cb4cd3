package events

import (
	"sync"
	"testing"
)

func TestHub_PublishOrder(t *testing.T) {
	h := NewHub[int]()
	var got []string
	h.Subscribe(func(v int) { got = append(got, "a") })
	h.Subscribe(func(v int) { got = append(got, "b") })

	h.Publish(1)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub[string]()
	calls := 0
	cancel := h.Subscribe(func(string) { calls++ })

	h.Publish("x")
	cancel()
	cancel()
	h.Publish("y")

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if h.Len() != 0 {
		t.Errorf("expected no subscribers, got %d", h.Len())
	}
}

func TestHub_UnsubscribeDuringPublish(t *testing.T) {
	h := NewHub[Signal]()
	var cancel func()
	calls := 0
	cancel = h.Subscribe(func(Signal) {
		calls++
		cancel()
	})
	h.Publish(Signal{})
	h.Publish(Signal{})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestHub_Concurrent(t *testing.T) {
	h := NewHub[int]()
	var mu sync.Mutex
	total := 0
	h.Subscribe(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(2)
		}()
	}
	wg.Wait()

	if total != 100 {
		t.Errorf("expected 100, got %d", total)
	}
}
