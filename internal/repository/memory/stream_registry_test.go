package memory

import (
	"fmt"
	"sync"
	"testing"
)

func TestStreamRegistryCancelUnknown(t *testing.T) {
	r := NewStreamRegistry()

	if r.Cancel("no-such-request") {
		t.Error("expected Cancel to return false for unknown request id")
	}
}

func TestStreamRegistryRegisterCancel(t *testing.T) {
	r := NewStreamRegistry()

	h := r.Register("req-1")
	if h.Cancelled() {
		t.Error("fresh handle should not be cancelled")
	}

	if !r.Cancel("req-1") {
		t.Fatal("expected Cancel to find the registered stream")
	}
	if !h.Cancelled() {
		t.Error("handle should observe cancellation")
	}
}

func TestStreamRegistryRemove(t *testing.T) {
	r := NewStreamRegistry()

	r.Register("req-1")
	r.Remove("req-1")

	if r.Cancel("req-1") {
		t.Error("expected Cancel to return false after Remove")
	}
	if _, found := r.Get("req-1"); found {
		t.Error("expected Get to miss after Remove")
	}
}

func TestStreamRegistryConcurrentAccess(t *testing.T) {
	r := NewStreamRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("req-%d", n)
			h := r.Register(id)
			r.Cancel(id)
			if !h.Cancelled() {
				t.Errorf("handle %s should be cancelled", id)
			}
			r.Remove(id)
		}(i)
	}
	wg.Wait()

	if r.ActiveCount() != 0 {
		t.Errorf("expected empty registry, got %d entries", r.ActiveCount())
	}
}
