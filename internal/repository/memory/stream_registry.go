package memory

import (
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// StreamHandle is the cancellation flag for one in-flight streaming
// response. The generating goroutine polls Cancelled between units.
type StreamHandle struct {
	requestId string
	cancelled atomic.Bool
	startedAt time.Time
}

func (h *StreamHandle) RequestId() string {
	return h.requestId
}

func (h *StreamHandle) Cancelled() bool {
	return h.cancelled.Load()
}

func (h *StreamHandle) StartedAt() time.Time {
	return h.startedAt
}

// StreamRegistry tracks active streaming requests so a cancel endpoint
// can reach into a stream owned by another goroutine. Entries expire as
// a backstop: a stream that never cleans up does not leak forever.
type StreamRegistry struct {
	cache *cache.Cache
}

func NewStreamRegistry() *StreamRegistry {
	// Streams live seconds to minutes; 30m expiry only catches leaks
	c := cache.New(30*time.Minute, 10*time.Minute)
	return &StreamRegistry{
		cache: c,
	}
}

func (r *StreamRegistry) Register(requestId string) *StreamHandle {
	h := &StreamHandle{
		requestId: requestId,
		startedAt: time.Now(),
	}
	r.cache.Set(requestId, h, cache.DefaultExpiration)
	return h
}

// Cancel flags the stream for interruption. Returns false when the
// request id is unknown or already cleaned up.
func (r *StreamRegistry) Cancel(requestId string) bool {
	x, found := r.cache.Get(requestId)
	if !found {
		return false
	}
	x.(*StreamHandle).cancelled.Store(true)
	return true
}

func (r *StreamRegistry) Get(requestId string) (*StreamHandle, bool) {
	if x, found := r.cache.Get(requestId); found {
		return x.(*StreamHandle), true
	}
	return nil, false
}

func (r *StreamRegistry) Remove(requestId string) {
	r.cache.Delete(requestId)
}

func (r *StreamRegistry) ActiveCount() int {
	return r.cache.ItemCount()
}
