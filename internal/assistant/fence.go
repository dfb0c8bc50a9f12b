package assistant

import "sync"

// Fence hands out increasing sequence numbers per field so that a late
// response to an older request can be recognised and dropped.
type Fence struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func NewFence() *Fence {
	return &Fence{latest: make(map[string]uint64)}
}

func (f *Fence) Next(field string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest[field]++
	return f.latest[field]
}

func (f *Fence) IsLatest(field string, seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.latest[field] == seq
}
