package flowvel

import (
	"sync"
)

// TrackerPool is a simple pool of Tracker instances for hosts processing
// multiple independent camera streams.  Each Tracker is only safe for use
// by one goroutine at a time, the pool hands out exclusive instances.
type TrackerPool struct {
	// pool of trackers
	trackers chan *Tracker
	// size of pool
	size int
	// mu guards closed so a late Return cannot send on a closed channel
	mu     sync.Mutex
	closed bool
}

// NewTrackerPool creates a pool of size identically configured Trackers,
// with the construction parameters of NewTracker
func NewTrackerPool(size int, method int, frameInterval, focalLength,
	sensorWidth, sensorHeight float32) (*TrackerPool, error) {

	p := &TrackerPool{
		trackers: make(chan *Tracker, size),
		size:     size,
	}

	for i := 0; i < size; i++ {
		t, err := NewTracker(method, frameInterval, focalLength,
			sensorWidth, sensorHeight)

		if err != nil {
			// close any instances that may have been created before
			// receiving the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(t)
	}

	return p, nil
}

// Get a tracker from the pool
func (p *TrackerPool) Get() *Tracker {
	return <-p.trackers
}

// Return a tracker to the pool.  A tracker returned after the pool has
// been closed is closed instead of pooled.
func (p *TrackerPool) Return(t *Tracker) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = t.Close()
		return
	}

	select {
	case p.trackers <- t:
	default:
		// pool is full
	}
}

// Close the pool and all trackers in it
func (p *TrackerPool) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return
	}

	p.closed = true
	p.mu.Unlock()

	// close channel
	close(p.trackers)

	// close all trackers
	for next := range p.trackers {
		_ = next.Close()
	}
}
