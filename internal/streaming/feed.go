// Package streaming distributes the latest captured frame to any number of
// HTTP viewers. The live feed is a single slot holding the newest JPEG:
// slow viewers always receive the current frame, never a backlog.
package streaming

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Feed is the published-frame slot. Publishers replace the frame wholesale;
// the stored buffer is never mutated, so a viewer that grabbed a reference
// keeps a complete, consistent JPEG even while newer frames arrive.
type Feed struct {
	mu      sync.RWMutex
	frame   []byte
	seq     uint64
	changed chan struct{}
	viewers atomic.Int64
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		changed: make(chan struct{}),
	}
}

// Publish stores a new frame and wakes all waiting viewers. The caller must
// not modify jpeg after publishing. Empty frames are ignored.
func (f *Feed) Publish(jpeg []byte) {
	if len(jpeg) == 0 {
		return
	}

	f.mu.Lock()
	f.frame = jpeg
	f.seq++
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
}

// Latest returns the current frame and its sequence number. The frame is nil
// before the first publish.
func (f *Feed) Latest() ([]byte, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frame, f.seq
}

// WaitNext blocks until a frame newer than lastSeq is available, then
// returns it. ok is false when the timeout expires or ctx is done before a
// newer frame arrives.
func (f *Feed) WaitNext(ctx context.Context, lastSeq uint64, timeout time.Duration) (frame []byte, seq uint64, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		f.mu.RLock()
		frame, seq = f.frame, f.seq
		changed := f.changed
		f.mu.RUnlock()

		if seq > lastSeq && frame != nil {
			return frame, seq, true
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, lastSeq, false
		case <-timer.C:
			return nil, lastSeq, false
		}
	}
}

// AddViewer registers a connected viewer and returns the new count.
func (f *Feed) AddViewer() int64 {
	return f.viewers.Add(1)
}

// RemoveViewer deregisters a viewer and returns the new count.
func (f *Feed) RemoveViewer() int64 {
	return f.viewers.Add(-1)
}

// Viewers returns the number of currently connected viewers.
func (f *Feed) Viewers() int64 {
	return f.viewers.Load()
}
