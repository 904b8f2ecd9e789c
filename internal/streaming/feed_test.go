package streaming

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestFeedLatestEmptyBeforePublish(t *testing.T) {
	feed := NewFeed()

	frame, seq := feed.Latest()
	if frame != nil {
		t.Errorf("expected nil frame before publish, got %d bytes", len(frame))
	}
	if seq != 0 {
		t.Errorf("seq = %d, want 0", seq)
	}
}

func TestFeedPublishReplacesWholeFrame(t *testing.T) {
	feed := NewFeed()

	feed.Publish([]byte("first"))
	feed.Publish([]byte("second"))

	frame, seq := feed.Latest()
	if string(frame) != "second" {
		t.Errorf("frame = %q, want second", frame)
	}
	if seq != 2 {
		t.Errorf("seq = %d, want 2", seq)
	}
}

func TestFeedIgnoresEmptyPublish(t *testing.T) {
	feed := NewFeed()
	feed.Publish([]byte("frame"))
	feed.Publish(nil)
	feed.Publish([]byte{})

	frame, seq := feed.Latest()
	if string(frame) != "frame" {
		t.Errorf("frame = %q, want frame", frame)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
}

func TestFeedWaitNextReturnsNewFrame(t *testing.T) {
	feed := NewFeed()

	done := make(chan struct{})
	go func() {
		defer close(done)
		frame, seq, ok := feed.WaitNext(context.Background(), 0, 2*time.Second)
		if !ok {
			t.Error("WaitNext timed out")
			return
		}
		if string(frame) != "hello" {
			t.Errorf("frame = %q, want hello", frame)
		}
		if seq != 1 {
			t.Errorf("seq = %d, want 1", seq)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	feed.Publish([]byte("hello"))
	<-done
}

func TestFeedWaitNextTimeout(t *testing.T) {
	feed := NewFeed()
	feed.Publish([]byte("only"))

	start := time.Now()
	_, _, ok := feed.WaitNext(context.Background(), 1, 50*time.Millisecond)
	if ok {
		t.Error("expected timeout, got fresh frame")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("returned after %v, want at least the timeout", elapsed)
	}
}

func TestFeedWaitNextImmediateWhenBehind(t *testing.T) {
	feed := NewFeed()
	feed.Publish([]byte("a"))
	feed.Publish([]byte("b"))

	frame, seq, ok := feed.WaitNext(context.Background(), 1, time.Second)
	if !ok {
		t.Fatal("expected immediate frame")
	}
	if string(frame) != "b" || seq != 2 {
		t.Errorf("got %q seq %d, want b seq 2", frame, seq)
	}
}

func TestFeedWaitNextContextCancel(t *testing.T) {
	feed := NewFeed()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, _, ok := feed.WaitNext(ctx, 0, 5*time.Second)
	if ok {
		t.Error("expected cancellation, got frame")
	}
}

func TestFeedConcurrentReadersSeeWholeFrames(t *testing.T) {
	feed := NewFeed()

	// Two distinguishable frames: all-A and all-B. A torn read would mix them.
	frameA := bytes.Repeat([]byte{'A'}, 4096)
	frameB := bytes.Repeat([]byte{'B'}, 4096)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 8)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastSeq uint64
			for ctx.Err() == nil {
				frame, seq, ok := feed.WaitNext(ctx, lastSeq, 100*time.Millisecond)
				if !ok {
					continue
				}
				lastSeq = seq
				if !bytes.Equal(frame, frameA) && !bytes.Equal(frame, frameB) {
					select {
					case errCh <- fmt.Errorf("torn frame: len=%d first=%c last=%c", len(frame), frame[0], frame[len(frame)-1]):
					default:
					}
					return
				}
			}
		}()
	}

	for i := range 200 {
		if i%2 == 0 {
			feed.Publish(frameA)
		} else {
			feed.Publish(frameB)
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	wg.Wait()

	select {
	case err := <-errCh:
		t.Fatal(err)
	default:
	}
}

func TestFeedViewerCount(t *testing.T) {
	feed := NewFeed()

	if n := feed.AddViewer(); n != 1 {
		t.Errorf("AddViewer = %d, want 1", n)
	}
	if n := feed.AddViewer(); n != 2 {
		t.Errorf("AddViewer = %d, want 2", n)
	}
	if n := feed.RemoveViewer(); n != 1 {
		t.Errorf("RemoveViewer = %d, want 1", n)
	}
	if n := feed.Viewers(); n != 1 {
		t.Errorf("Viewers = %d, want 1", n)
	}
}
