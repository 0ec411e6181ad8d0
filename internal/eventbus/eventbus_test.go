package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInOrder(t *testing.T) {
	b := New()

	var got []string
	b.Subscribe(EventProgress, func(e DomainEvent) {
		got = append(got, e.(ProgressEvent).Path)
	})

	for _, p := range []string{"a", "b", "c", "d"} {
		require.True(t, b.Publish(ProgressEvent{Path: p}))
	}
	b.Close()

	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestHandlersNeverRunConcurrently(t *testing.T) {
	b := NewWithBuffer(16)

	var active, maxActive int32
	handler := func(DomainEvent) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
	}
	b.Subscribe(EventProgress, handler)
	b.Subscribe(EventFileFound, handler)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Publish(ProgressEvent{Path: "p"})
				b.Publish(FileFoundEvent{})
			}
		}()
	}
	wg.Wait()
	b.Close()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	var first, second int
	delivered := make(chan struct{}, 2)
	unsub := b.Subscribe(EventSearchError, func(DomainEvent) { first++ })
	b.Subscribe(EventSearchError, func(DomainEvent) {
		second++
		delivered <- struct{}{}
	})

	b.Publish(SearchErrorEvent{Message: "one"})
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("first event not delivered")
	}
	unsub()
	b.Publish(SearchErrorEvent{Message: "two"})
	b.Close()

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	b := New()

	var delivered int
	b.Subscribe(EventSearchCompleted, func(DomainEvent) { panic("boom") })
	b.Subscribe(EventSearchCompleted, func(DomainEvent) { delivered++ })

	b.Publish(SearchCompletedEvent{})
	b.Publish(SearchCompletedEvent{})
	b.Close()

	assert.Equal(t, 2, delivered)
}

func TestNoDeliveryAfterClose(t *testing.T) {
	b := New()

	var count int32
	b.Subscribe(EventProgress, func(DomainEvent) { atomic.AddInt32(&count, 1) })

	b.Publish(ProgressEvent{})
	b.Close()
	delivered := atomic.LoadInt32(&count)

	assert.False(t, b.Publish(ProgressEvent{}))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, delivered, atomic.LoadInt32(&count))
	assert.Equal(t, int32(1), delivered)

	// Close is idempotent
	b.Close()
}

func TestCloseReleasesBlockedPublisher(t *testing.T) {
	b := NewWithBuffer(1)

	release := make(chan struct{})
	b.Subscribe(EventProgress, func(DomainEvent) { <-release })

	// first event occupies the dispatcher, second fills the queue
	b.Publish(ProgressEvent{Path: "1"})
	b.Publish(ProgressEvent{Path: "2"})

	published := make(chan bool, 1)
	go func() { published <- b.Publish(ProgressEvent{Path: "3"}) }()

	closed := make(chan struct{})
	go func() {
		b.Close()
		close(closed)
	}()

	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after Close")
	}
}

func TestPublishContextGivesUpWhenDone(t *testing.T) {
	b := NewWithBuffer(1)

	release := make(chan struct{})
	var delivered int32
	b.Subscribe(EventProgress, func(DomainEvent) {
		<-release
		atomic.AddInt32(&delivered, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, b.PublishContext(ctx, ProgressEvent{Path: "1"}))
	// the dispatcher holds "1", so "2" fills the queue
	require.True(t, b.PublishContext(ctx, ProgressEvent{Path: "2"}))

	published := make(chan bool, 1)
	go func() { published <- b.PublishContext(ctx, ProgressEvent{Path: "3"}) }()
	cancel()

	select {
	case ok := <-published:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher still blocked after cancel")
	}
	assert.False(t, b.PublishContext(ctx, ProgressEvent{Path: "4"}))

	close(release)
	b.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&delivered))
}
