package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	p := Progress{JobID: uuid.New(), CompletedModules: 3, TotalModules: 5, At: time.Now()}
	b.Publish(p)

	for _, ch := range []<-chan Progress{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, p.JobID, got.JobID)
			assert.Equal(t, 3, got.CompletedModules)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the snapshot")
		}
	}
}

func TestBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// nobody draining ch: publishing far past the buffer must not block
		for i := 0; i < 100; i++ {
			b.Publish(Progress{CompletedModules: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	assert.NotEmpty(t, ch)
}

func TestBrokerCancelClosesChannel(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	cancel()

	_, open := <-ch
	require.False(t, open)

	// publishing after cancel is a no-op, not a panic
	b.Publish(Progress{})
	cancel()
}
