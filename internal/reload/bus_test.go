package reload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandToken(t *testing.T) {
	assert.Equal(t, "reload", FullReload.Token())
	assert.Equal(t, "reload-css", StyleReload.Token())
}

func TestSubscribeStartsEmpty(t *testing.T) {
	bus := NewBus()
	bus.Publish(FullReload)

	sub := bus.Subscribe()
	defer sub.Close()

	select {
	case cmd := <-sub.C():
		t.Fatalf("late subscriber saw historical command %v", cmd)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer a.Close()
	defer b.Close()

	bus.Publish(FullReload)
	bus.Publish(StyleReload)

	for _, sub := range []*Subscriber{a, b} {
		assert.Equal(t, FullReload, <-sub.C())
		assert.Equal(t, StyleReload, <-sub.C())
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		// Nobody drains the subscriber; publishes beyond capacity must drop.
		for i := 0; i < queueCapacity*4; i++ {
			bus.Publish(FullReload)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a saturated subscriber")
	}

	// The queue holds exactly its capacity; the rest were dropped.
	received := 0
	for {
		select {
		case <-sub.C():
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, queueCapacity, received)
}

func TestActiveCount(t *testing.T) {
	bus := NewBus()
	require.Equal(t, 0, bus.ActiveCount())

	a := bus.Subscribe()
	b := bus.Subscribe()
	assert.Equal(t, 2, bus.ActiveCount())

	a.Close()
	assert.Equal(t, 1, bus.ActiveCount())

	b.Close()
	assert.Equal(t, 0, bus.ActiveCount())

	// Closing twice is safe.
	b.Close()
	assert.Equal(t, 0, bus.ActiveCount())
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	sub.Close()

	bus.Publish(FullReload)

	_, ok := <-sub.C()
	assert.False(t, ok, "channel should be closed")
}

func TestOrderPreservedPerSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	want := []Command{FullReload, StyleReload, StyleReload, FullReload}
	for _, cmd := range want {
		bus.Publish(cmd)
	}

	for i, expected := range want {
		assert.Equal(t, expected, <-sub.C(), "command %d out of order", i)
	}
}
