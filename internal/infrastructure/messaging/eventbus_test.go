package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(Config{AsyncMode: false, EnableMetrics: true})
}

func TestInMemoryEventBus_PublishToSubscribers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventLessonCompleted, func(event shared.Event) error {
		received = append(received, event)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewLessonCompletedEvent("user-1", "lesson-1", 12, 12, 1, nil)
	require.NoError(t, bus.Publish(event))

	require.Len(t, received, 1)
	assert.Equal(t, shared.EventLessonCompleted, received[0].EventType())
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var completedCount, resetCount int
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error {
		completedCount++
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventProgressReset, func(shared.Event) error {
		resetCount++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("u", "l", 10, 10, 1, nil)))
	require.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("u", "l2", 10, 20, 1, nil)))
	require.NoError(t, bus.Publish(shared.NewProgressResetEvent("u", 2)))

	assert.Equal(t, 2, completedCount)
	assert.Equal(t, 1, resetCount)
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var all int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("u", "l", 10, 10, 1, nil)))
	require.NoError(t, bus.Publish(shared.NewProgressResetEvent("u", 0)))

	assert.Equal(t, 2, all)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var secondCalled bool
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error {
		return errors.New("projection down")
	}))
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error {
		secondCalled = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("u", "l", 10, 10, 1, nil)))
	assert.True(t, secondCalled)

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.HandlerExecutions)
	assert.Equal(t, int64(1), snapshot.HandlerFailures)
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(Config{AsyncMode: true, WorkerPoolSize: 4})

	var (
		mu    sync.Mutex
		count int
	)
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("u", "l", 10, 10, 1, nil)))
	}

	// Close ждёт завершения всех обработчиков.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}

func TestInMemoryEventBus_ClosedBusRejects(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewProgressResetEvent("u", 0))
	require.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error { return nil })
	require.ErrorIs(t, err, ErrEventBusClosed)
}
