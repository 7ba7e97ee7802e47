package accel

import (
	"sync"

	"go.uber.org/zap"
)

// CallbackManager runs host callbacks in the order their queue positions
// complete. Callbacks execute on a dedicated goroutine, asynchronously with
// respect to both the submitting goroutine and the queue worker, but always
// FIFO per queue.
//
// The queue reference is borrowed; the owning context drains the manager
// before destroying the queue.
type CallbackManager struct {
	queue  Queue
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	fired chan func()
	done  chan struct{}
}

// NewCallbackManager binds a manager to q.
func NewCallbackManager(logger *zap.Logger, q Queue) *CallbackManager {
	m := &CallbackManager{
		queue:  q,
		logger: logger.Named("callbacks"),
		fired:  make(chan func(), queueDepth),
		done:   make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *CallbackManager) run() {
	defer close(m.done)
	for fn := range m.fired {
		fn()
		m.wg.Done()
	}
}

// Add schedules fn to run after all work currently in the queue completes.
// After Close the callback is dropped.
func (m *CallbackManager) Add(fn func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Warn("callback dropped after close")
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	if err := m.queue.Submit(func() { m.fired <- fn }); err != nil {
		m.logger.Error("callback enqueue failed", zap.Error(err))
		m.wg.Done()
	}
}

// Drain blocks until every callback added so far has finished running.
// Callers must not Add concurrently with Drain; the owning context always
// waits on the queue before draining, which provides that ordering.
func (m *CallbackManager) Drain() {
	m.wg.Wait()
}

// Close drains outstanding callbacks and stops the manager's goroutine.
func (m *CallbackManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()
	close(m.fired)
	<-m.done
}
