package accel

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// queueDepth bounds how many tasks may sit in a queue before Submit blocks.
const queueDepth = 256

// inprocQueue runs submitted tasks on a dedicated goroutine in FIFO order.
type inprocQueue struct {
	id     string
	logger *zap.Logger

	tasks chan func()

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	closed  bool

	workerDone chan struct{}
}

func newInprocQueue(logger *zap.Logger, deviceIndex int) *inprocQueue {
	q := &inprocQueue{
		id:         uuid.NewString(),
		tasks:      make(chan func(), queueDepth),
		workerDone: make(chan struct{}),
	}
	q.idle = sync.NewCond(&q.mu)
	q.logger = logger.Named("queue").With(
		zap.String("queue_id", q.id),
		zap.Int("device", deviceIndex),
	)
	go q.run()
	q.logger.Debug("queue created")
	return q
}

func (q *inprocQueue) run() {
	defer close(q.workerDone)
	for task := range q.tasks {
		task()
		q.mu.Lock()
		q.pending--
		if q.pending == 0 {
			q.idle.Broadcast()
		}
		q.mu.Unlock()
	}
}

func (q *inprocQueue) ID() string { return q.id }

// Submit enqueues a task. It may block while the queue is saturated.
func (q *inprocQueue) Submit(task func()) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.Errorf("queue %s: submit after destroy", q.id)
	}
	q.pending++
	q.mu.Unlock()

	q.tasks <- task
	return nil
}

// Synchronize blocks the calling goroutine until the queue drains.
func (q *inprocQueue) Synchronize() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending > 0 {
		q.idle.Wait()
	}
	return nil
}

// Destroy drains the queue and stops its worker. Idempotent.
func (q *inprocQueue) Destroy() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for q.pending > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()

	close(q.tasks)
	<-q.workerDone
	q.logger.Debug("queue destroyed")
	return nil
}
