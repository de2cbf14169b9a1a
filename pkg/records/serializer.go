package records

import (
	"context"
	"sync"
)

// writeTask is a single queued read-modify-write cycle
type writeTask struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// WriteSerializer runs submitted tasks one at a time on a single worker, in
// the order they were submitted. Each provider owns its own serializer.
type WriteSerializer struct {
	mu      sync.Mutex
	pending []*writeTask
	closed  bool
	wake    chan struct{}

	stopChan chan struct{}
	workerWg sync.WaitGroup
	stopOnce sync.Once
}

// NewWriteSerializer creates a serializer and starts its worker
func NewWriteSerializer() *WriteSerializer {
	s := &WriteSerializer{
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}

	s.workerWg.Add(1)
	go s.run()

	return s
}

// Submit enqueues fn and returns a channel that receives its result.
// Enqueueing never blocks; the queue is unbounded.
func (s *WriteSerializer) Submit(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	task := &writeTask{
		ctx:  ctx,
		fn:   fn,
		done: make(chan error, 1),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		task.done <- errSerializerClosed
		return task.done
	}
	s.pending = append(s.pending, task)
	s.mu.Unlock()

	// Signal the worker without blocking
	select {
	case s.wake <- struct{}{}:
	default:
	}

	return task.done
}

// Do submits fn and waits for its result. If ctx ends first, ctx's error is
// returned; a task that has not started yet is then skipped by the worker.
func (s *WriteSerializer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := s.Submit(ctx, fn)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of tasks waiting to run
func (s *WriteSerializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops the worker after the task in flight completes. Tasks still
// queued fail with errSerializerClosed.
func (s *WriteSerializer) Close() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stopChan)
	})
	s.workerWg.Wait()

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, task := range pending {
		task.done <- errSerializerClosed
	}
}

func (s *WriteSerializer) run() {
	defer s.workerWg.Done()

	for {
		task := s.next()
		if task == nil {
			select {
			case <-s.wake:
				continue
			case <-s.stopChan:
				return
			}
		}

		if err := task.ctx.Err(); err != nil {
			task.done <- err
			continue
		}
		task.done <- task.fn(task.ctx)
	}
}

// next pops the oldest pending task. It returns nil if the queue is empty or
// the serializer is closing.
func (s *WriteSerializer) next() *writeTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.pending) == 0 {
		return nil
	}
	task := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	return task
}
