// Package workerpool provides a bounded goroutine pool with a fixed-size
// task queue. It backs the agent's fire-and-forget snapshot path.
package workerpool

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Task is a unit of work submitted to the pool.
type Task func()

// Pool is a bounded goroutine pool with a fixed-size task queue.
type Pool struct {
	maxWorkers int
	queue      chan Task
	logger     *zap.Logger
	wg         sync.WaitGroup
	mu         sync.RWMutex
	accepting  atomic.Bool
	stopOnce   sync.Once
	closeOnce  sync.Once
	stopChan   chan struct{}
}

// New creates a pool with maxWorkers goroutines and a task queue of queueSize.
func New(maxWorkers, queueSize int, logger *zap.Logger) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		maxWorkers: maxWorkers,
		queue:      make(chan Task, queueSize),
		logger:     logger.Named("workerpool"),
		stopChan:   make(chan struct{}),
	}
	p.accepting.Store(true)

	for i := 0; i < maxWorkers; i++ {
		go p.worker()
	}

	p.logger.Debug("worker pool started",
		zap.Int("workers", maxWorkers),
		zap.Int("queueSize", queueSize))
	return p
}

// Submit enqueues a task. Returns false if the pool is stopped or the queue
// is full. wg.Add is called here (before enqueue) to prevent a race with
// Drain. The read lock pairs with the write lock around close(queue) so a
// Submit racing with Drain can never send on a closed channel, and the
// stopChan case keeps tasks from being enqueued after the workers have
// already exited.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.accepting.Load() {
		return false
	}

	p.wg.Add(1)
	select {
	case <-p.stopChan:
		p.wg.Done()
		return false
	case p.queue <- task:
		return true
	default:
		p.wg.Done() // undo the Add since task was not enqueued
		p.logger.Warn("worker pool queue full, task rejected")
		return false
	}
}

// StopAccepting prevents new tasks from being submitted.
func (p *Pool) StopAccepting() {
	p.accepting.Store(false)
}

// Drain stops accepting new tasks and waits for all in-flight and queued
// tasks to complete, respecting the context deadline. After Drain returns,
// the queue channel is closed so worker goroutines exit.
func (p *Pool) Drain(ctx context.Context) {
	p.StopAccepting()
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("worker pool drained")
	case <-ctx.Done():
		p.logger.Warn("worker pool drain timed out")
	}

	// Close queue so worker goroutines exit and are not leaked. The write
	// lock waits out any Submit still holding the read lock.
	p.closeOnce.Do(func() {
		p.mu.Lock()
		close(p.queue)
		p.mu.Unlock()
	})
}

// Shutdown is Drain under its conventional name.
func (p *Pool) Shutdown(ctx context.Context) {
	p.Drain(ctx)
}

func (p *Pool) worker() {
	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			p.runTask(task)
		case <-p.stopChan:
			// Drain remaining queued tasks
			for {
				select {
				case task, ok := <-p.queue:
					if !ok {
						return
					}
					p.runTask(task)
				default:
					return
				}
			}
		}
	}
}

// runTask executes a single task with panic recovery. wg.Done is called
// here to match the wg.Add in Submit.
func (p *Pool) runTask(task Task) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	task()
}
