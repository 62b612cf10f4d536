// Package parallel provides the fixed-size worker pool and chunked
// parallel-for helpers the analytics algorithms run their rounds on.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
)

// WorkerPool manages a fixed pool of worker goroutines fed from a task queue.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
}

// NewWorkerPool creates a worker pool with the given number of workers.
// A non-positive count defaults to the number of CPUs.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.workers }

// worker processes tasks from the queue until the pool is closed.
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		task()
	}
}

// Submit adds a task to the worker pool.
// Returns false if the pool is closed, true if the task was accepted.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	// Safe to send because we hold the lock and the pool is not closed.
	wp.taskQueue <- task
	return true
}

// Close shuts down the worker pool and waits for in-flight tasks.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// ForRange applies fn to chunks covering [0, n), one chunk per task, and
// blocks until every chunk completes: a synchronization barrier. A panic in
// any chunk is recovered and surfaced after the barrier, so a failing task
// aborts the invocation instead of crashing a worker.
func (wp *WorkerPool) ForRange(n int, fn func(start, end int)) error {
	if n <= 0 {
		return nil
	}

	chunk := chunkSize(n, wp.workers)

	var (
		wg       sync.WaitGroup
		panicMu  sync.Mutex
		panicErr error
	)

	for i := 0; i < n; i += chunk {
		start, end := i, i+chunk
		if end > n {
			end = n
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if panicErr == nil {
						panicErr = fmt.Errorf("parallel task panic: %v", r)
					}
					panicMu.Unlock()
				}
			}()
			fn(start, end)
		}

		// Run inline if the pool has been closed under us.
		if !wp.Submit(task) {
			task()
		}
	}

	wg.Wait()
	return panicErr
}

// chunkSize splits n items across workers, overflow-safe.
func chunkSize(n, workers int) int {
	if n <= 0 || workers <= 0 {
		return 1
	}
	size := int((int64(n) + int64(workers) - 1) / int64(workers))
	if size < 1 {
		size = 1
	}
	return size
}
