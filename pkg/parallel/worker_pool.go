package parallel

import (
	"fmt"
	"math"
	"sync"
)

// WorkerPool runs row-range tasks over a fixed set of goroutines. It is used
// to fan out read-only or row-independent matrix work; callers own all
// mutation ordering.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// ErrPoolClosed is returned by Range when the pool no longer accepts tasks.
var ErrPoolClosed = fmt.Errorf("worker pool is closed")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		task()
	}
}

// Submit adds a task to the worker pool.
// Returns false if the pool is closed, true if task was submitted.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	wp.taskQueue <- task
	return true
}

// Range splits [0, n) into contiguous chunks, one per worker, runs fn on each
// chunk and blocks until all chunks finish. A panic inside fn is re-raised in
// the caller after every chunk has returned.
func (wp *WorkerPool) Range(n int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}

	chunks := wp.workers
	if chunks > n {
		chunks = n
	}
	size := (n + chunks - 1) / chunks

	var (
		done     sync.WaitGroup
		panicMu  sync.Mutex
		panicVal any
	)

	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		lo, hi := lo, hi

		done.Add(1)
		ok := wp.Submit(func() {
			defer done.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if panicVal == nil {
						panicVal = r
					}
					panicMu.Unlock()
				}
			}()
			fn(lo, hi)
		})
		if !ok {
			done.Done()
			done.Wait()
			return ErrPoolClosed
		}
	}

	done.Wait()
	if panicVal != nil {
		panic(panicVal)
	}
	return nil
}

// Close shuts down the worker pool and waits for queued tasks.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
