package analyzer

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs whole-image analyses concurrently, e.g. for batch uploads
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	running  sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int64
}

// PoolStats is a snapshot of the pool counters
type PoolStats struct {
	TotalJobs     int64
	CompletedJobs int64
	ActiveWorkers int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		wp.running.Add(wp.workers)
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	defer wp.running.Done()
	for job := range wp.jobQueue {
		wp.activeWorkers.Add(1)
		job()
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
	}
}

// Submit adds a job to the worker pool queue. It returns false once the pool
// has been closed.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}

	wp.totalJobs.Add(1)
	wp.jobQueue <- job
	return true
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.workers
}

// GetStats returns the current job counters
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}

// Close stops accepting jobs and blocks until the queued ones have run
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.jobQueue)
	}
	wp.mu.Unlock()

	wp.running.Wait()
}
