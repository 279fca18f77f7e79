package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// WorkerPool runs independent backtests in parallel. Every job builds its
// own run state, so workers share only the read-only bars.
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *logger.Logger
	stopOnce    sync.Once
}

// Job represents a single backtest task
type Job struct {
	ID       string
	Strategy strategy.Strategy
	Config   Config
	Bars     []types.OHLCV
	Column   string

	index int
}

// JobResult represents the result of a backtest job
type JobResult struct {
	ID       string
	Index    int
	Results  *Results
	Metrics  *PerformanceMetrics
	Duration time.Duration
	Error    error
}

// NewWorkerPool creates a worker pool bound to ctx. workerCount <= 0 uses
// one worker per CPU.
func NewWorkerPool(ctx context.Context, workerCount, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.Nop(),
	}
}

// SetLogger shares l with every backtest the pool runs
func (wp *WorkerPool) SetLogger(l *logger.Logger) {
	if l != nil {
		wp.logger = l
	}
}

// Start starts the worker pool
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the queue, waits for workers and closes the result channel.
// No job may be submitted after Stop.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
	})
}

// SubmitJob submits a backtest job to the pool
func (wp *WorkerPool) SubmitJob(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the result channel for collecting completed jobs
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job Job) JobResult {
	start := time.Now()
	result := JobResult{ID: job.ID, Index: job.index}

	bt := NewBacktester(job.Strategy, job.Config)
	bt.SetLogger(wp.logger)

	res, err := bt.Run(job.Bars, job.Column)
	if err != nil {
		result.Error = err
	} else {
		result.Results = res
		result.Metrics = bt.PerformanceMetrics(res)
	}
	result.Duration = time.Since(start)
	return result
}

// RunBatch executes jobs on workers goroutines and returns results in job
// order. If ctx ends first, unfinished jobs carry the context error.
func RunBatch(ctx context.Context, jobs []Job, workers int, log *logger.Logger) ([]JobResult, error) {
	if log == nil {
		log = logger.Nop()
	}
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	pool := NewWorkerPool(ctx, workers, len(jobs))
	pool.SetLogger(log)
	pool.Start()

	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i, job := range jobs {
			job.index = i
			if job.ID == "" {
				job.ID = generateJobID(job, i)
			}
			if err := pool.SubmitJob(job); err != nil {
				return
			}
		}
	}()

	done := make([]bool, len(jobs))
	tracker := NewProgressTracker(len(jobs))
	var runErr error

collect:
	for tracker.Completed() < len(jobs) {
		select {
		case r := <-pool.Results():
			results[r.Index] = r
			done[r.Index] = true
			tracker.Increment()
			completed, total, pct, _ := tracker.GetProgress()
			log.Info("batch progress %d/%d (%.0f%%), eta %s", completed, total, pct, tracker.EstimateTimeRemaining().Round(time.Millisecond))
		case <-ctx.Done():
			runErr = ctx.Err()
			break collect
		}
	}

	pool.cancel()
	<-submitted
	pool.Stop()

	if runErr != nil {
		for i := range results {
			if !done[i] {
				results[i] = JobResult{ID: jobs[i].ID, Index: i, Error: runErr}
			}
		}
	}
	return results, runErr
}

func generateJobID(job Job, index int) string {
	name := "job"
	if job.Strategy != nil {
		name = job.Strategy.Name()
	}
	return fmt.Sprintf("%s_%s_%d", name, job.Config.Symbol, index)
}

// ProgressTracker tracks the progress of batch processing
type ProgressTracker struct {
	total     int
	completed int
	startTime time.Time
	mutex     sync.RWMutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Increment increments the completion count
func (pt *ProgressTracker) Increment() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.completed++
}

func (pt *ProgressTracker) Completed() int {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()
	return pt.completed
}

// GetProgress returns completed, total, percent done and elapsed time
func (pt *ProgressTracker) GetProgress() (int, int, float64, time.Duration) {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	elapsed := time.Since(pt.startTime)
	progress := 0.0
	if pt.total > 0 {
		progress = float64(pt.completed) / float64(pt.total) * 100
	}
	return pt.completed, pt.total, progress, elapsed
}

// EstimateTimeRemaining extrapolates from the average time per completed item
func (pt *ProgressTracker) EstimateTimeRemaining() time.Duration {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	if pt.completed == 0 {
		return 0
	}

	elapsed := time.Since(pt.startTime)
	avgTimePerItem := elapsed / time.Duration(pt.completed)
	remaining := pt.total - pt.completed

	return avgTimePerItem * time.Duration(remaining)
}
