package worker

import (
	"context"
	"sync"
)

// Job is one unit of work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool fans jobs out to a fixed number of goroutines and returns their
// results in submission order, however the executions interleave.
type Pool struct {
	workers int
	jobs    chan indexedJob
	results chan indexedResult

	ctx    context.Context
	cancel context.CancelFunc

	wg          sync.WaitGroup
	collectDone chan struct{}
	collected   []indexedResult
	submitted   int

	closeJobs    sync.Once
	closeResults sync.Once
}

// NewPool creates a pool of the given size. The context bounds every
// job execution.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:     workers,
		jobs:        make(chan indexedJob, workers*2),
		results:     make(chan indexedResult, workers*2),
		ctx:         ctx,
		cancel:      cancel,
		collectDone: make(chan struct{}),
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.results <- indexedResult{index: job.index, result: job.job.Execute(p.ctx)}
		}
	}
}

// collect drains results as they arrive so workers never block on a
// full results channel no matter how many jobs are queued
func (p *Pool) collect() {
	defer close(p.collectDone)
	for r := range p.results {
		p.collected = append(p.collected, r)
	}
}

// Submit queues a job. Jobs submitted after cancellation are dropped.
// Submit and Wait must be called from the same goroutine.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- indexedJob{index: p.submitted, job: job}:
		p.submitted++
	}
}

// Wait closes the queue, lets queued jobs finish and returns results in
// submission order. Jobs not executed before cancellation leave nil
// slots.
func (p *Pool) Wait() []Result {
	p.closeJobs.Do(func() { close(p.jobs) })
	p.wg.Wait()
	p.cancel()
	p.closeResults.Do(func() { close(p.results) })
	<-p.collectDone

	out := make([]Result, p.submitted)
	for _, r := range p.collected {
		out[r.index] = r.result
	}

	return out
}

// Shutdown stops the pool without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults.Do(func() { close(p.results) })
	<-p.collectDone
}
