package queue

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Handler executes one task to completion. It must not panic across jobs;
// the pool recovers so one bad job cannot take a worker down.
type Handler func(ctx context.Context, task Task)

// Pool runs a fixed set of workers that pull tasks off a shared queue.
// Each worker processes one job at a time, straight through.
type Pool struct {
	queue    Queue
	handler  Handler
	workers  int
	wg       sync.WaitGroup
	shutdown context.CancelFunc
}

// NewPool builds a worker pool; Start launches the workers.
func NewPool(q Queue, workers int, handler Handler) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{queue: q, handler: handler, workers: workers}
}

// Start launches the workers. They run until Stop is called.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.shutdown = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Printf("Worker pool started with %d workers", p.workers)
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	if p.shutdown != nil {
		p.shutdown()
	}
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, worker int) {
	defer p.wg.Done()

	for {
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
				return
			}
			log.Printf("Worker %d: dequeue error: %v", worker, err)
			continue
		}

		p.process(ctx, worker, task)
	}
}

func (p *Pool) process(ctx context.Context, worker int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d: panic processing job %s: %v", worker, task.JobID, r)
		}
	}()

	p.handler(ctx, task)
}
