package authsvc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mkrupp/todo-auth/internal/infra/logging"
)

// ErrPoolClosed is returned when a job is submitted to a closed HashingPool.
var ErrPoolClosed = errors.New("hashing pool closed")

// HashingPoolConfig sizes the hashing worker pool.
type HashingPoolConfig struct {
	// Workers is the number of hashing goroutines; 0 means runtime.NumCPU()
	Workers int `env:"WORKERS" default:"0"`

	// QueueSize is the number of jobs that may wait for a worker
	QueueSize int `env:"QUEUE_SIZE" default:"64"`
}

type hashJob struct {
	ctx      context.Context //nolint:containedctx
	op       string
	password string
	hash     string
	result   chan hashResult // buffered, a worker never blocks on it
}

type hashResult struct {
	hash  string
	match bool
	err   error
}

// HashingPool runs a PasswordHasher on a fixed set of worker goroutines so
// that slow hashing never runs on the goroutine serving a request. Callers
// block until their result arrives or their context is done.
type HashingPool struct {
	hasher PasswordHasher
	jobs   chan hashJob
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	log    logging.Logger
}

// NewHashingPool starts the workers of a new HashingPool.
func NewHashingPool(hasher PasswordHasher, cfg HashingPoolConfig) *HashingPool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	queueSize := max(cfg.QueueSize, 0)

	p := &HashingPool{
		hasher: hasher,
		jobs:   make(chan hashJob, queueSize),
		quit:   make(chan struct{}),
		log:    logging.GetLogger("svc.authsvc.hashing_pool"),
	}

	p.wg.Add(workers)

	for range workers {
		go p.work()
	}

	p.log.Debug("hashing pool started", "workers", workers, "queueSize", queueSize)

	return p
}

// Hash computes a hash of password on a pool worker.
func (p *HashingPool) Hash(ctx context.Context, password string) (string, error) {
	res, err := p.submit(ctx, hashJob{op: opHash, password: password})
	if err != nil {
		return "", err
	}

	return res.hash, res.err
}

// Verify checks password against hash on a pool worker.
func (p *HashingPool) Verify(ctx context.Context, password, hash string) (bool, error) {
	res, err := p.submit(ctx, hashJob{op: opVerify, password: password, hash: hash})
	if err != nil {
		return false, err
	}

	return res.match, res.err
}

// Close stops the workers and waits for running jobs to finish.
// Queued jobs are abandoned; their callers receive ErrPoolClosed.
func (p *HashingPool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()
		p.log.Debug("hashing pool stopped")
	})
}

func (p *HashingPool) submit(ctx context.Context, job hashJob) (hashResult, error) {
	job.ctx = ctx
	job.result = make(chan hashResult, 1)

	select {
	case <-p.quit:
		return hashResult{}, ErrPoolClosed
	default:
	}

	select {
	case p.jobs <- job:
		hashingQueueLength.Inc()
	case <-p.quit:
		return hashResult{}, ErrPoolClosed
	case <-ctx.Done():
		return hashResult{}, fmt.Errorf("enqueue %s: %w", job.op, ctx.Err())
	}

	select {
	case res := <-job.result:
		return res, nil
	case <-p.quit:
		return hashResult{}, ErrPoolClosed
	case <-ctx.Done():
		// the worker may still finish; its result lands in the buffer and is dropped
		return hashResult{}, fmt.Errorf("await %s: %w", job.op, ctx.Err())
	}
}

func (p *HashingPool) work() {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		case job := <-p.jobs:
			hashingQueueLength.Dec()
			p.run(job)
		}
	}
}

func (p *HashingPool) run(job hashJob) {
	if job.ctx.Err() != nil {
		hashingJobs.WithLabelValues(job.op, resultCancelled).Inc()

		return
	}

	start := time.Now()

	var res hashResult

	switch job.op {
	case opHash:
		res.hash, res.err = p.hasher.Hash(job.password)
	case opVerify:
		res.match, res.err = p.hasher.Verify(job.password, job.hash)
	}

	hashingDuration.WithLabelValues(job.op).Observe(time.Since(start).Seconds())

	result := resultOK

	switch {
	case res.err != nil:
		result = resultError
	case job.op == opVerify && !res.match:
		result = resultMismatch
	}

	hashingJobs.WithLabelValues(job.op, result).Inc()

	job.result <- res
}
