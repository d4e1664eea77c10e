package parallel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nibzard/taskmd/internal/todo"
)

// FileResult represents the result of parsing one document.
type FileResult struct {
	Path     string
	Doc      *todo.Document
	Error    error
	Duration time.Duration

	index int
}

// ParseFunc parses the document at path.
type ParseFunc func(ctx context.Context, path string) (*todo.Document, error)

// WorkerPool manages concurrent document parsing with bounded concurrency.
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	submitted  int
	results    []FileResult
	errors     []error
	failFast   bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool with bounded concurrency.
// If maxWorkers is 0, unlimited workers are allowed (bounded by submitted files).
// If failFast is true, the context will be cancelled on the first error.
func NewWorkerPool(ctx context.Context, maxWorkers int, failFast bool) *WorkerPool {
	if maxWorkers < 0 {
		maxWorkers = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		failFast:   failFast,
		ctx:        ctx,
		cancel:     cancel,
		results:    make([]FileResult, 0),
	}
}

// Submit schedules path for parsing. Work submitted after cancellation is
// skipped and produces no result.
func (p *WorkerPool) Submit(path string, fn ParseFunc) {
	select {
	case <-p.ctx.Done():
		return
	default:
	}

	p.mu.Lock()
	index := p.submitted
	p.submitted++
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.maxWorkers > 0 {
			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-p.ctx.Done():
				return
			}
		}

		// Check if we should still run (fail-fast or cancelled)
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		start := time.Now()
		doc, err := fn(p.ctx, path)
		duration := time.Since(start)

		result := FileResult{
			Path:     path,
			Doc:      doc,
			Error:    err,
			Duration: duration,
			index:    index,
		}

		p.mu.Lock()
		defer p.mu.Unlock()

		p.results = append(p.results, result)
		if err != nil {
			p.errors = append(p.errors, fmt.Errorf("%s: %w", path, err))
			if p.failFast {
				p.cancel()
			}
		}
	}()
}

// Wait waits for all submitted work and returns the results in submission
// order. With fail-fast enabled some files may have no result.
func (p *WorkerPool) Wait() ([]FileResult, []error) {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancel()

	results := make([]FileResult, len(p.results))
	copy(results, p.results)
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	errors := make([]error, len(p.errors))
	copy(errors, p.errors)

	return results, errors
}

// CheckFiles parses every path with fn using at most workers goroutines.
// The returned slice follows the order of paths; files skipped after a
// fail-fast cancellation are reported with the context error.
func CheckFiles(ctx context.Context, paths []string, workers int, failFast bool, fn ParseFunc) []FileResult {
	pool := NewWorkerPool(ctx, workers, failFast)
	for _, path := range paths {
		pool.Submit(path, fn)
	}
	done, _ := pool.Wait()

	byIndex := make(map[int]FileResult, len(done))
	for _, r := range done {
		byIndex[r.index] = r
	}

	// Submit stops accepting work once the pool is cancelled, so accepted
	// files are always a prefix of paths.
	out := make([]FileResult, len(paths))
	for i, path := range paths {
		if r, ok := byIndex[i]; ok {
			out[i] = r
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = FileResult{Path: path, Error: fmt.Errorf("skipped: %w", err), index: i}
	}
	return out
}

// LoadFunc adapts load into a ParseFunc that skips files once ctx is done.
func LoadFunc(load func(path string) (*todo.Document, error)) ParseFunc {
	return func(ctx context.Context, path string) (*todo.Document, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return load(path)
	}
}
