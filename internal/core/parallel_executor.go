package core

import (
	"context"
	"runtime"
	"sync"

	"github.com/EmundoT/connected-lint/internal/types"
)

// maxAnalysisWorkers caps the worker pool regardless of configuration.
const maxAnalysisWorkers = 8

// AnalyzeFileFunc analyzes a single in-scope file.
type AnalyzeFileFunc func(ctx context.Context, path string) types.AnalysisOutcome

// ParallelExecutor analyzes files concurrently and hands outcomes back in input order.
type ParallelExecutor struct {
	maxWorkers int
}

// NewParallelExecutor creates an executor. workers < 0 means one worker per CPU.
func NewParallelExecutor(workers int) *ParallelExecutor {
	if workers < 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if workers > maxAnalysisWorkers {
		workers = maxAnalysisWorkers
	}
	return &ParallelExecutor{maxWorkers: workers}
}

// Workers returns the effective worker count.
func (p *ParallelExecutor) Workers() int {
	return p.maxWorkers
}

type analysisJob struct {
	index int
	path  string
}

type analysisResult struct {
	index   int
	outcome types.AnalysisOutcome
}

// Execute runs analyze for every path and calls deliver once per path, in input order, from the
// calling goroutine. Outcomes that finish early are buffered until their turn comes.
func (p *ParallelExecutor) Execute(ctx context.Context, paths []string, analyze AnalyzeFileFunc, deliver func(types.AnalysisOutcome)) {
	if len(paths) == 0 {
		return
	}

	workerCount := p.maxWorkers
	if workerCount > len(paths) {
		workerCount = len(paths)
	}

	jobs := make(chan analysisJob, len(paths))
	results := make(chan analysisResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- analysisResult{index: job.index, outcome: analyze(ctx, job.path)}
			}
		}()
	}

	for i, path := range paths {
		jobs <- analysisJob{index: i, path: path}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]types.AnalysisOutcome)
	next := 0
	for r := range results {
		pending[r.index] = r.outcome
		for {
			outcome, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			deliver(outcome)
			next++
		}
	}
}
