package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/il"
)

// methodVisitor handles one decoded method. index is the method's position
// in its file. Visitors run concurrently for different files.
type methodVisitor func(ctx context.Context, path string, index int, body *il.MethodBody) error

// methodBatch reads method files in parallel and hands every method that
// passes the filter to a visitor
type methodBatch struct {
	reader   domain.MethodReader
	progress domain.ProgressManager
	log      zerolog.Logger

	maxGoroutines int
	timeout       time.Duration
	filter        func(name string) bool
}

// batchOutcome collects what happened during a batch
type batchOutcome struct {
	files    int
	methods  int
	failures []error
	warnings []string

	// failedMethods counts visitor failures only; unreadable files are in
	// failures but not here.
	failedMethods int
}

// run visits every method of paths. File level failures and visitor
// failures are recorded in the outcome; only a timeout or cancellation of
// the whole batch is returned as an error.
func (b *methodBatch) run(ctx context.Context, paths []string, visit methodVisitor) (*batchOutcome, error) {
	var (
		mu      sync.Mutex
		outcome = &batchOutcome{files: len(paths)}
		methods *multierror.Error
	)

	progress := b.progress
	if progress == nil {
		progress = noOpProgressManager{}
	}
	progress.Initialize(len(paths))
	progress.Start()

	tasks := make([]domain.ExecutableTask, 0, len(paths))
	for _, path := range paths {
		path := path
		tasks = append(tasks, NewSimpleTask(path, true, func(ctx context.Context) (interface{}, error) {
			defer progress.Increment(1)

			bodies, err := b.reader.ReadMethods(path)
			if err != nil {
				return nil, err
			}

			visited := 0
			for i, body := range bodies {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if b.filter != nil && !b.filter(body.Name) {
					continue
				}
				visited++
				if err := visit(ctx, path, i, body); err != nil {
					mu.Lock()
					methods = multierror.Append(methods, err)
					mu.Unlock()
				}
			}

			mu.Lock()
			outcome.methods += visited
			if len(bodies) == 0 {
				outcome.warnings = append(outcome.warnings, "["+path+"] no methods found in file")
			}
			mu.Unlock()
			return nil, nil
		}))
	}

	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(b.maxGoroutines)
	executor.SetTimeout(b.timeout)

	err := executor.Execute(ctx, tasks)
	progress.Complete(err == nil)

	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		var merr *multierror.Error
		if !errors.As(err, &merr) {
			return nil, err
		}
		outcome.failures = append(outcome.failures, merr.Errors...)
	}
	if methods != nil {
		outcome.failures = append(outcome.failures, methods.Errors...)
		outcome.failedMethods = len(methods.Errors)
	}

	for _, f := range outcome.failures {
		b.log.Warn().Err(f).Msg("method skipped")
	}

	sort.SliceStable(outcome.failures, func(i, j int) bool {
		return outcome.failures[i].Error() < outcome.failures[j].Error()
	})
	sort.Strings(outcome.warnings)
	return outcome, nil
}

// errorStrings renders failures for a response
func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
