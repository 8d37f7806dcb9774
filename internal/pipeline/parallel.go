// Package pipeline applies the per-file stages to many files on a bounded
// worker pool.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
)

// ErrSkipped is returned by a task whose output already exists.
var ErrSkipped = errors.New("output exists, skipping")

// Result holds the outcome of one file's task.
type Result[T any] struct {
	Seq     int
	Path    string
	Value   T
	Skipped bool
	Err     error
}

// Run calls task for every path using a pool of workers and returns one
// Result per path in input order. A failing or panicking task does not stop
// the others; the returned error combines every per-file failure.
// If workers is 0, runtime.NumCPU() is used.
func Run[T any](paths []string, workers int, task func(path string) (T, error)) ([]Result[T], error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result[T], len(paths))
	p := pool.New().WithMaxGoroutines(workers)

	for i, path := range paths {
		p.Go(func() {
			results[i] = runOne(i, path, task)
		})
	}
	p.Wait()

	var err error
	for _, r := range results {
		if r.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.Path, r.Err))
		}
	}
	return results, err
}

// OutputConflictError is returned for an input whose output path is shared
// with another input of the same run.
type OutputConflictError struct {
	Output string
	Inputs []string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("output %s would be written by %d inputs: %s",
		e.Output, len(e.Inputs), strings.Join(e.Inputs, ", "))
}

// RunExclusive is Run for tasks whose output path for an input is given by
// output. Inputs that share an output path fail with *OutputConflictError
// before their task runs; the other inputs run normally.
func RunExclusive[T any](paths []string, workers int, output func(path string) string, task func(path string) (T, error)) ([]Result[T], error) {
	byOutput := make(map[string][]string, len(paths))
	for _, path := range paths {
		out := filepath.Clean(output(path))
		byOutput[out] = append(byOutput[out], path)
	}

	return Run(paths, workers, func(path string) (T, error) {
		out := filepath.Clean(output(path))
		if inputs := byOutput[out]; len(inputs) > 1 {
			var zero T
			return zero, &OutputConflictError{Output: out, Inputs: inputs}
		}
		return task(path)
	})
}

func runOne[T any](seq int, path string, task func(string) (T, error)) (r Result[T]) {
	r = Result[T]{Seq: seq, Path: path}
	defer func() {
		if p := recover(); p != nil {
			r.Err = fmt.Errorf("panic: %v", p)
		}
	}()

	v, err := task(path)
	switch {
	case errors.Is(err, ErrSkipped):
		r.Skipped = true
	case err != nil:
		r.Err = err
	default:
		r.Value = v
	}
	return r
}
