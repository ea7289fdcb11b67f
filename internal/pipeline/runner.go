package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/src-d/enry/v2"
)

// ErrNotPython rejects inputs the language classifier does not recognize
// as Python before any parsing happens.
var ErrNotPython = errors.New("input is not recognized as Python")

// ProcessFunc runs the pipeline on one file's content.
type ProcessFunc func(ctx context.Context, src []byte) (*Result, error)

// FileResult pairs one input file with its outcome.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// Runner processes many files concurrently with a bounded worker pool.
// Workers share only the immutable pattern catalog, so no further
// synchronization is needed.
type Runner struct {
	workers int
}

// NewRunner builds a runner; workers <= 0 means one per CPU.
func NewRunner(workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Runner{workers: workers}
}

// Run processes the files and returns one result per path, sorted by path.
// Per-file failures land in the result; only ctx cancellation stops the
// whole batch early.
func (r *Runner) Run(ctx context.Context, paths []string, process ProcessFunc) []FileResult {
	jobs := make(chan string)
	out := make(chan FileResult)

	var wg sync.WaitGroup

	for range r.workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for path := range jobs {
				out <- processFile(ctx, path, process)
			}
		}()
	}

	go func() {
		defer close(jobs)

		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]FileResult, 0, len(paths))
	for res := range out {
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	return results
}

// processFile loads, sanity-checks and processes one file.
func processFile(ctx context.Context, path string, process ProcessFunc) FileResult {
	res := FileResult{Path: path}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)

		return res
	}

	if err := checkLanguage(path, src); err != nil {
		res.Err = err

		return res
	}

	res.Result, res.Err = process(ctx, src)
	if res.Err != nil {
		res.Err = fmt.Errorf("%s: %w", path, res.Err)
	}

	return res
}

// checkLanguage rejects files the classifier attributes to some other
// language. Binary blobs renamed to .py fail here instead of in the parser.
func checkLanguage(path string, content []byte) error {
	if enry.IsBinary(content) {
		return fmt.Errorf("%w: %s is binary", ErrNotPython, path)
	}

	lang := enry.GetLanguage(filepath.Base(path), content)
	if lang != "" && lang != "Python" {
		return fmt.Errorf("%w: %s looks like %s", ErrNotPython, path, lang)
	}

	return nil
}
