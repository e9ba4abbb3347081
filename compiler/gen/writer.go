package gen

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path"
	"runtime"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"
)

// Writer persists artifacts to a filesystem with parallel writes.
// Files whose content is unchanged are left untouched, so their
// modification time keeps build steps keyed on freshness idle.
type Writer struct {
	fs      billy.Filesystem
	workers int

	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterMetrics counts the outcome of writes.
type WriterMetrics struct {
	Written   int
	Unchanged int
	Bytes     int64
}

// NewWriter returns a Writer over fsys.
func NewWriter(fsys billy.Filesystem) *Writer {
	return &Writer{fs: fsys, workers: runtime.GOMAXPROCS(0)}
}

// WithWorkers sets the number of parallel writes.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns a snapshot of the write counters.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Write persists arts and returns the number of files whose content
// changed. Every artifact is attempted; failures are joined.
func (w *Writer) Write(ctx context.Context, arts []*Artifact) (int, error) {
	var (
		eg      errgroup.Group
		mu      sync.Mutex
		errs    []error
		written int
	)
	eg.SetLimit(w.workers)
	for _, a := range arts {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed, err := w.writeFile(a)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else if changed {
				written++
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return written, err
	}
	return written, errors.Join(errs...)
}

func (w *Writer) writeFile(a *Artifact) (bool, error) {
	name := a.Path()
	old, err := util.ReadFile(w.fs, name)
	switch {
	case err == nil && bytes.Equal(old, a.Content):
		w.count(false, 0)
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, NewFileSystemError("read", name, err)
	}
	if dir := path.Dir(name); dir != "." {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return false, NewFileSystemError("create directory", dir, err)
		}
	}
	if err := util.WriteFile(w.fs, name, a.Content, 0o644); err != nil {
		return false, NewFileSystemError("write", name, err)
	}
	w.count(true, len(a.Content))
	return true, nil
}

func (w *Writer) count(written bool, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if written {
		w.metrics.Written++
		w.metrics.Bytes += int64(n)
	} else {
		w.metrics.Unchanged++
	}
}
