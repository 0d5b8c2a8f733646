// Package output writes the report artifacts. Every file is first written
// into a private staging directory inside the output directory and only
// renamed into place once all of them succeeded.
package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Artifact is one output file. Write receives a buffered writer backed by
// the staged file.
type Artifact struct {
	Name  string
	Write func(w io.Writer) error
}

// Stage is a staging directory for one run.
type Stage struct {
	dir string
	tmp string

	// rename is os.Rename; tests replace it to fail mid-commit.
	rename func(oldpath, newpath string) error
}

// NewStage creates dir if needed and a fresh ".staging-*" directory in it.
func NewStage(dir string) (*Stage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.MkdirTemp(dir, ".staging-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Stage{dir: dir, tmp: tmp, rename: os.Rename}, nil
}

// Path returns the staged location of name.
func (s *Stage) Path(name string) string { return filepath.Join(s.tmp, name) }

// Write stages one artifact.
func (s *Stage) Write(a Artifact) (err error) {
	f, err := os.Create(s.Path(a.Name))
	if err != nil {
		return fmt.Errorf("create %s: %w", a.Name, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", a.Name, cerr)
		}
	}()

	bw := bufio.NewWriterSize(f, 64*1024)
	if err := a.Write(bw); err != nil {
		return fmt.Errorf("write %s: %w", a.Name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", a.Name, err)
	}
	return nil
}

// Commit renames the staged files into the output directory and removes the
// staging directory. Existing files with the same names are replaced. If any
// rename fails, files already moved in are removed and the replaced ones are
// restored, so the output directory is left as it was.
func (s *Stage) Commit(names []string) error {
	prev := filepath.Join(s.tmp, ".prev")
	if err := os.Mkdir(prev, 0o755); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	var moved, replaced []string
	rollback := func() {
		for _, n := range moved {
			_ = os.Remove(filepath.Join(s.dir, n))
		}
		for _, n := range replaced {
			_ = s.rename(filepath.Join(prev, n), filepath.Join(s.dir, n))
		}
	}

	for _, n := range names {
		dst := filepath.Join(s.dir, n)
		if _, err := os.Lstat(dst); err == nil {
			if err := s.rename(dst, filepath.Join(prev, n)); err != nil {
				rollback()
				return fmt.Errorf("commit %s: %w", n, err)
			}
			replaced = append(replaced, n)
		}
		if err := s.rename(s.Path(n), dst); err != nil {
			rollback()
			return fmt.Errorf("commit %s: %w", n, err)
		}
		moved = append(moved, n)
	}
	return os.RemoveAll(s.tmp)
}

// Abort discards everything staged.
func (s *Stage) Abort() error { return os.RemoveAll(s.tmp) }

// WriteAtomic stages arts with at most workers concurrent writers and
// commits them into dir only if every write succeeded. On failure nothing is
// committed and the staging directory is removed. Returns the committed file
// names in artifact order.
func WriteAtomic(ctx context.Context, dir string, arts []Artifact, workers int) ([]string, error) {
	if workers <= 0 {
		workers = 1
	}
	st, err := NewStage(dir)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, a := range arts {
		a := a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return st.Write(a)
		})
	}
	if err := g.Wait(); err != nil {
		_ = st.Abort()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		_ = st.Abort()
		return nil, err
	}

	names := make([]string, len(arts))
	for i, a := range arts {
		names[i] = a.Name
	}
	if err := st.Commit(names); err != nil {
		_ = st.Abort()
		return nil, err
	}
	return names, nil
}
