package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	bt "github.com/fwojciec/recode/bubbletea"
	"github.com/fwojciec/recode/goldmark"
)

type batchOptions struct {
	Dir         string // root the pattern is matched against
	Pattern     string // doublestar pattern, e.g. "**/*.py"
	OutDir      string // results mirror the source tree under this directory
	Instruction string
	Jobs        int
	Unfence     bool
}

type batchResult struct {
	Path string // relative to Dir
	Out  string // written file, empty on failure
	Err  error
}

// matchFiles returns the regular files under dir matching pattern, skipping
// anything inside skip.
func matchFiles(dir, pattern, skip string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	var files []string
	err := doublestar.GlobWalk(os.DirFS(dir), pattern, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		if skip != "" && (path == skip || strings.HasPrefix(path, skip+"/")) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return files, nil
}

// runBatch rewrites every matching file with up to opts.Jobs concurrent
// calls. A failure on one file does not stop the others. Results keep the
// order of the matched files.
func runBatch(ctx context.Context, rewrite bt.RewriteFunc, opts batchOptions) ([]batchResult, error) {
	skip := ""
	if rel, err := filepath.Rel(opts.Dir, opts.OutDir); err == nil && !strings.HasPrefix(rel, "..") && rel != "." {
		skip = filepath.ToSlash(rel)
	}
	files, err := matchFiles(opts.Dir, opts.Pattern, skip)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %q under %s", opts.Pattern, opts.Dir)
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	results := make([]batchResult, len(files))
	work := make(chan int)
	var wg sync.WaitGroup
	for range min(jobs, len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = rewriteFile(ctx, rewrite, opts, files[i])
			}
		}()
	}

feed:
	for i := range files {
		select {
		case work <- i:
		case <-ctx.Done():
			for j := i; j < len(files); j++ {
				results[j] = batchResult{Path: files[j], Err: ctx.Err()}
			}
			break feed
		}
	}
	close(work)
	wg.Wait()
	return results, nil
}

func rewriteFile(ctx context.Context, rewrite bt.RewriteFunc, opts batchOptions, rel string) batchResult {
	res := batchResult{Path: rel}
	data, err := os.ReadFile(filepath.Join(opts.Dir, filepath.FromSlash(rel)))
	if err != nil {
		res.Err = fmt.Errorf("read: %w", err)
		return res
	}
	code, err := rewrite(ctx, opts.Instruction, string(data))
	if err != nil {
		res.Err = err
		return res
	}
	if opts.Unfence {
		code, _ = goldmark.Unfence(code)
	}
	out := filepath.Join(opts.OutDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		res.Err = fmt.Errorf("write: %w", err)
		return res
	}
	if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
		res.Err = fmt.Errorf("write: %w", err)
		return res
	}
	res.Out = out
	return res
}

// reportBatch prints one line per file and returns an error if any failed.
func reportBatch(w io.Writer, results []batchResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(w, "ok   %s -> %s\n", r.Path, r.Out)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
