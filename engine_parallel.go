package reflector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	goruntime "runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/store"
)

// Finding is a diagnostic with its 0-based start line and column.
type Finding struct {
	lint.Diagnostic
	Line int `json:"line"`
	Col  int `json:"col"`
}

// FileResult is the lint outcome for one file.
type FileResult struct {
	Path     string    `json:"path"`
	Language string    `json:"language"`
	Findings []Finding `json:"findings"`
	// Cached is true when the findings came from the store unchanged.
	Cached bool   `json:"cached"`
	Source []byte `json:"-"`
}

// workItem holds everything a lint worker needs.
type workItem struct {
	index int
	path  string
	abs   string
	lang  string
	src   []byte
	hash  string
}

// LintFiles lints paths and returns one result per supported path, in
// input order. It runs in three phases:
//
//	Phase A (serial):   read, hash and look up each file in the cache.
//	Phase B (parallel): parse, resolve and lint the files that changed.
//	Phase C (serial):   commit the new results to the cache in one batch.
//
// Unsupported and missing paths are skipped.
func (e *Engine) LintFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	// ---- Phase A ----
	var results []FileResult
	var items []workItem
	for _, path := range paths {
		l, err := e.languageFor(path)
		if err != nil {
			continue
		}
		src, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			// Listed but gone, e.g. deleted yet still tracked by git.
			e.logger.Debug("lint.skip", "path", path, "reason", "missing")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reflector: read %s: %w", path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("reflector: %w", err)
		}
		hash := store.ContentHash(src)

		idx := len(results)
		results = append(results, FileResult{Path: path, Language: l.Name, Source: src})

		if e.store != nil {
			cached, err := e.store.CachedResult(abs, hash)
			if err != nil {
				return nil, fmt.Errorf("reflector: %w", err)
			}
			if cached != nil {
				results[idx].Cached = true
				results[idx].Findings = findingsFromStore(cached.Diagnostics)
				e.logger.Debug("lint.file", "path", path, "cached", true, "diagnostics", len(cached.Diagnostics))
				continue
			}
		}
		items = append(items, workItem{index: idx, path: path, abs: abs, lang: l.Name, src: src, hash: hash})
	}

	// ---- Phase B ----
	parallel := e.useParallel && len(items) > 1
	batch := store.NewBatchedStore()
	// Serial runs write through; parallel runs share one SQLite commit.
	var sink store.ResultSink = batch
	if !parallel && e.store != nil {
		sink = e.store
	}
	lintOne := func(ctx context.Context, item workItem) error {
		findings, err := e.lintItem(ctx, item)
		if err != nil {
			return err
		}
		results[item.index].Findings = findings
		return sink.SaveResult(storeResult(item, findings))
	}

	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workerCount(len(items)))
		for _, item := range items {
			g.Go(func() error { return lintOne(gctx, item) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, item := range items {
			if err := lintOne(ctx, item); err != nil {
				return nil, err
			}
		}
	}

	// ---- Phase C ----
	if e.store != nil && batch.Len() > 0 {
		if err := e.store.CommitBatch(batch); err != nil {
			return nil, fmt.Errorf("reflector: %w", err)
		}
	}
	return results, nil
}

func (e *Engine) workerCount(items int) int {
	n := e.workers
	if n <= 0 {
		n = goruntime.NumCPU()
	}
	return max(1, min(n, items))
}

func (e *Engine) lintItem(ctx context.Context, item workItem) ([]Finding, error) {
	start := time.Now()
	a, err := e.Analyze(ctx, item.path, item.src)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	findings := a.Findings()
	e.logger.Debug("lint.file", "path", item.path, "language", item.lang,
		"diagnostics", len(findings), "elapsed", time.Since(start))
	return findings, nil
}

func storeResult(item workItem, findings []Finding) *store.Result {
	r := &store.Result{File: store.File{
		Path:       item.abs,
		Language:   item.lang,
		Hash:       item.hash,
		LastLinted: time.Now().UTC().Truncate(time.Second),
	}}
	for _, f := range findings {
		r.Diagnostics = append(r.Diagnostics, store.Diagnostic{
			StartByte: f.From,
			EndByte:   f.To,
			StartLine: f.Line,
			StartCol:  f.Col,
			Severity:  f.Severity.String(),
			Code:      f.Code,
			Message:   f.Message,
			Actions:   f.Actions,
		})
	}
	return r
}

func findingsFromStore(diags []store.Diagnostic) []Finding {
	out := make([]Finding, 0, len(diags))
	for _, d := range diags {
		sev, err := lint.ParseSeverity(d.Severity)
		if err != nil {
			sev = lint.SeverityError
		}
		out = append(out, Finding{
			Diagnostic: lint.Diagnostic{
				From:     d.StartByte,
				To:       d.EndByte,
				Severity: sev,
				Code:     d.Code,
				Message:  d.Message,
				Actions:  d.Actions,
			},
			Line: d.StartLine,
			Col:  d.StartCol,
		})
	}
	return out
}

// ErrNoCache means the engine was built with the lint cache disabled.
var ErrNoCache = errors.New("lint cache disabled")

// CachedFindings reports what the cache recorded for each file at its
// last lint, without reading any source. A non-empty code keeps only
// diagnostics with that code and a non-empty language keeps only files of
// that language. Files left without findings are omitted.
func (e *Engine) CachedFindings(code, language string) ([]FileResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("reflector: %w", ErrNoCache)
	}
	var files []*store.File
	var err error
	if language != "" {
		files, err = e.store.FilesByLanguage(language)
	} else {
		files, err = e.store.Files()
	}
	if err != nil {
		return nil, fmt.Errorf("reflector: %w", err)
	}

	var byFile map[int64][]*store.Diagnostic
	if code != "" {
		diags, err := e.store.DiagnosticsByCode(code)
		if err != nil {
			return nil, fmt.Errorf("reflector: %w", err)
		}
		byFile = make(map[int64][]*store.Diagnostic)
		for _, d := range diags {
			byFile[d.FileID] = append(byFile[d.FileID], d)
		}
	}

	var out []FileResult
	for _, f := range files {
		diags, ok := byFile[f.ID]
		if !ok && byFile == nil {
			if diags, err = e.store.DiagnosticsByFile(f.ID); err != nil {
				return nil, fmt.Errorf("reflector: %w", err)
			}
		}
		if len(diags) == 0 {
			continue
		}
		vals := make([]store.Diagnostic, len(diags))
		for i, d := range diags {
			vals[i] = *d
		}
		out = append(out, FileResult{
			Path:     f.Path,
			Language: f.Language,
			Findings: findingsFromStore(vals),
			Cached:   true,
		})
	}
	return out, nil
}
