// Package indexer validates post files and writes their metadata into a
// database.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/post"
	"github.com/SeanoChang/learning-blogs/internal/store"
)

// DefaultWorkers is the parse concurrency when none is configured.
const DefaultWorkers = 4

// ErrDuplicateSlugs is returned when two posts claim the same slug. Nothing
// is written in that case.
var ErrDuplicateSlugs = errors.New("duplicate slugs")

// DuplicateSlugsError lists each repeated slug with the ids that use it.
type DuplicateSlugsError struct {
	Slugs map[string][]string
}

func (e *DuplicateSlugsError) Error() string {
	slugs := make([]string, 0, len(e.Slugs))
	for s := range e.Slugs {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	parts := make([]string, len(slugs))
	for i, s := range slugs {
		parts[i] = fmt.Sprintf("%q used by %s", s, strings.Join(e.Slugs[s], ", "))
	}
	return fmt.Sprintf("%s: %s", ErrDuplicateSlugs, strings.Join(parts, "; "))
}

func (e *DuplicateSlugsError) Unwrap() error { return ErrDuplicateSlugs }

// Failure is a file that could not be indexed.
type Failure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Summary reports one indexing run.
type Summary struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Upserted  int       `json:"upserted"`
	Failures  []Failure `json:"failures,omitempty"`
}

// OK reports whether every file was indexed.
func (s Summary) OK() bool { return s.Failed == 0 }

// Indexer scans the top level of a directory of post files.
type Indexer struct {
	fsys      fs.FS
	sink      store.Writer
	log       *slog.Logger
	summarize store.Summarizer
	workers   int
	backoff   func(attempt int) time.Duration
	dryRun    bool
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithWorkers sets the parse concurrency.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithSummarizer generates excerpts for posts that lack one.
func WithSummarizer(fn store.Summarizer) Option {
	return func(ix *Indexer) { ix.summarize = fn }
}

// WithBackoff replaces the retry delay schedule.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(ix *Indexer) { ix.backoff = fn }
}

// WithDryRun parses and validates without writing.
func WithDryRun(dry bool) Option {
	return func(ix *Indexer) { ix.dryRun = dry }
}

// New returns an indexer writing to sink.
func New(fsys fs.FS, sink store.Writer, log *slog.Logger, opts ...Option) *Indexer {
	ix := &Indexer{
		fsys:    fsys,
		sink:    sink,
		log:     log,
		workers: DefaultWorkers,
		backoff: Backoff,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

type parsed struct {
	file string
	meta post.Metadata
	err  error
}

// Run parses every post file, rejects the batch on duplicate slugs and
// upserts the valid posts. Files that fail validation are reported in the
// summary and skipped. A sink failure stops the run.
func (ix *Indexer) Run(ctx context.Context) (Summary, error) {
	files, err := ix.scan()
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Total: len(files)}
	if len(files) == 0 {
		ix.log.Info("no markdown files found")
		return sum, nil
	}
	ix.log.Info("indexing posts", "files", len(files), "workers", ix.workers)

	results := ix.parseAll(ctx, files)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	var posts []post.Metadata
	for _, r := range results {
		if r.err != nil {
			ix.log.Error("invalid post", "file", r.file, "error", r.err)
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{File: r.file, Error: r.err.Error()})
			continue
		}
		ix.log.Debug("parsed post", "file", r.file, "slug", r.meta.Slug)
		sum.Succeeded++
		posts = append(posts, r.meta)
	}

	if dups := duplicateSlugs(posts); len(dups) > 0 {
		return sum, &DuplicateSlugsError{Slugs: dups}
	}
	if ix.dryRun {
		ix.log.Info("dry run, skipping upsert", "posts", len(posts))
		return sum, nil
	}

	for _, m := range posts {
		if err := ix.upsert(ctx, m); err != nil {
			return sum, fmt.Errorf("upsert %s: %w", m.Slug, err)
		}
		sum.Upserted++
		ix.log.Info("upserted post", "slug", m.Slug)
	}

	ix.log.Info("indexing complete",
		"total", sum.Total, "succeeded", sum.Succeeded, "failed", sum.Failed, "upserted", sum.Upserted)
	return sum, nil
}

func (ix *Indexer) scan() ([]string, error) {
	entries, err := fs.ReadDir(ix.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ix.log.Warn("posts directory not found")
			return nil, nil
		}
		return nil, fmt.Errorf("read posts dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && post.IsSupported(e.Name()) {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// parseAll parses files with bounded concurrency. Results keep file order.
func (ix *Indexer) parseAll(ctx context.Context, files []string) []parsed {
	results := make([]parsed, len(files))
	done := make(chan struct{}, len(files))
	sem := make(chan struct{}, ix.workers)

	for i, name := range files {
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				done <- struct{}{}
			}()
			if err := ctx.Err(); err != nil {
				results[i] = parsed{file: name, err: err}
				return
			}
			m, err := ix.parseFile(ctx, name)
			results[i] = parsed{file: name, meta: m, err: err}
		}()
	}
	for range files {
		<-done
	}
	return results
}

func (ix *Indexer) parseFile(ctx context.Context, name string) (post.Metadata, error) {
	src, err := fs.ReadFile(ix.fsys, name)
	if err != nil {
		return post.Metadata{}, fmt.Errorf("read: %w", err)
	}
	fm, body, err := post.ParseFrontmatter(src)
	if err != nil {
		return post.Metadata{}, err
	}
	if strings.TrimSpace(fm.Excerpt) == "" && ix.summarize != nil && len(body) > 0 {
		fm.Excerpt, _ = ix.summarize(ctx, string(body))
	}
	if err := fm.Validate(); err != nil {
		return post.Metadata{}, err
	}
	return post.FromFrontmatter(post.TrimExt(name), fm, string(body)).Metadata, nil
}

func (ix *Indexer) upsert(ctx context.Context, m post.Metadata) error {
	log := ix.log.With("slug", m.Slug, "id", m.ID)
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = ix.sink.Upsert(ctx, m)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable upsert error", "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(ix.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// duplicateSlugs maps each slug used more than once to its post ids.
func duplicateSlugs(posts []post.Metadata) map[string][]string {
	bySlug := make(map[string][]string, len(posts))
	for _, m := range posts {
		bySlug[m.Slug] = append(bySlug[m.Slug], m.ID)
	}
	dups := make(map[string][]string)
	for slug, ids := range bySlug {
		if len(ids) > 1 {
			dups[slug] = slices.Clone(ids)
		}
	}
	return dups
}
