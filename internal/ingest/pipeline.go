package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TobiSchelling/bizwire/internal/database"
	"github.com/TobiSchelling/bizwire/internal/dataset"
	"github.com/TobiSchelling/bizwire/internal/logger"
	"github.com/TobiSchelling/bizwire/internal/record"
)

// Fetcher returns the current headlines.
type Fetcher interface {
	TopHeadlines(ctx context.Context) ([]record.Article, error)
}

// History stores a summary of each finished cycle.
type History interface {
	InsertCycle(ctx context.Context, c database.Cycle) (int64, error)
}

// Publisher copies the dataset somewhere else after it changes.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

// Outcomes recorded for cycles that never reached a merge.
const (
	OutcomeFailed     = "failed"
	OutcomeNoArticles = "no_articles"
)

// StepResult holds the result of a single cycle step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of one fetch/shape/merge cycle.
type Result struct {
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Fetched    int
	Records    []record.Record
	Merge      *dataset.MergeResult
	Published  string
	Steps      []StepResult
	// Err joins every step error. A cycle with Err set still leaves the
	// dataset consistent.
	Err error
}

// Outcome names what the cycle did, for history and status output.
func (r *Result) Outcome() string {
	if r.Merge != nil {
		return string(r.Merge.Outcome)
	}
	if r.Err != nil {
		return OutcomeFailed
	}
	return OutcomeNoArticles
}

func (r *Result) add(step StepResult) {
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		r.Err = errors.Join(r.Err, fmt.Errorf("%s: %w", step.Name, step.Err))
	}
}

// Pipeline runs fetch -> shape -> merge cycles against one dataset.
type Pipeline struct {
	fetcher   Fetcher
	repo      dataset.Repository
	history   History
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHistory records every cycle in h.
func WithHistory(h History) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithPublisher publishes the dataset after each write.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a new pipeline.
func New(fetcher Fetcher, repo dataset.Repository, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		repo:    repo,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce performs a single cycle. Failures are captured on the result and
// never leave the dataset partially written.
func (p *Pipeline) RunOnce(ctx context.Context) *Result {
	r := &Result{StartedAt: p.now()}
	defer func() {
		r.FinishedAt = p.now()
		p.recordHistory(ctx, r)
	}()

	p.logger.Info("fetching business news")
	articles, err := p.fetcher.TopHeadlines(ctx)
	if err != nil {
		p.logger.Error("fetch failed", "err", err)
		r.add(StepResult{Name: "Fetch", Err: err})
		return r
	}
	r.Fetched = len(articles)
	r.add(StepResult{Name: "Fetch", Summary: fmt.Sprintf("Fetched %d articles", len(articles))})

	if len(articles) == 0 {
		p.logger.Info("no news articles found")
		return r
	}

	r.Records = record.ShapeAll(articles)
	r.add(StepResult{Name: "Shape", Summary: fmt.Sprintf("Shaped %d records", len(r.Records))})

	merge, err := dataset.Merge(ctx, p.repo, r.Records)
	if err != nil {
		p.logger.Error("merge failed", "dataset", p.repo.Location(), "err", err)
		r.add(StepResult{Name: "Merge", Err: err})
		return r
	}
	r.Merge = merge
	r.add(StepResult{Name: "Merge", Summary: mergeSummary(merge)})
	p.logger.Info("merge complete",
		"outcome", merge.Outcome,
		"added", merge.Added,
		"skipped", merge.Skipped,
		"total", merge.Total,
	)

	if p.publisher != nil && merge.Outcome.Wrote() {
		uri, err := p.publisher.Publish(ctx, p.repo.Location())
		if err != nil {
			p.logger.Warn("publish failed", "err", err)
			r.add(StepResult{Name: "Publish", Err: err})
			return r
		}
		r.Published = uri
		r.add(StepResult{Name: "Publish", Summary: "Uploaded to " + uri})
	}

	return r
}

// DryRun fetches and shapes the current headlines and reports what a merge
// would add, without writing anything.
func (p *Pipeline) DryRun(ctx context.Context) *Result {
	r := &Result{StartedAt: p.now(), DryRun: true}
	defer func() { r.FinishedAt = p.now() }()

	articles, err := p.fetcher.TopHeadlines(ctx)
	if err != nil {
		r.add(StepResult{Name: "Fetch", Err: err})
		return r
	}
	r.Fetched = len(articles)
	r.add(StepResult{Name: "Fetch", Summary: fmt.Sprintf("[dry-run] Fetched %d articles", len(articles))})
	if len(articles) == 0 {
		return r
	}

	r.Records = record.ShapeAll(articles)

	existing, err := p.repo.Load(ctx)
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		r.Merge = &dataset.MergeResult{
			Outcome: dataset.OutcomeCreated,
			Added:   len(r.Records),
			Total:   len(r.Records),
			New:     r.Records,
		}
	case err != nil:
		r.add(StepResult{Name: "Merge", Err: err})
		return r
	default:
		toAdd := dataset.Unseen(existing, r.Records)
		r.Merge = &dataset.MergeResult{
			Outcome:  dataset.OutcomeNoNew,
			Existing: len(existing),
			Added:    len(toAdd),
			Skipped:  len(r.Records) - len(toAdd),
			Total:    len(existing) + len(toAdd),
			New:      toAdd,
		}
		if len(toAdd) > 0 {
			r.Merge.Outcome = dataset.OutcomeAppended
		}
	}
	r.add(StepResult{Name: "Merge", Summary: "[dry-run] " + mergeSummary(r.Merge)})
	return r
}

func mergeSummary(m *dataset.MergeResult) string {
	switch m.Outcome {
	case dataset.OutcomeCreated:
		return fmt.Sprintf("%s (%d rows)", m.Outcome.Message(), m.Total)
	case dataset.OutcomeAppended:
		return fmt.Sprintf("%s (%d added, %d already present, %d total)", m.Outcome.Message(), m.Added, m.Skipped, m.Total)
	}
	return m.Outcome.Message()
}

func (p *Pipeline) recordHistory(ctx context.Context, r *Result) {
	if p.history == nil {
		return
	}
	c := database.Cycle{
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339),
		Fetched:    r.Fetched,
		Outcome:    r.Outcome(),
	}
	if r.Merge != nil {
		c.Added = r.Merge.Added
	}
	if r.Err != nil {
		msg := r.Err.Error()
		c.Error = &msg
	}
	// Use a fresh context so a cancelled cycle is still recorded.
	if _, err := p.history.InsertCycle(context.WithoutCancel(ctx), c); err != nil {
		p.logger.Warn("recording cycle failed", "err", err)
	}
}
