// Package feed builds the inbox: it merges the locally stored notification
// lists of the signed-in identity and groups them into relative-time
// buckets.
package feed

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/inbox/internal/identity"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

// Aggregator produces the bucketed inbox for the current identity. It only
// reads from the store.
type Aggregator struct {
	loader     store.Loader
	identity   identity.Provider
	categories []model.Category
	now        func() time.Time
	weekStart  time.Weekday
	logger     *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithWeekStart sets the first day of the calendar week.
func WithWeekStart(d time.Weekday) Option {
	return func(a *Aggregator) { a.weekStart = d }
}

// WithCategories overrides the category list (defaults to model.Categories).
func WithCategories(cs []model.Category) Option {
	return func(a *Aggregator) { a.categories = cs }
}

// WithLogger sets the logger for skipped categories and records.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Aggregator reading from loader for whoever ids reports.
func New(loader store.Loader, ids identity.Provider, opts ...Option) *Aggregator {
	a := &Aggregator{
		loader:     loader,
		identity:   ids,
		categories: model.Categories,
		now:        time.Now,
		weekStart:  time.Sunday,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load returns the non-empty buckets for the signed-in identity.
//
// With nobody signed in the result is empty and the store is not touched.
// A category that fails to load, and a record with an unreadable
// timestamp, are logged and left out. The only error returned is ctx's,
// when it is cancelled before the reads finish; no partial buckets are
// returned in that case.
func (a *Aggregator) Load(ctx context.Context) ([]model.Bucket, error) {
	id, ok, err := a.identity.Current(ctx)
	if err != nil {
		a.logger.Warn("identity unavailable, showing empty inbox",
			slog.String("error", err.Error()))
		return []model.Bucket{}, nil
	}
	if !ok {
		return []model.Bucket{}, nil
	}

	notes, err := a.collect(ctx, id)
	if err != nil {
		return nil, err
	}

	buckets, skipped := Bucketize(notes, a.now(), a.weekStart)
	for _, n := range skipped {
		a.logger.Warn("skipping notification with unreadable timestamp",
			slog.String("id", n.ID),
			slog.String("category", n.Category.String()),
			slog.String("received_at", n.ReceivedAt))
	}

	a.logger.Debug("inbox aggregated",
		slog.String("identity", id),
		slog.Int("records", len(notes)),
		slog.Int("buckets", len(buckets)))

	return buckets, nil
}

// collect reads every category concurrently and concatenates the results
// in category order. A failed read only drops its category; cancellation
// stops the remaining reads and fails the whole load.
func (a *Aggregator) collect(ctx context.Context, id string) ([]model.Notification, error) {
	results := make([][]model.Notification, len(a.categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range a.categories {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			list, err := a.loader.LoadRaw(gctx, id, c)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.logger.Warn("skipping notification category",
					slog.String("category", c.String()),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Every read may have finished before the caller gave up.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	notes := make([]model.Notification, 0, total)
	for _, r := range results {
		notes = append(notes, r...)
	}
	return notes, nil
}
