// Package ingest loads external food safety data into the store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// RecallFetcher returns recently reported recalls.
type RecallFetcher interface {
	FetchRecent(ctx context.Context, days, limit int) ([]*storage.Recall, error)
}

// RecallStore persists recalls keyed by recall number.
type RecallStore interface {
	Upsert(ctx context.Context, recall *storage.Recall) (bool, error)
}

// Options controls one ingestion run.
type Options struct {
	Days  int
	Limit int
	// OnProgress is called after each record with the processed and total counts.
	OnProgress func(done, total int)
}

// Result summarizes an ingestion run.
type Result struct {
	JobID       uuid.UUID
	Fetched     int
	Created     int
	Updated     int
	Failed      int
	Errors      []string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// RecallPipeline copies openFDA recalls into the store.
type RecallPipeline struct {
	logger  *observability.Logger
	fetcher RecallFetcher
	store   RecallStore
}

// NewRecallPipeline creates a recall ingestion pipeline.
func NewRecallPipeline(logger *observability.Logger, fetcher RecallFetcher, store RecallStore) *RecallPipeline {
	return &RecallPipeline{logger: logger, fetcher: fetcher, store: store}
}

// Run fetches recent recalls and upserts each one. A record that fails to
// store is logged and skipped; only a failed fetch aborts the run.
func (p *RecallPipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Days <= 0 {
		opts.Days = 90
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	result := &Result{JobID: uuid.New(), StartedAt: time.Now()}
	logger := p.logger.WithOperation("ingest_recalls")
	logger.Info().
		Str("job_id", result.JobID.String()).
		Int("days", opts.Days).
		Int("limit", opts.Limit).
		Msg("Starting recall ingestion")

	recalls, err := p.fetcher.FetchRecent(ctx, opts.Days, opts.Limit)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch: %v", err))
		result.finish()
		return result, fmt.Errorf("fetch recalls: %w", err)
	}
	result.Fetched = len(recalls)

	for i, recall := range recalls {
		if err := ctx.Err(); err != nil {
			result.finish()
			return result, err
		}

		created, err := p.store.Upsert(ctx, recall)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", recall.RecallNumber, err))
			logger.Warn().
				Str("recall_number", recall.RecallNumber).
				Err(err).
				Msg("Failed to store recall")
		case created:
			result.Created++
		default:
			result.Updated++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(recalls))
		}
	}

	result.finish()
	logger.Info().
		Str("job_id", result.JobID.String()).
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Recall ingestion complete")
	return result, nil
}

func (r *Result) finish() {
	r.CompletedAt = time.Now()
	r.Duration = r.CompletedAt.Sub(r.StartedAt)
}
