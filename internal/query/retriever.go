package query

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// Searcher is a keyword search over one record collection.
type Searcher[T any] interface {
	Search(ctx context.Context, keywords []string, limit int) ([]T, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc[T any] func(ctx context.Context, keywords []string, limit int) ([]T, error)

// Search calls f.
func (f SearcherFunc[T]) Search(ctx context.Context, keywords []string, limit int) ([]T, error) {
	return f(ctx, keywords, limit)
}

// SourceResult is either the records found in one source or the failure
// that left it empty.
type SourceResult[T any] struct {
	Records []T
	Err     error
}

// Failed reports whether the source search failed.
func (r SourceResult[T]) Failed() bool {
	return r.Err != nil
}

// Collection is a named searchable source.
type Collection[T any] struct {
	Name     string
	Searcher Searcher[T]
}

func (c Collection[T]) search(ctx context.Context, logger *observability.Logger, keywords []string, limit int) (result SourceResult[T]) {
	if len(keywords) == 0 || c.Searcher == nil {
		return SourceResult[T]{Records: []T{}}
	}

	// a panicking searcher fails only its own source
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			logger.Error().
				Str("source", c.Name).
				Err(err).
				Msg("Source search panicked")
			result = SourceResult[T]{Records: []T{}, Err: domain.SourceSearchFailure(c.Name, err)}
		}
	}()

	start := time.Now()
	records, err := c.Searcher.Search(ctx, keywords, limit)
	if err != nil {
		logger.Warn().
			Str("source", c.Name).
			Err(err).
			Msg("Source search failed")
		return SourceResult[T]{Records: []T{}, Err: domain.SourceSearchFailure(c.Name, err)}
	}
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []T{}
	}

	logger.Debug().
		Str("source", c.Name).
		Int("results", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("Source search complete")
	return SourceResult[T]{Records: records}
}

// Sources are the three record collections a question is grounded in.
type Sources struct {
	Foods      Searcher[*storage.Food]
	Recalls    Searcher[*storage.Recall]
	Advisories Searcher[*storage.Advisory]
}

// Retrieved holds the per-source results of one retrieval.
type Retrieved struct {
	Foods      SourceResult[*storage.Food]
	Recalls    SourceResult[*storage.Recall]
	Advisories SourceResult[*storage.Advisory]
}

// Retriever fans a keyword set out to all sources and waits for every result.
type Retriever struct {
	logger     *observability.Logger
	foods      Collection[*storage.Food]
	recalls    Collection[*storage.Recall]
	advisories Collection[*storage.Advisory]
	limit      int
}

// NewRetriever creates a retriever capping each source at limit records.
func NewRetriever(logger *observability.Logger, sources Sources, limit int) *Retriever {
	if limit <= 0 {
		limit = 10
	}
	return &Retriever{
		logger:     logger,
		foods:      Collection[*storage.Food]{Name: "foods", Searcher: sources.Foods},
		recalls:    Collection[*storage.Recall]{Name: "recalls", Searcher: sources.Recalls},
		advisories: Collection[*storage.Advisory]{Name: "advisories", Searcher: sources.Advisories},
		limit:      limit,
	}
}

// Retrieve searches all sources concurrently. A failing source yields an
// empty result carrying its error; it never affects the others.
func (r *Retriever) Retrieve(ctx context.Context, keywords []string) Retrieved {
	var out Retrieved
	var g errgroup.Group

	g.Go(func() error {
		out.Foods = r.foods.search(ctx, r.logger, keywords, r.limit)
		return nil
	})
	g.Go(func() error {
		out.Recalls = r.recalls.search(ctx, r.logger, keywords, r.limit)
		return nil
	})
	g.Go(func() error {
		out.Advisories = r.advisories.search(ctx, r.logger, keywords, r.limit)
		return nil
	})

	_ = g.Wait()
	return out
}
