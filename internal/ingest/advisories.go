package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// AdvisoryStore persists advisories.
type AdvisoryStore interface {
	Create(ctx context.Context, a *storage.Advisory) error
}

// LoadAdvisories reads a JSON array of advisories from r and stores each one.
// Invalid records are counted as failures and skipped.
func LoadAdvisories(ctx context.Context, logger *observability.Logger, r io.Reader, store AdvisoryStore) (*Result, error) {
	var advisories []*storage.Advisory
	if err := json.NewDecoder(r).Decode(&advisories); err != nil {
		return nil, fmt.Errorf("decode advisories: %w", err)
	}

	result := &Result{JobID: uuid.New(), StartedAt: time.Now(), Fetched: len(advisories)}
	for _, a := range advisories {
		if err := store.Create(ctx, a); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", a.StateCode, a.FishSpecies, err))
			logger.Warn().Str("state", a.StateCode).Str("species", a.FishSpecies).Err(err).Msg("Failed to store advisory")
			continue
		}
		result.Created++
	}
	result.finish()
	return result, nil
}
