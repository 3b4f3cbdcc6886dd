package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
)

// CollectorUsecase is the single entry point adapters hand crawled
// payloads to. Saving is idempotent on content: re-ingesting identical
// payloads is a no-op, changed payloads queue the record for
// re-normalization.
type CollectorUsecase struct {
	raw RawRecordStore
}

func NewCollectorUsecase(raw RawRecordStore) *CollectorUsecase {
	return &CollectorUsecase{raw: raw}
}

// Save validates and stages one crawled item, returning the raw record id.
func (uc *CollectorUsecase) Save(ctx context.Context, item catalog.RawItem) (string, domain.SaveOutcome, error) {
	if item.PlatformID == "" {
		// Without a stable platform identity the record cannot be
		// deduplicated safely.
		return "", 0, domain.ValidationError{Field: "platformId", Reason: "must not be blank"}
	}
	if item.Platform == "" {
		return "", 0, domain.ValidationError{Field: "platform", Reason: "must not be blank"}
	}
	d, ok := domain.ParseDomain(item.Domain)
	if !ok {
		return "", 0, domain.ValidationError{Field: "domain", Reason: "unknown domain " + item.Domain}
	}

	hash, err := catalog.CanonicalHash(item.Payload)
	if err != nil {
		return "", 0, domain.ValidationError{Field: "payload", Reason: err.Error()}
	}

	id, outcome, err := uc.raw.Save(ctx, domain.RawRecord{
		Platform:    item.Platform,
		Domain:      d,
		Payload:     item.Payload,
		PlatformID:  item.PlatformID,
		URL:         item.URL,
		ContentHash: hash,
		FetchedAt:   time.Now(),
	})
	if err != nil {
		return "", 0, err
	}

	slog.Debug("raw record saved",
		slog.String("id", id),
		slog.String("platform", item.Platform),
		slog.String("platformId", item.PlatformID),
		slog.String("outcome", outcome.String()),
		slog.String("module", "collector"),
	)
	return id, outcome, nil
}

// Backlog reports how many staged records await processing.
func (uc *CollectorUsecase) Backlog(ctx context.Context) (int64, error) {
	return uc.raw.CountUnprocessed(ctx)
}
