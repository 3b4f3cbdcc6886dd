package usecase

import (
	"context"
	"time"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/rules"
)

// RawRecordStore is the staging buffer for crawled payloads.
type RawRecordStore interface {
	Save(ctx context.Context, rec domain.RawRecord) (string, domain.SaveOutcome, error)
	ClaimBatch(ctx context.Context, n int, owner string, ttl time.Duration) ([]domain.RawRecord, error)
	MarkProcessed(ctx context.Context, ids []string, at time.Time) error
	CountUnprocessed(ctx context.Context) (int64, error)
}

// CatalogStore persists and resolves the canonical catalog rows.
type CatalogStore interface {
	Upsert(ctx context.Context, input domain.ResolveInput) (workID string, merged bool, err error)
	GetWork(ctx context.Context, id string) (domain.Work, []domain.PlatformListing, error)
	ListWorks(ctx context.Context, d domain.Domain, limit, offset int) ([]domain.Work, error)
}

// AttemptStore records the immutable audit trail.
type AttemptStore interface {
	Create(ctx context.Context, attempt domain.TransformAttempt) error
	CreateBulk(ctx context.Context, attempts []domain.TransformAttempt) error
}

// RuleSource loads and caches mapping rules by id.
type RuleSource interface {
	Load(ruleID string) (*rules.MappingRule, error)
}

// ExtensionFactory builds an empty extension for a domain.
type ExtensionFactory func(d domain.Domain) domain.Extension

// SignalPublisher fans ingest events out to interested listeners.
// Publishing is best effort; failures are logged, never fatal.
type SignalPublisher interface {
	Publish(ctx context.Context, event catalog.Event) error
}
