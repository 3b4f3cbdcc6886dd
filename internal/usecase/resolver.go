package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/rules"
	"github.com/sorabase/catalog/internal/transform"
)

// Master-document fields the resolver promotes onto the canonical work.
// Rules address them by these names.
const (
	masterTitle         = "title"
	masterOriginalTitle = "originalTitle"
	masterReleaseDate   = "releaseDate"
	masterPosterURL     = "posterUrl"
	masterSynopsis      = "synopsis"
)

// ResolverUsecase decides whether a freshly transformed record is a new
// work or another platform's listing of one the catalog already knows.
type ResolverUsecase struct {
	catalog CatalogStore
	newExt  ExtensionFactory
	signal  SignalPublisher
}

func NewResolverUsecase(catalog CatalogStore, newExt ExtensionFactory, signal SignalPublisher) *ResolverUsecase {
	return &ResolverUsecase{catalog: catalog, newExt: newExt, signal: signal}
}

// BuildCandidate assembles the not-yet-persisted triple from the three
// transform documents. A blank title is a ValidationError: a work cannot
// be identified without one.
func (uc *ResolverUsecase) BuildCandidate(
	d domain.Domain,
	master catalog.MasterDoc,
	platform catalog.PlatformDoc,
	domainDoc catalog.DomainDoc,
	platformID string,
	url string,
	rule *rules.MappingRule,
) (domain.ResolveInput, error) {
	title, _ := master[masterTitle].(string)
	if title == "" {
		return domain.ResolveInput{}, domain.ValidationError{Field: "title", Reason: "must not be blank"}
	}

	work := domain.Work{
		ID:     uuid.NewString(),
		Domain: d,
		Title:  title,
	}
	if v, ok := master[masterOriginalTitle].(string); ok && v != "" {
		work.OriginalTitle = &v
	}
	if v, ok := master[masterPosterURL].(string); ok && v != "" {
		work.PosterURL = &v
	}
	if v, ok := master[masterSynopsis].(string); ok && v != "" {
		work.Synopsis = &v
	}
	if v, ok := master[masterReleaseDate]; ok {
		if coerced, err := transform.Coerce(v, "date"); err == nil {
			t := coerced.(time.Time)
			work.ReleaseDate = &t
		}
	}

	ext := uc.newExt(d)
	transform.Apply(ext, domainDoc, rule.DomainFields)

	listing := domain.PlatformListing{
		Platform:   platform.PlatformName,
		PlatformID: platformID,
		URL:        url,
		Attributes: platform.Attributes,
		LastSeenAt: time.Now(),
	}

	fields := make(map[string]domain.DomainFieldSpec, len(rule.DomainFields))
	for k, v := range rule.DomainFields {
		fields[k] = domain.DomainFieldSpec{Field: v.Field, Type: v.Type}
	}

	return domain.ResolveInput{
		Domain:          d,
		Work:            work,
		Extension:       ext,
		Listing:         listing,
		NormalizedTitle: transform.MergeNormalize(title),
		DomainDoc:       domainDoc,
		DomainFields:    fields,
	}, nil
}

// Resolve persists the candidate, merging into an existing work when the
// identity search finds one, and signals the outcome.
func (uc *ResolverUsecase) Resolve(ctx context.Context, input domain.ResolveInput) (string, bool, error) {
	workID, merged, err := uc.catalog.Upsert(ctx, input)
	if err != nil {
		return "", false, err
	}

	eventType := catalog.EventWorkCreated
	if merged {
		eventType = catalog.EventWorkMerged
	}
	if uc.signal != nil {
		err := uc.signal.Publish(ctx, catalog.Event{
			Type:      eventType,
			Domain:    string(input.Domain),
			WorkID:    workID,
			Platform:  input.Listing.Platform,
			Timestamp: time.Now(),
		})
		if err != nil {
			slog.Warn("signal publish failed",
				slog.String("error", err.Error()),
				slog.String("module", "resolver"),
			)
		}
	}

	return workID, merged, nil
}

// GetWork and ListWorks expose the read side for the REST surface.
func (uc *ResolverUsecase) GetWork(ctx context.Context, id string) (domain.Work, []domain.PlatformListing, error) {
	return uc.catalog.GetWork(ctx, id)
}

func (uc *ResolverUsecase) ListWorks(ctx context.Context, d domain.Domain, limit, offset int) ([]domain.Work, error) {
	return uc.catalog.ListWorks(ctx, d, limit, offset)
}
