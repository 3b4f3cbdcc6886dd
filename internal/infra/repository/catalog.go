package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/infra/database/models"
	"github.com/sorabase/catalog/internal/rules"
	"github.com/sorabase/catalog/internal/transform"
)

// CatalogRepository persists the canonical side of the catalog: works,
// their 1:1 domain extensions, and platform listings.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// extensionTable maps a domain to its extension table.
var extensionTable = map[domain.Domain]string{
	domain.DomainGame:     "game_extensions",
	domain.DomainMovie:    "movie_extensions",
	domain.DomainTV:       "tv_extensions",
	domain.DomainWebtoon:  "webtoon_extensions",
	domain.DomainWebnovel: "webnovel_extensions",
}

// Upsert resolves the candidate triple against the existing catalog.
// A (platform, platform id) pair already cataloged is a re-resolution of
// its listing's owning work: the listing is refreshed and the work
// field-merged, never duplicated. Otherwise, when a work in the same
// domain shares the strong merge-key attribute and the normalized title,
// the candidate is merged into it; failing both, the triple is created
// fresh. Every path runs in a single transaction. Returns the canonical
// work id and whether the candidate landed on an existing work.
func (r *CatalogRepository) Upsert(ctx context.Context, input domain.ResolveInput) (string, bool, error) {
	var workID string
	var merged bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := r.listingOwner(tx, input.Listing)
		if err != nil {
			return err
		}
		if owner != nil {
			workID = owner.ID
			merged = true
			return r.merge(tx, owner, input)
		}

		existing, err := r.findCandidate(tx, input)
		if err != nil {
			return err
		}
		if existing != nil {
			workID = existing.ID
			merged = true
			return r.merge(tx, existing, input)
		}
		workID = input.Work.ID
		return r.createTriple(tx, input)
	})
	if err != nil {
		return "", false, domain.PersistenceError{Op: "catalog upsert", Err: err}
	}
	return workID, merged, nil
}

// listingOwner returns the work already owning this (platform, platform
// id) pair, or nil when the pair is new to the catalog. Re-crawled
// payloads arrive here on every change, so this lookup runs before the
// identity search: a listing is never re-pointed, its owner always wins.
func (r *CatalogRepository) listingOwner(tx *gorm.DB, listing domain.PlatformListing) (*models.Work, error) {
	var existing models.PlatformListing
	err := tx.Where("platform = ? AND platform_id = ?", listing.Platform, listing.PlatformID).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var work models.Work
	if err := tx.Where("id = ?", existing.WorkID).Take(&work).Error; err != nil {
		return nil, err
	}
	return &work, nil
}

// findCandidate searches the same domain for a work whose extension
// carries the same strong attribute and whose title matches after merge
// normalization. Domains without a merge key never merge; a candidate
// with an absent key value proceeds as new.
func (r *CatalogRepository) findCandidate(tx *gorm.DB, input domain.ResolveInput) (*models.Work, error) {
	column := input.Extension.MergeKeyColumn()
	key := input.Extension.MergeKey()
	if column == "" || key == "" {
		return nil, nil
	}

	table := extensionTable[input.Domain]
	var candidates []models.Work
	err := tx.Model(&models.Work{}).
		Joins("JOIN "+table+" ext ON ext.work_id = works.id").
		Where("works.domain = ? AND ext."+column+" = ?", string(input.Domain), key).
		Order("works.created_at ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if transform.MergeNormalize(candidates[i].Title) == input.NormalizedTitle {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// merge folds the candidate into an existing work, serving both the
// identity merge and the re-resolution of an already-cataloged pair:
// scalar fields fill only while null, the listing is added (or refreshed)
// without ever re-pointing an existing one, and the extension is
// field-merged through the rule's domain mappings.
func (r *CatalogRepository) merge(tx *gorm.DB, existing *models.Work, input domain.ResolveInput) error {
	candidate := toModelWork(input.Work)
	if existing.FillFrom(&candidate) {
		existing.UpdatedAt = time.Now()
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
	}

	listing := toModelListing(input.Listing)
	listing.ID = uuid.NewString()
	listing.WorkID = existing.ID
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}, {Name: "platform_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"attributes", "url", "last_seen_at"}),
	}).Create(&listing).Error
	if err != nil {
		return err
	}

	ext := models.NewExtension(input.Domain)
	err = tx.Where("work_id = ?", existing.ID).Take(ext).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// A work without its extension should not happen; heal it.
		ext = input.Extension
		ext.SetWorkRef(existing.ID)
		return tx.Create(ext).Error
	}
	if err != nil {
		return err
	}

	ext.FillFrom(input.Extension)
	transform.Apply(ext, input.DomainDoc, toRuleFields(input.DomainFields))
	return tx.Save(ext).Error
}

// createTriple persists a fresh work, extension, and listing. All three
// succeed or none do; the caller supplies the transaction.
func (r *CatalogRepository) createTriple(tx *gorm.DB, input domain.ResolveInput) error {
	work := toModelWork(input.Work)
	if err := tx.Create(&work).Error; err != nil {
		return err
	}

	ext := input.Extension
	ext.SetWorkRef(work.ID)
	if err := tx.Create(ext).Error; err != nil {
		return err
	}

	listing := toModelListing(input.Listing)
	listing.ID = uuid.NewString()
	listing.WorkID = work.ID
	return tx.Create(&listing).Error
}

// GetWork loads one work with its listings.
func (r *CatalogRepository) GetWork(ctx context.Context, id string) (domain.Work, []domain.PlatformListing, error) {
	var work models.Work
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&work).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Work{}, nil, domain.NotFoundError{Resource: "work"}
	}
	if err != nil {
		return domain.Work{}, nil, domain.PersistenceError{Op: "get work", Err: err}
	}

	var listings []models.PlatformListing
	err = r.db.WithContext(ctx).Where("work_id = ?", id).Find(&listings).Error
	if err != nil {
		return domain.Work{}, nil, domain.PersistenceError{Op: "get work listings", Err: err}
	}

	out := make([]domain.PlatformListing, 0, len(listings))
	for _, l := range listings {
		out = append(out, toDomainListing(l))
	}
	return toDomainWork(work), out, nil
}

// ListWorks pages through works of one domain, newest first.
func (r *CatalogRepository) ListWorks(ctx context.Context, d domain.Domain, limit, offset int) ([]domain.Work, error) {
	query := r.db.WithContext(ctx).Model(&models.Work{}).Order("created_at DESC")
	if d != "" {
		query = query.Where("domain = ?", string(d))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var works []models.Work
	err := query.Offset(offset).Find(&works).Error
	if err != nil {
		return nil, domain.PersistenceError{Op: "list works", Err: err}
	}

	out := make([]domain.Work, 0, len(works))
	for _, w := range works {
		out = append(out, toDomainWork(w))
	}
	return out, nil
}

func toModelWork(w domain.Work) models.Work {
	return models.Work{
		ID:            w.ID,
		Domain:        string(w.Domain),
		Title:         w.Title,
		OriginalTitle: w.OriginalTitle,
		ReleaseDate:   w.ReleaseDate,
		PosterURL:     w.PosterURL,
		Synopsis:      w.Synopsis,
	}
}

func toDomainWork(w models.Work) domain.Work {
	return domain.Work{
		ID:            w.ID,
		Domain:        domain.Domain(w.Domain),
		Title:         w.Title,
		OriginalTitle: w.OriginalTitle,
		ReleaseDate:   w.ReleaseDate,
		PosterURL:     w.PosterURL,
		Synopsis:      w.Synopsis,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func toModelListing(l domain.PlatformListing) models.PlatformListing {
	return models.PlatformListing{
		ID:         l.ID,
		WorkID:     l.WorkID,
		Platform:   l.Platform,
		PlatformID: l.PlatformID,
		URL:        l.URL,
		Attributes: l.Attributes,
		LastSeenAt: l.LastSeenAt,
	}
}

func toDomainListing(l models.PlatformListing) domain.PlatformListing {
	return domain.PlatformListing{
		ID:         l.ID,
		WorkID:     l.WorkID,
		Platform:   l.Platform,
		PlatformID: l.PlatformID,
		URL:        l.URL,
		Attributes: l.Attributes,
		LastSeenAt: l.LastSeenAt,
	}
}

func toRuleFields(specs map[string]domain.DomainFieldSpec) map[string]rules.DomainField {
	out := make(map[string]rules.DomainField, len(specs))
	for k, v := range specs {
		out[k] = rules.DomainField{Field: v.Field, Type: v.Type}
	}
	return out
}
