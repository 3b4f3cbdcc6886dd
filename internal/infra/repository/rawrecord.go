package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/infra/database/models"
)

// RawRecordRepository is the staging store for crawled payloads. Save is
// the only write path into raw records outside the orchestrator's
// processed flip.
type RawRecordRepository struct {
	db *gorm.DB
}

func NewRawRecordRepository(db *gorm.DB) *RawRecordRepository {
	return &RawRecordRepository{db: db}
}

// lockRows applies a row-level FOR UPDATE lock where the dialect has one.
// SQLite has no row locks; its writers serialize on the database lock, so
// the clause is omitted there rather than sent as invalid SQL.
func lockRows(tx *gorm.DB, options string) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: options})
}

// Save applies the idempotent dedup protocol: same (platform, id) pair
// with an unchanged hash is a no-op; a changed hash replaces the payload
// in place and queues the row for re-normalization; an unknown pair is
// inserted. A hash collision against an unrelated pair is logged for
// diagnostics but does not block the insert.
func (r *RawRecordRepository) Save(ctx context.Context, rec domain.RawRecord) (string, domain.SaveOutcome, error) {
	var id string
	var outcome domain.SaveOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.RawRecord
		err := lockRows(tx, "").
			Where("platform = ? AND platform_id = ?", rec.Platform, rec.PlatformID).
			Take(&existing).Error
		if err == nil {
			id = existing.ID
			if existing.ContentHash == rec.ContentHash {
				outcome = domain.SaveUnchanged
				return nil
			}
			outcome = domain.SaveUpdated
			return tx.Model(&existing).
				Select("Payload", "ContentHash", "URL", "FetchedAt", "Processed", "ProcessedAt").
				Updates(models.RawRecord{
					Payload:     rec.Payload,
					ContentHash: rec.ContentHash,
					URL:         rec.URL,
					FetchedAt:   rec.FetchedAt,
					Processed:   false,
					ProcessedAt: nil,
				}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var collision models.RawRecord
		err = tx.Where("content_hash = ?", rec.ContentHash).Take(&collision).Error
		if err == nil {
			slog.Warn("content hash collision across unrelated records",
				slog.String("hash", rec.ContentHash),
				slog.String("platform", rec.Platform),
				slog.String("platformId", rec.PlatformID),
				slog.String("collidesWith", collision.ID),
				slog.String("module", "collector"),
			)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		id = uuid.NewString()
		outcome = domain.SaveCreated
		return tx.Create(&models.RawRecord{
			ID:          id,
			Platform:    rec.Platform,
			Domain:      string(rec.Domain),
			Payload:     rec.Payload,
			PlatformID:  rec.PlatformID,
			URL:         rec.URL,
			ContentHash: rec.ContentHash,
			FetchedAt:   rec.FetchedAt,
			Processed:   false,
		}).Error
	})
	if err != nil {
		return "", 0, domain.PersistenceError{Op: "raw record save", Err: err}
	}
	return id, outcome, nil
}

// ClaimBatch atomically selects up to n unprocessed rows no other worker
// holds, using FOR UPDATE SKIP LOCKED plus a lease stamp so the claim
// outlives the claiming transaction. Claims skip rows whose lease has not
// expired.
func (r *RawRecordRepository) ClaimBatch(ctx context.Context, n int, owner string, ttl time.Duration) ([]domain.RawRecord, error) {
	var claimed []models.RawRecord
	now := time.Now()
	expiry := now.Add(ttl)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockRows(tx, "SKIP LOCKED").
			Where("processed = ? AND (claim_expires IS NULL OR claim_expires < ?)", false, now).
			Order("fetched_at ASC").
			Limit(n).
			Find(&claimed).Error
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]string, 0, len(claimed))
		for _, rec := range claimed {
			ids = append(ids, rec.ID)
		}
		return tx.Model(&models.RawRecord{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"claim_owner":   owner,
				"claim_expires": expiry,
			}).Error
	})
	if err != nil {
		return nil, domain.PersistenceError{Op: "claim batch", Err: err}
	}

	out := make([]domain.RawRecord, 0, len(claimed))
	for _, rec := range claimed {
		out = append(out, toDomainRawRecord(rec))
	}
	return out, nil
}

// MarkProcessed flips the processed flag and releases the lease for the
// given rows in one statement. Used both per record and for the bulk
// flushes of optimized mode.
func (r *RawRecordRepository) MarkProcessed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.RawRecord{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"processed":     true,
			"processed_at":  at,
			"claim_owner":   nil,
			"claim_expires": nil,
		}).Error
	if err != nil {
		return domain.PersistenceError{Op: "mark processed", Err: err}
	}
	return nil
}

// CountUnprocessed reports the backlog size.
func (r *RawRecordRepository) CountUnprocessed(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RawRecord{}).
		Where("processed = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, domain.PersistenceError{Op: "count unprocessed", Err: err}
	}
	return count, nil
}

func toDomainRawRecord(m models.RawRecord) domain.RawRecord {
	return domain.RawRecord{
		ID:          m.ID,
		Platform:    m.Platform,
		Domain:      domain.Domain(m.Domain),
		Payload:     m.Payload,
		PlatformID:  m.PlatformID,
		URL:         m.URL,
		ContentHash: m.ContentHash,
		FetchedAt:   m.FetchedAt,
		Processed:   m.Processed,
		ProcessedAt: m.ProcessedAt,
	}
}
