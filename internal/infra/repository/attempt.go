package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/infra/database/models"
)

// AttemptRepository writes the immutable audit trail of transform
// attempts. Rows are only ever inserted.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt domain.TransformAttempt) error {
	m := toModelAttempt(attempt)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.PersistenceError{Op: "attempt create", Err: err}
	}
	return nil
}

// CreateBulk inserts a flush of attempts in one statement. Used by the
// optimized batch mode.
func (r *AttemptRepository) CreateBulk(ctx context.Context, attempts []domain.TransformAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	ms := make([]models.TransformAttempt, 0, len(attempts))
	for _, a := range attempts {
		ms = append(ms, toModelAttempt(a))
	}
	if err := r.db.WithContext(ctx).CreateInBatches(ms, 100).Error; err != nil {
		return domain.PersistenceError{Op: "attempt bulk create", Err: err}
	}
	return nil
}

func toModelAttempt(a domain.TransformAttempt) models.TransformAttempt {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	return models.TransformAttempt{
		ID:          id,
		RawRecordID: a.RawRecordID,
		Platform:    a.Platform,
		Domain:      string(a.Domain),
		RuleID:      a.RuleID,
		Status:      string(a.Status),
		WorkID:      a.WorkID,
		Error:       a.Error,
		StartedAt:   a.StartedAt,
		FinishedAt:  a.FinishedAt,
	}
}
