package models

import (
	"time"
)

// Work is the canonical creative-work row. Scalar fields are filled only
// while null; merges never overwrite a value that is already present.
type Work struct {
	ID            string     `json:"id" gorm:"primaryKey;type:text"`
	Domain        string     `json:"domain" gorm:"type:text;not null;index"`
	Title         string     `json:"title" gorm:"type:text;not null"`
	OriginalTitle *string    `json:"originalTitle" gorm:"type:text"`
	ReleaseDate   *time.Time `json:"releaseDate"`
	PosterURL     *string    `json:"posterUrl" gorm:"type:text"`
	Synopsis      *string    `json:"synopsis" gorm:"type:text"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"->;<-:create;not null"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"not null"`
}

// FillFrom copies scalar fields from a candidate into still-null slots.
// Returns true when anything changed.
func (w *Work) FillFrom(candidate *Work) bool {
	changed := false
	if w.OriginalTitle == nil && candidate.OriginalTitle != nil {
		w.OriginalTitle = candidate.OriginalTitle
		changed = true
	}
	if w.ReleaseDate == nil && candidate.ReleaseDate != nil {
		w.ReleaseDate = candidate.ReleaseDate
		changed = true
	}
	if w.PosterURL == nil && candidate.PosterURL != nil {
		w.PosterURL = candidate.PosterURL
		changed = true
	}
	if w.Synopsis == nil && candidate.Synopsis != nil {
		w.Synopsis = candidate.Synopsis
		changed = true
	}
	return changed
}

// PlatformListing is one source platform's record of a Work. The
// (platform, platform id) pair is unique; a listing is only ever added by
// the merge path, never reassigned to a different Work.
type PlatformListing struct {
	ID         string         `json:"id" gorm:"primaryKey;type:text"`
	WorkID     string         `json:"workId" gorm:"type:text;not null;index"`
	Work       Work           `json:"-" gorm:"foreignKey:WorkID;references:ID;constraint:OnDelete:CASCADE;"`
	Platform   string         `json:"platform" gorm:"type:text;not null;index:idx_listing_platform_pid,unique"`
	PlatformID string         `json:"platformId" gorm:"type:text;not null;index:idx_listing_platform_pid,unique"`
	URL        string         `json:"url" gorm:"type:text"`
	Attributes map[string]any `json:"attributes" gorm:"serializer:json;type:text"`
	LastSeenAt time.Time      `json:"lastSeenAt" gorm:"not null"`
}
