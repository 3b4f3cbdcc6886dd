package models

import (
	"time"
)

// RawRecord is the durable staging row for one crawled payload.
// (Platform, PlatformID) is unique. ContentHash is indexed for the
// cross-pair collision check; two pairs may legitimately share a hash
// when platforms serve byte-identical payloads, so it is not unique.
// Rows are never deleted in normal operation, they serve as replay and
// audit history.
type RawRecord struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	Platform    string         `json:"platform" gorm:"type:text;not null;index:idx_raw_platform_pid,unique"`
	Domain      string         `json:"domain" gorm:"type:text;not null"`
	Payload     map[string]any `json:"payload" gorm:"serializer:json;type:text"`
	PlatformID  string         `json:"platformId" gorm:"type:text;not null;index:idx_raw_platform_pid,unique"`
	URL         string         `json:"url" gorm:"type:text"`
	ContentHash string         `json:"contentHash" gorm:"type:text;index"`
	FetchedAt   time.Time      `json:"fetchedAt" gorm:"not null"`
	Processed   bool           `json:"processed" gorm:"type:boolean;not null;default:false;index"`
	ProcessedAt *time.Time     `json:"processedAt"`

	// Claim lease. A claim stamps owner and expiry; other workers skip
	// rows whose lease has not expired yet.
	ClaimOwner   *string    `json:"claimOwner" gorm:"type:text"`
	ClaimExpires *time.Time `json:"claimExpires" gorm:"index"`
}

// TransformAttempt is one immutable audit row per orchestrator attempt.
// Created once, never updated or deleted.
type TransformAttempt struct {
	ID          string     `json:"id" gorm:"primaryKey;type:text"`
	RawRecordID string     `json:"rawRecordId" gorm:"type:text;not null;index"`
	Platform    string     `json:"platform" gorm:"type:text;not null"`
	Domain      string     `json:"domain" gorm:"type:text;not null"`
	RuleID      string     `json:"ruleId" gorm:"type:text"`
	Status      string     `json:"status" gorm:"type:text;not null;index"`
	WorkID      *string    `json:"workId" gorm:"type:text"`
	Error       *string    `json:"error" gorm:"type:text"`
	StartedAt   time.Time  `json:"startedAt" gorm:"not null"`
	FinishedAt  time.Time  `json:"finishedAt" gorm:"not null"`
}
