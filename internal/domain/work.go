package domain

import "time"

// Work is one canonical creative-work row, domain-tagged, potentially
// backed by listings from several platforms. Scalar fields are fill-if-null
// on merge and never overwritten once set.
type Work struct {
	ID            string     `json:"id"`
	Domain        Domain     `json:"domain"`
	Title         string     `json:"title"`
	OriginalTitle *string    `json:"originalTitle,omitempty"`
	ReleaseDate   *time.Time `json:"releaseDate,omitempty"`
	PosterURL     *string    `json:"posterUrl,omitempty"`
	Synopsis      *string    `json:"synopsis,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PlatformListing is one source platform's record of a Work.
// (Platform, PlatformID) is unique across the catalog; a listing is never
// re-pointed to a different Work once created.
type PlatformListing struct {
	ID         string         `json:"id"`
	WorkID     string         `json:"workId"`
	Platform   string         `json:"platform"`
	PlatformID string         `json:"platformId"`
	URL        string         `json:"url"`
	Attributes map[string]any `json:"attributes"`
	LastSeenAt time.Time      `json:"lastSeenAt"`
}

// RawRecord is a buffered, not-yet-normalized crawled payload.
type RawRecord struct {
	ID          string         `json:"id"`
	Platform    string         `json:"platform"`
	Domain      Domain         `json:"domain"`
	Payload     map[string]any `json:"payload"`
	PlatformID  string         `json:"platformId"`
	URL         string         `json:"url"`
	ContentHash string         `json:"contentHash"`
	FetchedAt   time.Time      `json:"fetchedAt"`
	Processed   bool           `json:"processed"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
}

// SaveOutcome reports what a collector save actually did.
type SaveOutcome int

const (
	SaveUnchanged SaveOutcome = iota // same pair, same hash: no-op
	SaveUpdated                      // same pair, new hash: payload replaced, reprocess queued
	SaveCreated                      // new pair
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveUnchanged:
		return "unchanged"
	case SaveUpdated:
		return "updated"
	case SaveCreated:
		return "created"
	default:
		return "unknown"
	}
}

// DomainFieldSpec mirrors a rule's typed domain-field mapping at the
// point where it crosses into persistence.
type DomainFieldSpec struct {
	Field string
	Type  string
}

// ResolveInput is the fully-built candidate triple handed to identity
// resolution, together with everything the merge path needs.
type ResolveInput struct {
	Domain          Domain
	Work            Work
	Extension       Extension
	Listing         PlatformListing
	NormalizedTitle string
	DomainDoc       map[string]any
	DomainFields    map[string]DomainFieldSpec
}

// TransformAttempt is one immutable audit row per orchestrator attempt.
type TransformAttempt struct {
	ID          string        `json:"id"`
	RawRecordID string        `json:"rawRecordId"`
	Platform    string        `json:"platform"`
	Domain      Domain        `json:"domain"`
	RuleID      string        `json:"ruleId"`
	Status      AttemptStatus `json:"status"`
	WorkID      *string       `json:"workId,omitempty"`
	Error       *string       `json:"error,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
}
