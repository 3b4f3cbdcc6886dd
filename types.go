package catalog

import (
	"time"
)

const (
	EventWorkCreated    string = "work.created"
	EventWorkMerged     string = "work.merged"
	EventBatchCompleted string = "batch.completed"
)

// Payload is one crawled artifact as handed over by a site adapter:
// a key/value structure, possibly nested, schema unknown to the core.
type Payload map[string]any

// RawItem is what an adapter delivers to the collector.
type RawItem struct {
	Platform   string  `json:"platform"`
	Domain     string  `json:"domain"`
	PlatformID string  `json:"platformId"`
	URL        string  `json:"url"`
	Payload    Payload `json:"payload"`
}

// MasterDoc holds fields destined for the canonical work row.
type MasterDoc map[string]any

// PlatformDoc carries the platform identity plus the attribute bag
// destined for the platform listing.
type PlatformDoc struct {
	PlatformName string         `json:"platformName"`
	Attributes   map[string]any `json:"attributes"`
}

// DomainDoc holds fields destined for the domain extension record.
type DomainDoc map[string]any

// Event is published on the signal channel after ingest activity.
type Event struct {
	Type      string    `json:"type"`
	Domain    string    `json:"domain"`
	WorkID    string    `json:"workId,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
