package domain

import "time"

// Config carries the pipeline settings services need at runtime.
type Config struct {
	NodeName string `yaml:"nodeName"`

	// Orchestrator.
	FlushEvery    int  `yaml:"flushEvery"`    // bulk-write interval in optimized mode
	AbortOnError  bool `yaml:"abortOnError"`  // deprecated all-or-nothing batch mode
	ErrorTruncate int  `yaml:"errorTruncate"` // max stored length of attempt error text

	// Crawl retries.
	RetryAttempts int           `yaml:"retryAttempts"`
	RetryBackoff  time.Duration `yaml:"retryBackoff"`

	// Claim leases.
	LeaseTTL time.Duration `yaml:"leaseTTL"`
}

// Defaults fills zero values with the standard pipeline settings.
func (c *Config) Defaults() {
	if c.FlushEvery <= 0 {
		c.FlushEvery = 100
	}
	if c.ErrorTruncate <= 0 {
		c.ErrorTruncate = 1000
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 10 * time.Minute
	}
}
