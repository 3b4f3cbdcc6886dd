package rules

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-yaml/yaml"
	"github.com/patrickmn/go-cache"

	"github.com/sorabase/catalog/internal/domain"
)

// Registry loads mapping rules from a directory of YAML documents, one
// file per (domain, platform). Rule files are static per deployment, so
// the cache is populated lazily and lives for the process lifetime with
// no invalidation.
type Registry struct {
	dir   string
	cache *cache.Cache
}

func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:   dir,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Load returns the rule identified by ruleID (the file name without the
// .yaml suffix). The first load parses the file; subsequent loads return
// the cached instance.
func (r *Registry) Load(ruleID string) (*MappingRule, error) {
	if cached, found := r.cache.Get(ruleID); found {
		return cached.(*MappingRule), nil
	}

	path := filepath.Join(r.dir, ruleID+".yaml")
	file, err := os.Open(path)
	if err != nil {
		return nil, domain.ConfigurationError{Subject: "rule " + ruleID, Reason: "rule file not found"}
	}
	defer file.Close()

	var rule MappingRule
	err = yaml.NewDecoder(file).Decode(&rule)
	if err != nil {
		return nil, domain.ConfigurationError{Subject: "rule " + ruleID, Reason: "malformed rule file: " + err.Error()}
	}
	rule.ID = ruleID

	if _, ok := domain.ParseDomain(rule.Domain); !ok {
		return nil, domain.ConfigurationError{Subject: "rule " + ruleID, Reason: "unknown domain " + rule.Domain}
	}
	if rule.Platform == "" {
		return nil, domain.ConfigurationError{Subject: "rule " + ruleID, Reason: "platform is empty"}
	}
	if len(rule.Mappings) == 0 {
		return nil, domain.ConfigurationError{Subject: "rule " + ruleID, Reason: "no field mappings"}
	}

	r.cache.Set(ruleID, &rule, cache.NoExpiration)
	slog.Debug("rule loaded",
		slog.String("rule", ruleID),
		slog.String("module", "rules"),
	)
	return &rule, nil
}
