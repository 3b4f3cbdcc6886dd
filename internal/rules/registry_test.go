package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sorabase/catalog/internal/domain"
)

const sampleRule = `
domain: game
platform: steam
mappings:
  name: title
  developers[0]: domain.developer
normalizers:
  - name: collapse_whitespace
    fields: [title]
domainFields:
  developer:
    field: developer
    type: string
`

func writeRule(t *testing.T, dir, ruleID, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, ruleID+".yaml"), []byte(content), 0644)
	if err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}
}

func TestRegistryLoad(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "game_steam", sampleRule)

	reg := NewRegistry(dir)
	rule, err := reg.Load("game_steam")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if rule.ID != "game_steam" {
		t.Fatalf("expected rule id game_steam, got %s", rule.ID)
	}
	if rule.Domain != "game" || rule.Platform != "steam" {
		t.Fatalf("unexpected rule identity: %s/%s", rule.Domain, rule.Platform)
	}
	if rule.Mappings["name"] != "title" {
		t.Fatalf("unexpected mappings: %v", rule.Mappings)
	}
	if rule.DomainFields["developer"].Type != "string" {
		t.Fatalf("unexpected domain fields: %v", rule.DomainFields)
	}
}

func TestRegistryCachesLoadedRules(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "game_steam", sampleRule)

	reg := NewRegistry(dir)
	first, err := reg.Load("game_steam")
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	// Deleting the file proves the second load never touches disk.
	os.Remove(filepath.Join(dir, "game_steam.yaml"))

	second, err := reg.Load("game_steam")
	if err != nil {
		t.Fatalf("cached load failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected the cached rule instance")
	}
}

func TestRegistryMissingRule(t *testing.T) {
	reg := NewRegistry(t.TempDir())

	_, err := reg.Load("no_such_rule")
	if err == nil {
		t.Fatalf("expected error for missing rule")
	}
	var confErr domain.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}

func TestRegistryRejectsInvalidRules(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "broken", "domain: [not\n  valid yaml")
	writeRule(t, dir, "bad_domain", "domain: music\nplatform: x\nmappings:\n  a: b\n")
	writeRule(t, dir, "no_platform", "domain: game\nmappings:\n  a: b\n")
	writeRule(t, dir, "no_mappings", "domain: game\nplatform: steam\n")

	reg := NewRegistry(dir)
	for _, ruleID := range []string{"broken", "bad_domain", "no_platform", "no_mappings"} {
		_, err := reg.Load(ruleID)
		var confErr domain.ConfigurationError
		if !errors.As(err, &confErr) {
			t.Fatalf("rule %s: expected ConfigurationError, got %v", ruleID, err)
		}
	}
}
