package rules

import (
	"strings"
)

// Destination prefixes recognized in a mapping rule. A destination without
// a prefix addresses a master (canonical work) field.
const (
	DestPlatformPrefix     = "platform."
	DestPlatformAttrPrefix = "platform.attributes."
	DestDomainPrefix       = "domain."
)

// MappingRule is one declarative per-(domain, platform) schema describing
// how a raw payload maps into the canonical shape. Immutable once loaded;
// its identity is the path it was loaded from.
type MappingRule struct {
	ID       string `yaml:"-"`
	Domain   string `yaml:"domain"`
	Platform string `yaml:"platform"`

	// Mappings: source path in the raw payload -> destination path.
	Mappings map[string]string `yaml:"mappings"`

	// Normalizers run in declared order against master string fields.
	Normalizers []NormalizerStep `yaml:"normalizers"`

	// DomainFields: source key in the domain document -> typed target
	// field on the domain extension.
	DomainFields map[string]DomainField `yaml:"domainFields"`
}

// NormalizerStep names one transform and the master fields it applies to.
type NormalizerStep struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

// DomainField declares the target field and coercion type for one
// domain-document key.
type DomainField struct {
	Field string `yaml:"field"`
	Type  string `yaml:"type"`
}

// DestKind classifies a destination path.
type DestKind int

const (
	DestMaster DestKind = iota
	DestPlatform
	DestPlatformAttr
	DestDomain
)

// SplitDest returns the destination kind and the field name with the
// prefix stripped.
func SplitDest(dest string) (DestKind, string) {
	switch {
	case strings.HasPrefix(dest, DestPlatformAttrPrefix):
		return DestPlatformAttr, strings.TrimPrefix(dest, DestPlatformAttrPrefix)
	case strings.HasPrefix(dest, DestPlatformPrefix):
		return DestPlatform, strings.TrimPrefix(dest, DestPlatformPrefix)
	case strings.HasPrefix(dest, DestDomainPrefix):
		return DestDomain, strings.TrimPrefix(dest, DestDomainPrefix)
	default:
		return DestMaster, dest
	}
}
