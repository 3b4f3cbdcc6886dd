package transform

import (
	"strings"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/rules"
)

// Transform maps one raw payload through one rule into the three output
// documents: master fields for the canonical work, the platform document
// for the listing, and the domain document for the extension. It is a
// pure function of its inputs.
func Transform(payload catalog.Payload, rule *rules.MappingRule) (catalog.MasterDoc, catalog.PlatformDoc, catalog.DomainDoc) {
	master := catalog.MasterDoc{}
	platform := catalog.PlatformDoc{
		PlatformName: rule.Platform,
		Attributes:   map[string]any{},
	}
	domainDoc := catalog.DomainDoc{}

	for src, dest := range rule.Mappings {
		kind, field := rules.SplitDest(dest)
		value, present := Resolve(payload, src)

		switch kind {
		case rules.DestPlatformAttr:
			// Attribute-bag destinations keep their key even when the
			// source is absent, with a type-appropriate default, so the
			// bag shape stays stable across platforms.
			if !present {
				value = attrDefault(field)
			}
			platform.Attributes[field] = value
		case rules.DestPlatform:
			if present {
				if field == "platformName" {
					platform.PlatformName = stringify(value)
				} else {
					platform.Attributes[field] = value
				}
			}
		case rules.DestDomain:
			if present {
				domainDoc[field] = value
			}
		default:
			if present {
				master[field] = value
			}
		}
	}

	for _, step := range rule.Normalizers {
		for _, field := range step.Fields {
			if s, ok := master[field].(string); ok {
				master[field] = ApplyNormalizer(step.Name, s)
			}
		}
	}

	return master, platform, domainDoc
}

// attrDefault picks the substitute for an absent platform attribute.
func attrDefault(field string) any {
	lower := strings.ToLower(field)
	if strings.Contains(lower, "count") || strings.Contains(lower, "runtime") {
		return 0
	}
	if lower == "cast" || lower == "crew" {
		return []any{}
	}
	return ""
}
