package transform

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/rules"
)

// Date layouts tried in order before falling back to the generic parser.
// Source sites disagree on locale; the list covers the formats observed
// across the supported platforms.
var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006.01.02.",
	"Jan 2, 2006",
	"2 Jan, 2006",
	"2006년 1월 2일",
	"2006년 01월 02일",
}

var bareYearRe = regexp.MustCompile(`^\d{4}$`)

// Apply walks the source document and assigns every key declared in the
// rule's domain-field mappings onto the target extension, coercing each
// value to the declared type first. One field failing to coerce or assign
// is logged and skipped; it never aborts the whole call.
func Apply(target domain.Extension, doc map[string]any, fields map[string]rules.DomainField) {
	for key, raw := range doc {
		fm, ok := fields[key]
		if !ok {
			continue
		}

		value, err := Coerce(raw, fm.Type)
		if err != nil {
			slog.Warn("field coercion skipped",
				slog.String("field", fm.Field),
				slog.String("type", fm.Type),
				slog.String("error", err.Error()),
				slog.String("module", "transform"),
			)
			continue
		}

		if err := target.Assign(fm.Field, value); err != nil {
			slog.Warn("field assignment skipped",
				slog.String("field", fm.Field),
				slog.String("error", err.Error()),
				slog.String("module", "transform"),
			)
		}
	}
}

// Coerce converts a raw payload value to the declared mapping type.
func Coerce(value any, typ string) (any, error) {
	switch typ {
	case "integer", "long":
		return coerceInt(value)
	case "date":
		return coerceDate(value)
	case "webtoon_status":
		return coerceSerialStatus(value), nil
	case "list":
		return coerceList(value), nil
	default:
		return stringify(value), nil
	}
}

func coerceInt(value any) (int64, error) {
	// Some sources wrap scalars in a single-element list.
	if list, ok := value.([]any); ok {
		if len(list) == 0 {
			return 0, fmt.Errorf("empty list for numeric field")
		}
		value = list[0]
	}

	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		n, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not numeric: %T", value)
	}
}

func coerceDate(value any) (time.Time, error) {
	s := strings.TrimSpace(stringify(value))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, nil
	}
	// A bare year is common on game listings; pin it to January 1st.
	if bareYearRe.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", s)
}

// coerceSerialStatus maps a boolean-ish completion token to one of the
// two fixed run-status strings.
func coerceSerialStatus(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return domain.SerialStatusCompleted
		}
		return domain.SerialStatusOngoing
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y", "end", "completed", "complete", "finished", "완결":
			return domain.SerialStatusCompleted
		}
		return domain.SerialStatusOngoing
	case float64:
		if v != 0 {
			return domain.SerialStatusCompleted
		}
		return domain.SerialStatusOngoing
	default:
		return domain.SerialStatusOngoing
	}
}

func coerceList(value any) []string {
	if list, ok := value.([]any); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, stringify(item))
		}
		return out
	}
	return []string{stringify(value)}
}

// stringify collapses a structured value into a string, preferring a
// "name" sub-field when the value is an object.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return name
		}
		return fmt.Sprint(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
