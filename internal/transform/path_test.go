package transform

import (
	"testing"
)

func TestResolveNested(t *testing.T) {
	payload := map[string]any{
		"credits": map[string]any{
			"crew": []any{
				map[string]any{"name": "Bong Joon-ho"},
				map[string]any{"name": "Someone Else"},
			},
		},
	}

	value, ok := Resolve(payload, "credits.crew[0].name")
	if !ok {
		t.Fatalf("expected path to resolve")
	}
	if value != "Bong Joon-ho" {
		t.Fatalf("expected crew name, got %v", value)
	}
}

func TestResolveAbsentIsNotError(t *testing.T) {
	payload := map[string]any{"title": "Parasite"}

	cases := []string{
		"missing",
		"title.nested",
		"credits.crew[0].name",
		"title[0]",
	}
	for _, path := range cases {
		if _, ok := Resolve(payload, path); ok {
			t.Fatalf("expected %q to be absent", path)
		}
	}
}

func TestResolveIndexOutOfRange(t *testing.T) {
	payload := map[string]any{"genres": []any{"drama"}}

	if _, ok := Resolve(payload, "genres[1]"); ok {
		t.Fatalf("expected out-of-range index to be absent")
	}
	if _, ok := Resolve(payload, "genres[-1]"); ok {
		t.Fatalf("expected negative index to be absent")
	}
	value, ok := Resolve(payload, "genres[0]")
	if !ok || value != "drama" {
		t.Fatalf("expected genres[0] to resolve, got %v %v", value, ok)
	}
}

func TestResolveChainedIndices(t *testing.T) {
	payload := map[string]any{
		"matrix": []any{
			[]any{"a", "b"},
			[]any{"c", "d"},
		},
	}

	value, ok := Resolve(payload, "matrix[1][0]")
	if !ok || value != "c" {
		t.Fatalf("expected matrix[1][0] = c, got %v %v", value, ok)
	}
}
