package catalog

import (
	"testing"
)

func TestCanonicalHashIsKeyOrderInsensitive(t *testing.T) {
	a := Payload{"title": "Parasite", "year": float64(2019), "genres": []any{"thriller"}}
	b := Payload{"genres": []any{"thriller"}, "year": float64(2019), "title": "Parasite"}

	ha, err := CanonicalHash(a)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	hb, err := CanonicalHash(b)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if ha != hb {
		t.Fatalf("same content must hash identically: %s vs %s", ha, hb)
	}
	if len(ha) != 64 {
		t.Fatalf("expected hex sha256, got %q", ha)
	}
}

func TestCanonicalHashDiffersOnContent(t *testing.T) {
	a := Payload{"title": "Parasite"}
	b := Payload{"title": "Paradise"}

	ha, _ := CanonicalHash(a)
	hb, _ := CanonicalHash(b)
	if ha == hb {
		t.Fatalf("different content must hash differently")
	}
}

func TestCanonicalHashRejectsUnserializable(t *testing.T) {
	if _, err := CanonicalHash(Payload{"bad": func() {}}); err == nil {
		t.Fatalf("expected error for unserializable payload")
	}
}
