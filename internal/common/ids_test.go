package common

import (
	"strings"
	"testing"
)

func TestNewID_PrefixAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID("o")
		if !strings.HasPrefix(id, "o_") {
			t.Fatalf("expected prefix 'o_', got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestNewID_EmptyPrefix(t *testing.T) {
	id := NewID("")
	if !strings.HasPrefix(id, "id_") {
		t.Errorf("expected fallback prefix 'id_', got %q", id)
	}
}

func TestNormalizeHandle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{" @My.User! ", "@myuser"},
		{"@admin", "@admin"},
		{"Admin", "@admin"},
		{"  spaced out  ", "@spacedout"},
		{"under_score_9", "@under_score_9"},
		{"@A!", "@a"},
		{"a", "@a"},
		{"", "@"},
		{"ñoño", "@oo"},
	}
	for _, c := range cases {
		if got := NormalizeHandle(c.in); got != c.want {
			t.Errorf("NormalizeHandle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeHandle_OnlyAllowedRunes(t *testing.T) {
	got := NormalizeHandle("@We!rd-Ch@rs 42")
	if !strings.HasPrefix(got, "@") {
		t.Fatalf("missing @ prefix: %q", got)
	}
	for _, c := range got[1:] {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			t.Errorf("disallowed rune %q in %q", c, got)
		}
	}
}
