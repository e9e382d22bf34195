package query

import (
	"strings"
	"testing"
	"time"
)

func TestSerializeKeyDeterministic(t *testing.T) {
	s := NewDefaultKeySerializer()

	type params struct {
		Page   int
		Status string
	}

	a := s.SerializeKey("facilities", params{Page: 2, Status: "pending"})
	b := s.SerializeKey("facilities", params{Page: 2, Status: "pending"})

	if a != b {
		t.Errorf("expected identical keys, got %q and %q", a, b)
	}
	if !a.HasFamily("facilities") {
		t.Errorf("expected key to belong to facilities, got %q", a)
	}
}

func TestSerializeKeyDistinguishesArgs(t *testing.T) {
	s := NewDefaultKeySerializer()

	type params struct {
		Page int
	}

	a := s.SerializeKey("facilities", params{Page: 1})
	b := s.SerializeKey("facilities", params{Page: 2})

	if a == b {
		t.Errorf("different parameters must not collide: %q", a)
	}
}

func TestSerializeKeyNoArgs(t *testing.T) {
	s := NewDefaultKeySerializer()

	if got := s.SerializeKey("customers"); got != Key("customers") {
		t.Errorf("expected bare family key, got %q", got)
	}
}

func TestSerializeKeyMapOrderIndependent(t *testing.T) {
	s := NewDefaultKeySerializer()

	// Build the same logical map twice with different insertion orders.
	m1 := map[string]string{}
	m2 := map[string]string{}
	keys := []string{"zeta", "alpha", "mike", "bravo", "echo"}
	for _, k := range keys {
		m1[k] = k + "-value"
	}
	for i := len(keys) - 1; i >= 0; i-- {
		m2[keys[i]] = keys[i] + "-value"
	}

	for i := 0; i < 50; i++ {
		if a, b := s.SerializeKey("f", m1), s.SerializeKey("f", m2); a != b {
			t.Fatalf("map serialization depends on iteration order: %q vs %q", a, b)
		}
	}
}

func TestSerializeKeyTimeValues(t *testing.T) {
	s := NewDefaultKeySerializer()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	key := string(s.SerializeKey("tours", ts))

	if !strings.Contains(key, "2025-06-01T12:00:00Z") {
		t.Errorf("expected RFC3339 timestamp in key, got %q", key)
	}
	if zero := string(s.SerializeKey("tours", time.Time{})); !strings.Contains(zero, "time:zero") {
		t.Errorf("expected zero time marker, got %q", zero)
	}
}

func TestSerializeKeyNilHandling(t *testing.T) {
	s := NewDefaultKeySerializer()

	var p *int
	var m map[string]int
	var sl []int

	tests := []struct {
		name string
		arg  any
		want string
	}{
		{"nil", nil, "nil"},
		{"nil pointer", p, "nil"},
		{"nil map", m, "map:nil"},
		{"nil slice", sl, "slice:nil"},
	}

	for _, tt := range tests {
		key := string(s.SerializeKey("f", tt.arg))
		if key != "f"+KeySeparator+tt.want {
			t.Errorf("%s: got %q, want suffix %q", tt.name, key, tt.want)
		}
	}
}

func TestSerializeKeyIgnoresUnexportedFields(t *testing.T) {
	s := NewDefaultKeySerializer()

	type params struct {
		Page   int
		hidden string
	}

	a := s.SerializeKey("f", params{Page: 1, hidden: "x"})
	b := s.SerializeKey("f", params{Page: 1, hidden: "y"})

	if a != b {
		t.Errorf("unexported fields must not affect the key: %q vs %q", a, b)
	}
}

func TestSerializeKeyDigestsLongKeys(t *testing.T) {
	s := NewDefaultKeySerializer(WithMaxKeyLength(64))

	long := strings.Repeat("x", 500)
	key := s.SerializeKey("facilities", long)

	if len(key) > 64+len("facilities")+len(KeySeparator) {
		t.Errorf("digested key too long: %d chars", len(key))
	}
	if !key.HasFamily("facilities") {
		t.Errorf("digest must preserve the family prefix, got %q", key)
	}
	if !strings.Contains(string(key), "#") {
		t.Errorf("expected digest marker in %q", key)
	}

	// Same input, same digest.
	if again := s.SerializeKey("facilities", long); again != key {
		t.Errorf("digest is not deterministic: %q vs %q", key, again)
	}
}

func TestSerializeKeyDigestDisabled(t *testing.T) {
	s := NewDefaultKeySerializer(WithMaxKeyLength(0))

	long := strings.Repeat("x", 2000)
	key := string(s.SerializeKey("f", long))

	if strings.Contains(key, "#") {
		t.Errorf("digesting should be disabled, got %q", key)
	}
	if len(key) < 2000 {
		t.Errorf("expected full-length key, got %d chars", len(key))
	}
}

func TestKeyFamily(t *testing.T) {
	tests := []struct {
		key    Key
		family string
	}{
		{Key("facilities::page:1"), "facilities"},
		{Key("facilities"), "facilities"},
		{Key(""), ""},
	}
	for _, tt := range tests {
		if got := tt.key.Family(); got != tt.family {
			t.Errorf("Family(%q) = %q, want %q", tt.key, got, tt.family)
		}
	}

	if Key("facilities::x").HasFamily("facility") {
		t.Error("prefix match must be segment-exact, not substring")
	}
}
