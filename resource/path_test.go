package resource

import "testing"

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Facility", "facilities"},
		{"PendingListing", "pending-listings"},
		{"Customer", "customers"},
		{"ServiceProvider", "service-providers"},
		{"Review", "reviews"},
		{"FAQ", "faqs"},
		{"Subscription", "subscriptions"},
		{"Blog", "blogs"},
	}

	for _, tt := range tests {
		if got := FamilyOf(tt.name); got != tt.want {
			t.Errorf("FamilyOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestToKebab(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Facility", "facility"},
		{"PendingListing", "pending-listing"},
		{"HTTPServer", "http-server"},
		{"already-kebab", "already-kebab"},
		{"snake_case", "snake-case"},
		{"With Space", "with-space"},
		{"FAQ", "faq"},
		{"v2Thing", "v2-thing"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := toKebab(tt.in); got != tt.want {
			t.Errorf("toKebab(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathBuilders(t *testing.T) {
	if got := itemPath("facilities", "abc123"); got != "/facilities/abc123" {
		t.Errorf("itemPath = %q", got)
	}
	if got := statusPath("facilities", "abc123"); got != "/facilities/update-status/abc123" {
		t.Errorf("statusPath = %q", got)
	}

	got := listPath("facilities", Params{Page: 2, Limit: 5})
	if got != "/facilities/all?limit=5&page=2" {
		t.Errorf("listPath = %q", got)
	}
}
