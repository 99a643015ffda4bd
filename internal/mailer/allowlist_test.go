package mailer

import (
	"strings"
	"testing"
)

func TestAllowlistDisabledPermitsEveryone(t *testing.T) {
	a := Allowlist{Testing: false}
	for _, email := range []string{"anyone@example.com", "other@example.org", ""} {
		if !a.Permits(email) {
			t.Errorf("disabled allowlist should permit %q", email)
		}
	}
}

func TestAllowlistTestingMode(t *testing.T) {
	a := Allowlist{Testing: true, AllowedRecipient: "verified@example.com"}

	if !a.Permits("verified@example.com") {
		t.Error("exact match should be permitted")
	}
	if !a.Permits("VERIFIED@Example.COM") {
		t.Error("matching should be case-insensitive")
	}
	if !a.Permits("  verified@example.com  ") {
		t.Error("surrounding whitespace should be ignored")
	}
	if a.Permits("other@example.com") {
		t.Error("other recipients should be rejected")
	}
	if a.Permits("") {
		t.Error("empty recipient should be rejected")
	}
}

func TestAllowlistRestrictionMessage(t *testing.T) {
	a := Allowlist{Testing: true, AllowedRecipient: "verified@example.com"}

	msg := a.RestrictionMessage()
	if !strings.Contains(msg, "verified@example.com") {
		t.Error("message should name the allowed recipient")
	}
	if msg != a.RestrictionMessage() {
		t.Error("message should be deterministic")
	}
}
