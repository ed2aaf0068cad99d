package tui

import (
	"strings"
	"testing"
)

func TestFooterTextFormats(t *testing.T) {
	out := footerText(0.5, 0.123, 0.0049, 2)
	if !containsAll(out, []string{"Verse 50%", "Book 12.3%", "Bible 0.5%", "Rounds 2"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
