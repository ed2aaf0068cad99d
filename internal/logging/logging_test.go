package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewJSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, FormatJSON)
	logger.Info("hidden")
	logger.Warn("shown", "verse", "GEN-1-1")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %s", out)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected one json line: %v (%s)", err, out)
	}
	if entry["msg"] != "shown" || entry["verse"] != "GEN-1-1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	if _, err := Setup(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
