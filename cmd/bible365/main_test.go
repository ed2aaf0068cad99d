package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bible365/bible365/internal/config"
	"github.com/bible365/bible365/internal/model"
)

func TestParsePosition(t *testing.T) {
	cases := []struct {
		args []string
		want position
	}{
		{[]string{"gen"}, position{"GEN", 1, 1}},
		{[]string{"마가복음", "3"}, position{"MRK", 3, 1}},
		{[]string{"PSA", "23", "4"}, position{"PSA", 23, 4}},
	}
	for _, c := range cases {
		got, err := parsePosition(c.args)
		if err != nil || got != c.want {
			t.Fatalf("parsePosition(%v) = %+v, %v", c.args, got, err)
		}
	}
	for _, bad := range [][]string{{"XYZ"}, {"GEN", "0"}, {"GEN", "a"}, {}} {
		if _, err := parsePosition(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestResolveMode(t *testing.T) {
	cfg := model.Config{TeamID: 5, TeamName: "새벽반"}
	mode, err := resolveMode("", cfg)
	if err != nil || mode != (model.Team{ID: 5, Name: "새벽반"}) {
		t.Fatalf("unexpected default mode %v %v", mode, err)
	}
	mode, err = resolveMode("individual", cfg)
	if err != nil || mode != (model.Personal{}) {
		t.Fatalf("unexpected personal mode %v %v", mode, err)
	}
	mode, err = resolveMode("team:9", cfg)
	if err != nil || mode != (model.Team{ID: 9}) {
		t.Fatalf("unexpected team mode %v %v", mode, err)
	}
	if _, err := resolveMode("nobody", cfg); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestValidateConfig(t *testing.T) {
	ok := model.Config{Threshold: 0.9, BiblePath: "web.json", DefaultBookCategory: "gospels"}
	if err := validateConfig(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []model.Config{
		{Threshold: 0, BiblePath: "x"},
		{Threshold: 1.5, BiblePath: "x"},
		{Threshold: 0.9, BiblePath: ""},
		{Threshold: 0.9, BiblePath: "x", DefaultBookCategory: "apocrypha"},
		{Threshold: 0.9, BiblePath: "x", TeamID: -1},
	}
	for _, cfg := range bad {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("template should decode: %v", err)
	}
}
