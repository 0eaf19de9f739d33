package loglens

import "testing"

func TestClassifyPrecedence(t *testing.T) {
	c := Default()
	cases := []struct {
		name     string
		message  string
		explicit Level
		isStderr bool
		want     Level
	}{
		{"plain info", "server listening on :8080", LevelUnset, false, LevelInfo},
		{"error keyword", "ERROR: boom", LevelUnset, false, LevelError},
		{"failed keyword", "build failed with 2 problems", LevelUnset, false, LevelError},
		{"panic keyword", "panic: runtime error", LevelUnset, false, LevelError},
		{"warning keyword", "warn: deprecated flag", LevelUnset, false, LevelWarning},
		{"stderr forces error", "msg", LevelUnset, true, LevelError},
		{"stderr beats exclusion", "Found 0 errors", LevelUnset, true, LevelError},
		{"explicit error", "all good", LevelError, false, LevelError},
		{"explicit warning", "all good", LevelWarning, false, LevelWarning},
		{"error keyword beats explicit warning", "fatal: lost db", LevelWarning, false, LevelError},
		{"excluded error keyword", "Found 0 errors", LevelUnset, false, LevelInfo},
		{"excluded warning keyword", "WARNING: This is a development server", LevelUnset, false, LevelInfo},
		{"excluded banner", "Debug mode: off", LevelUnset, false, LevelInfo},
		{"deprecation noise", "(node:1) DeprecationWarning: Buffer() is deprecated", LevelUnset, false, LevelInfo},
		{"debugger noise", "Debugger listening on ws://127.0.0.1:9229/abc", LevelUnset, false, LevelInfo},
		{"word boundary", "terrorizing load tests", LevelUnset, false, LevelInfo},
		{"case insensitive", "Critical failure in worker", LevelUnset, false, LevelError},
		{"caution keyword", "caution: disk almost full", LevelUnset, false, LevelWarning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.message, tc.explicit, tc.isStderr)
			if got != tc.want {
				t.Fatalf("Classify(%q, %v, %v) = %v, want %v", tc.message, tc.explicit, tc.isStderr, got, tc.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := Default()
	msg := "warning: something failed badly"
	first := c.Classify(msg, LevelUnset, false)
	for i := 0; i < 100; i++ {
		if got := c.Classify(msg, LevelUnset, false); got != first {
			t.Fatalf("classification changed between calls: %v then %v", first, got)
		}
	}
}

func TestClassifyOverrides(t *testing.T) {
	c, err := NewClassifier(Rules{
		Overrides: []Override{
			{Text: "connection reset by peer", Level: "warning"},
			{Text: "migrations applied", Level: "info"},
		},
	})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if got := c.Classify("read tcp: connection reset by peer", LevelUnset, false); got != LevelWarning {
		t.Fatalf("override should demote to warning, got %v", got)
	}
	// Substring match is case-insensitive.
	if got := c.Classify("12 Migrations Applied with errors ignored", LevelUnset, false); got != LevelInfo {
		t.Fatalf("override should pin info, got %v", got)
	}
	// stderr still wins over overrides.
	if got := c.Classify("connection reset by peer", LevelUnset, true); got != LevelError {
		t.Fatalf("stderr must beat override, got %v", got)
	}
}

func TestClassifyCustomRules(t *testing.T) {
	c, err := NewClassifier(Rules{
		ErrorKeywords:   []string{"kaput"},
		WarningKeywords: []string{"wobbly"},
		Exclusions:      []string{`kaput detector armed`},
	})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if got := c.Classify("system went kaput", LevelUnset, false); got != LevelError {
		t.Fatalf("custom error keyword, got %v", got)
	}
	if got := c.Classify("disk is wobbly", LevelUnset, false); got != LevelWarning {
		t.Fatalf("custom warning keyword, got %v", got)
	}
	if got := c.Classify("kaput detector armed", LevelUnset, false); got != LevelInfo {
		t.Fatalf("custom exclusion, got %v", got)
	}
	// Default keywords are replaced, not merged.
	if got := c.Classify("error: boom", LevelUnset, false); got != LevelInfo {
		t.Fatalf("replaced keywords should not match defaults, got %v", got)
	}
}

func TestNewClassifierRejectsBadInput(t *testing.T) {
	if _, err := NewClassifier(Rules{Exclusions: []string{`(`}}); err == nil {
		t.Fatal("expected error for invalid exclusion regex")
	}
	if _, err := NewClassifier(Rules{Overrides: []Override{{Text: "x", Level: "loud"}}}); err == nil {
		t.Fatal("expected error for invalid override level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"info":    LevelInfo,
		"WARN":    LevelWarning,
		"warning": LevelWarning,
		"error":   LevelError,
		"fatal":   LevelError,
		"":        LevelUnset,
		"verbose": LevelUnset,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
