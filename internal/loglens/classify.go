// Package loglens derives display data from raw service log lines:
// a severity level, HTML-safe linkified markup, and a stable per-service
// color. Everything here is a pure function of its inputs; the package
// keeps no mutable state beyond compiled rule sets.
package loglens

import "strings"

// Classify assigns a severity to a log line.
//
// Priority, highest first:
//  1. stderr output or an explicit error level always classifies as error.
//  2. A user override pinning the line's text to a fixed level.
//  3. Error keywords, unless the line matches an exclusion pattern.
//  4. An explicit warning level.
//  5. Warning keywords, unless excluded.
//  6. info.
//
// The exclusion list is consulted before both keyword tests and
// suppresses both equally. Classify never fails: any input resolves to
// one of info, warning or error.
func (c *Classifier) Classify(message string, explicit Level, isStderr bool) Level {
	if isStderr || explicit == LevelError {
		return LevelError
	}
	if lvl, ok := c.override(message); ok {
		return lvl
	}
	excluded := c.excluded(message)
	if !excluded && c.errorRe.MatchString(message) {
		return LevelError
	}
	if explicit == LevelWarning {
		return LevelWarning
	}
	if !excluded && c.warningRe.MatchString(message) {
		return LevelWarning
	}
	return LevelInfo
}

func (c *Classifier) excluded(message string) bool {
	for _, re := range c.exclusions {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

func (c *Classifier) override(message string) (Level, bool) {
	if len(c.overrides) == 0 {
		return LevelUnset, false
	}
	lower := strings.ToLower(message)
	for _, o := range c.overrides {
		if strings.Contains(lower, o.text) {
			return o.level, true
		}
	}
	return LevelUnset, false
}
