package loglens

import (
	"fmt"
	"regexp"
	"strings"
)

// Keyword and exclusion lists are data, not code: callers load them
// from configuration and can tune them without touching the matcher.

// DefaultErrorKeywords match lines that indicate a failure.
var DefaultErrorKeywords = []string{
	"error", "failed", "failure", "exception", "fatal", "panic", "critical", "crash", "died",
}

// DefaultWarningKeywords match lines that deserve attention but are not failures.
var DefaultWarningKeywords = []string{
	"warn", "warning", "caution", "deprecated",
}

// BuiltinExclusions are informational lines that contain error/warning
// keywords but do not indicate a real problem. They are checked before
// both keyword tests and suppress both equally.
var BuiltinExclusions = []string{
	`Found 0 errors`,
	`Debug mode:`,
	`WARNING: This is a development server`,
	`DeprecationWarning:`,
	`ExperimentalWarning:`,
	`Debugger listening on ws://`,
	`Debugger attached`,
	`For help, see: https://nodejs\.org/en/docs/inspector`,
	`npm warn Unknown env config`,
	`\[vite\] warning: .*node_modules`,
	`Request Autofill\.\w+ failed`,
	`'Autofill\.\w+' wasn't found`,
}

// Override pins a fixed level to any message containing Text
// (case-insensitive substring). Overrides come from user configuration
// and beat keyword heuristics, but never beat stderr or an explicit
// error level.
type Override struct {
	Text  string `json:"text" mapstructure:"text"`
	Level string `json:"level" mapstructure:"level"`
}

// Rules holds the classification configuration. All pattern lists are
// compiled case-insensitively; keywords are word-boundaried.
type Rules struct {
	ErrorKeywords   []string   `mapstructure:"error_keywords"`
	WarningKeywords []string   `mapstructure:"warning_keywords"`
	Exclusions      []string   `mapstructure:"exclude"`
	UseBuiltins     *bool      `mapstructure:"use_builtins"`
	Overrides       []Override `mapstructure:"overrides"`
}

// useBuiltins defaults to true when unset.
func (r Rules) useBuiltins() bool {
	return r.UseBuiltins == nil || *r.UseBuiltins
}

// Classifier is an immutable, compiled rule set. It is safe for
// concurrent use; every method is a pure function of its arguments.
type Classifier struct {
	errorRe    *regexp.Regexp
	warningRe  *regexp.Regexp
	exclusions []*regexp.Regexp
	overrides  []compiledOverride
}

type compiledOverride struct {
	text  string // lowercased
	level Level
}

// NewClassifier compiles rules into a Classifier. Empty keyword lists
// fall back to the defaults so a partially filled config still works.
func NewClassifier(r Rules) (*Classifier, error) {
	errKw := r.ErrorKeywords
	if len(errKw) == 0 {
		errKw = DefaultErrorKeywords
	}
	warnKw := r.WarningKeywords
	if len(warnKw) == 0 {
		warnKw = DefaultWarningKeywords
	}
	errorRe, err := compileKeywords(errKw)
	if err != nil {
		return nil, fmt.Errorf("error keywords: %w", err)
	}
	warningRe, err := compileKeywords(warnKw)
	if err != nil {
		return nil, fmt.Errorf("warning keywords: %w", err)
	}

	var patterns []string
	if r.useBuiltins() {
		patterns = append(patterns, BuiltinExclusions...)
	}
	patterns = append(patterns, r.Exclusions...)
	exclusions := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("exclusion %q: %w", p, err)
		}
		exclusions = append(exclusions, re)
	}

	overrides := make([]compiledOverride, 0, len(r.Overrides))
	for _, o := range r.Overrides {
		text := strings.ToLower(strings.TrimSpace(o.Text))
		if text == "" {
			continue
		}
		lvl := ParseLevel(o.Level)
		if lvl == LevelUnset {
			return nil, fmt.Errorf("override %q: level must be info, warning or error", o.Text)
		}
		overrides = append(overrides, compiledOverride{text: text, level: lvl})
	}

	return &Classifier{
		errorRe:    errorRe,
		warningRe:  warningRe,
		exclusions: exclusions,
		overrides:  overrides,
	}, nil
}

// Default returns a Classifier built from the built-in rule lists.
func Default() *Classifier {
	c, err := NewClassifier(Rules{})
	if err != nil {
		// Built-in lists are constants; failing to compile them is a bug.
		panic(err)
	}
	return c
}

func compileKeywords(keywords []string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	if len(quoted) == 0 {
		return nil, fmt.Errorf("no keywords")
	}
	return regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}
