package loglens

import (
	"regexp"
	"sort"
	"strings"
)

// ToSafeHTML converts one raw log line (possibly containing ANSI escape
// sequences) into sanitized, linkified HTML.
//
// The pipeline: locate URLs in the ANSI-stripped text, convert SGR runs
// to styled spans with all text content entity-escaped, strip anything
// executable that could have survived, then wrap URL occurrences in
// anchors. Any panic along the way degrades to plain escaping of the
// raw text; the function never fails open to unescaped content.
func ToSafeHTML(raw string) string {
	out, _ := RenderHTML(raw)
	return out
}

// RenderHTML is ToSafeHTML plus a flag reporting whether the plain-
// escape fallback was taken, so callers can count degraded renders.
func RenderHTML(raw string) (out string, fellBack bool) {
	defer func() {
		if r := recover(); r != nil {
			out = escapeText(raw)
			fellBack = true
		}
	}()
	urls := findURLs(StripANSI(raw))
	// Longest first, so a URL that is a prefix of another never steals
	// the longer URL's occurrence.
	sort.SliceStable(urls, func(i, j int) bool { return len(urls[i]) > len(urls[j]) })
	converted := stripDangerous(convertANSI(raw))
	for _, u := range urls {
		converted = linkify(converted, u)
	}
	return converted, false
}

// escapeText entity-escapes text content. Unlike html.EscapeString it
// leaves existing entities alone, so escaping is idempotent: "&amp;"
// stays "&amp;" instead of becoming "&amp;amp;".
func escapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			if n := entityLen(s[i:]); n > 0 {
				b.WriteString(s[i : i+n])
				i += n - 1
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// entityLen reports the length of a well-formed entity at the start of
// s ("&name;", "&#123;", "&#x1f;"), or 0 when s does not begin one.
func entityLen(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}
	i := 1
	if s[i] == '#' {
		i++
		hex := false
		if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
			hex = true
			i++
		}
		start := i
		for i < len(s) && isEntityDigit(s[i], hex) {
			i++
		}
		if i == start || i >= len(s) || s[i] != ';' {
			return 0
		}
		return i + 1
	}
	start := i
	for i < len(s) && isAlphaNum(s[i]) {
		i++
	}
	if i == start || i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

func isEntityDigit(c byte, hex bool) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if !hex {
		return false
	}
	return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	scriptOpenRe  = regexp.MustCompile(`(?i)</?script\b[^>]*>?`)
	jsSchemeRe    = regexp.MustCompile(`(?i)javascript\s*:`)
	onAttrRe      = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// stripDangerous removes script tags, javascript: URIs and inline
// on*= handler attributes. Text content is already escaped when this
// runs, so these patterns should never match; the pass exists so a
// conversion bug cannot become an injection.
func stripDangerous(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = scriptOpenRe.ReplaceAllString(s, "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = onAttrRe.ReplaceAllString(s, "")
	return s
}
