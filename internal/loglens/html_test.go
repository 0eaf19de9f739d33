package loglens

import (
	"strings"
	"testing"
)

func TestToSafeHTMLEscapesMarkup(t *testing.T) {
	out := ToSafeHTML(`a < b & c > d "quoted"`)
	want := `a &lt; b &amp; c &gt; d &quot;quoted&quot;`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestToSafeHTMLEntityIdempotence(t *testing.T) {
	once := ToSafeHTML("tom & jerry")
	if !strings.Contains(once, "&amp;") {
		t.Fatalf("expected escaped ampersand, got %q", once)
	}
	twice := ToSafeHTML(once)
	if strings.Contains(twice, "&amp;amp;") {
		t.Fatalf("double-escaped entity: %q", twice)
	}
}

func TestToSafeHTMLNoScriptExecution(t *testing.T) {
	inputs := []string{
		`<script>alert(1)</script>`,
		`hello <script src="http://evil.test/x.js"></script> world`,
		`click javascript:alert(document.cookie)`,
		`<img src=x onerror=alert(1)>`,
		"\x1b[31m<script>bad()</script>\x1b[0m",
	}
	for _, in := range inputs {
		out := ToSafeHTML(in)
		lower := strings.ToLower(out)
		if strings.Contains(lower, "<script") {
			t.Fatalf("script tag survived: %q -> %q", in, out)
		}
		if strings.Contains(lower, "javascript:") {
			t.Fatalf("javascript scheme survived: %q -> %q", in, out)
		}
		if onAttrRe.MatchString(out) {
			t.Fatalf("inline handler survived: %q -> %q", in, out)
		}
	}
}

func TestToSafeHTMLLinkBoundary(t *testing.T) {
	out := ToSafeHTML("Check http://example.com, please.")
	want := `Check <a href="http://example.com" target="_blank" rel="noopener noreferrer">http://example.com</a>, please.`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestToSafeHTMLLinkTrailingPunctuation(t *testing.T) {
	cases := map[string]string{
		"see (http://example.com/docs) now": "http://example.com/docs",
		"ready at http://localhost:3000/":   "http://localhost:3000/",
		"failed: https://api.test/v1!":      "https://api.test/v1",
		"ref [https://go.dev/ref/spec]:":    "https://go.dev/ref/spec",
	}
	for in, url := range cases {
		out := ToSafeHTML(in)
		want := `<a href="` + url + `"`
		if !strings.Contains(out, want) {
			t.Fatalf("input %q: expected link to %q, got %q", in, url, out)
		}
	}
}

func TestToSafeHTMLLinkQueryAmpersand(t *testing.T) {
	out := ToSafeHTML("open http://e.test/a?b=1&c=2 now")
	if !strings.Contains(out, `href="http://e.test/a?b=1&amp;c=2"`) {
		t.Fatalf("href should carry escaped query: %q", out)
	}
	if !strings.Contains(out, `>http://e.test/a?b=1&amp;c=2</a>`) {
		t.Fatalf("anchor body should span the full URL: %q", out)
	}
}

func TestToSafeHTMLLinkSplitByColorCodes(t *testing.T) {
	out := ToSafeHTML("see \x1b[32mhttp://ex\x1b[0mample.com/x now")
	if !strings.Contains(out, `href="http://example.com/x"`) {
		t.Fatalf("URL split by SGR codes should still be linked: %q", out)
	}
	if strings.Count(out, "<a ") != 1 {
		t.Fatalf("expected exactly one anchor: %q", out)
	}
}

func TestToSafeHTMLNoDoubleWrap(t *testing.T) {
	// The same URL twice: both occurrences are wrapped, once each.
	out := ToSafeHTML("http://a.test and http://a.test")
	if got := strings.Count(out, "<a "); got != 2 {
		t.Fatalf("expected 2 anchors, got %d: %q", got, out)
	}
	if strings.Contains(out, "<a <a") || strings.Contains(out, "</a></a>") {
		t.Fatalf("nested anchors: %q", out)
	}
}

func TestToSafeHTMLPrefixURLs(t *testing.T) {
	out := ToSafeHTML("root http://a.test and deep http://a.test/sub/page")
	if !strings.Contains(out, `href="http://a.test/sub/page"`) {
		t.Fatalf("longer URL should be linked whole: %q", out)
	}
	if got := strings.Count(out, "<a "); got != 2 {
		t.Fatalf("expected 2 anchors, got %d: %q", got, out)
	}
}

func TestToSafeHTMLDeterministic(t *testing.T) {
	in := "\x1b[1;31mfail\x1b[0m at http://x.test/a?q=1&r=2, retrying"
	first := ToSafeHTML(in)
	for i := 0; i < 50; i++ {
		if got := ToSafeHTML(in); got != first {
			t.Fatalf("output changed between calls")
		}
	}
}

func TestEscapeTextPreservesEntities(t *testing.T) {
	cases := map[string]string{
		"&amp;":     "&amp;",
		"&lt;x&gt;": "&lt;x&gt;",
		"&#39;":     "&#39;",
		"&#x1F;":    "&#x1F;",
		"&":         "&amp;",
		"a & b":     "a &amp; b",
		"&bogus":    "&amp;bogus",
		"&;":        "&amp;;",
		"&#;":       "&amp;#;",
	}
	for in, want := range cases {
		if got := escapeText(in); got != want {
			t.Fatalf("escapeText(%q) = %q, want %q", in, got, want)
		}
	}
}
