package loglens

import (
	"regexp"
	"strings"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>"']+`)

// trailingPunct holds characters a URL match must not end with:
// sentence punctuation and closing brackets belong to the prose around
// the link, not to the link target.
const trailingPunct = ",.;:!?)]}>"

// findURLs locates http(s) URLs in plain text, trims trailing
// punctuation and deduplicates while preserving first-seen order.
func findURLs(plain string) []string {
	matches := urlRe.FindAllString(plain, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, trailingPunct)
		if len(m) <= len("https://") {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

// linkify wraps every occurrence of url inside the already-escaped,
// ANSI-converted HTML in an anchor. The URL's character run may be
// interleaved with span tags produced by the ANSI conversion, and its
// ampersands appear entity-encoded; both are tolerated. Occurrences
// already inside an anchor are left alone.
func linkify(html, url string) string {
	var b strings.Builder
	b.Grow(len(html) + 64)
	anchorDepth := 0
	for i := 0; i < len(html); {
		if html[i] == '<' {
			end := strings.IndexByte(html[i:], '>')
			if end < 0 {
				b.WriteString(html[i:])
				break
			}
			tag := html[i : i+end+1]
			switch {
			case isAnchorOpen(tag):
				anchorDepth++
			case isAnchorClose(tag):
				if anchorDepth > 0 {
					anchorDepth--
				}
			}
			b.WriteString(tag)
			i += end + 1
			continue
		}
		if anchorDepth == 0 {
			if end, ok := matchURLRun(html, i, url); ok {
				b.WriteString(`<a href="` + escapeText(url) + `" target="_blank" rel="noopener noreferrer">`)
				b.WriteString(html[i:end])
				b.WriteString(`</a>`)
				i = end
				continue
			}
		}
		b.WriteByte(html[i])
		i++
	}
	return b.String()
}

// matchURLRun reports whether the URL's character sequence starts at
// html[i], allowing interleaved non-anchor tags and treating "&amp;"
// as a single '&'. It returns the index just past the matched run.
func matchURLRun(html string, i int, url string) (int, bool) {
	j := 0
	for j < len(url) {
		if i >= len(html) {
			return 0, false
		}
		if html[i] == '<' {
			end := strings.IndexByte(html[i:], '>')
			if end < 0 {
				return 0, false
			}
			tag := html[i : i+end+1]
			if isAnchorOpen(tag) || isAnchorClose(tag) {
				return 0, false
			}
			i += end + 1
			continue
		}
		if url[j] == '&' && strings.HasPrefix(html[i:], "&amp;") {
			i += len("&amp;")
			j++
			continue
		}
		if html[i] != url[j] {
			return 0, false
		}
		i++
		j++
	}
	if !runBoundary(html, i) {
		return 0, false
	}
	return i, true
}

// runBoundary reports whether position i is a valid end for a URL run:
// end of input, whitespace, a tag, an entity, or trailing punctuation.
// This rejects matching one URL as a bare prefix of a longer one.
func runBoundary(html string, i int) bool {
	if i >= len(html) {
		return true
	}
	c := html[i]
	if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '<' || c == '&' {
		return true
	}
	return strings.IndexByte(trailingPunct, c) >= 0
}

func isAnchorOpen(tag string) bool {
	return strings.HasPrefix(tag, "<a ") || tag == "<a>"
}

func isAnchorClose(tag string) bool {
	return tag == "</a>"
}
