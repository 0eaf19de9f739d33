package loglens

import (
	"fmt"
	"strings"
)

// Terminal default colors used when a line carries no SGR color.
const (
	DefaultForeground = "#d4d4d4"
	DefaultBackground = "#0d0d0d"
)

// ansi16 maps the standard and bright SGR colors to hex values.
var ansi16 = [16]string{
	"#0d0d0d", "#cd3131", "#0dbc79", "#e5e510",
	"#2472c8", "#bc3fbc", "#11a8cd", "#e5e5e5",
	"#666666", "#f14c4c", "#23d18b", "#f5f543",
	"#3b8eea", "#d670d6", "#29b8db", "#ffffff",
}

// sgrState is the live text attribute set while walking a line.
type sgrState struct {
	fg, bg    string
	bold      bool
	dim       bool
	italic    bool
	underline bool
	strike    bool
	inverse   bool
}

func (s sgrState) isDefault() bool {
	return s == sgrState{}
}

// style renders the state as an inline CSS declaration.
func (s sgrState) style() string {
	fg, bg := s.fg, s.bg
	if s.inverse {
		if fg == "" {
			fg = DefaultForeground
		}
		if bg == "" {
			bg = DefaultBackground
		}
		fg, bg = bg, fg
	}
	var parts []string
	if fg != "" {
		parts = append(parts, "color:"+fg)
	}
	if bg != "" {
		parts = append(parts, "background-color:"+bg)
	}
	if s.bold {
		parts = append(parts, "font-weight:bold")
	}
	if s.dim {
		parts = append(parts, "opacity:0.7")
	}
	if s.italic {
		parts = append(parts, "font-style:italic")
	}
	if s.underline && s.strike {
		parts = append(parts, "text-decoration:underline line-through")
	} else if s.underline {
		parts = append(parts, "text-decoration:underline")
	} else if s.strike {
		parts = append(parts, "text-decoration:line-through")
	}
	return strings.Join(parts, ";")
}

// StripANSI removes all escape sequences, returning plain text suitable
// for pattern matching. Color codes can split a URL across escape
// boundaries, so URL detection always runs on this representation.
func StripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == 0x1b {
			i = skipEscape(s, i)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// skipEscape advances past one escape sequence starting at s[i] == ESC.
func skipEscape(s string, i int) int {
	if i+1 >= len(s) {
		return len(s)
	}
	switch s[i+1] {
	case '[': // CSI: parameters then a final byte in 0x40..0x7e
		j := i + 2
		for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
			j++
		}
		if j < len(s) {
			j++
		}
		return j
	case ']': // OSC: terminated by BEL or ST
		j := i + 2
		for j < len(s) {
			if s[j] == 0x07 {
				return j + 1
			}
			if s[j] == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
				return j + 2
			}
			j++
		}
		return len(s)
	default: // two-byte sequence (e.g. ESC c)
		return i + 2
	}
}

// convertANSI turns a raw line into HTML: SGR runs become styled spans,
// all text content is entity-escaped, and non-SGR escapes are dropped.
func convertANSI(raw string) string {
	var out strings.Builder
	out.Grow(len(raw) + 16)

	var state sgrState
	var text strings.Builder
	flush := func() {
		if text.Len() == 0 {
			return
		}
		escaped := escapeText(text.String())
		text.Reset()
		if state.isDefault() {
			out.WriteString(escaped)
			return
		}
		out.WriteString(`<span style="` + state.style() + `">`)
		out.WriteString(escaped)
		out.WriteString(`</span>`)
	}

	for i := 0; i < len(raw); {
		if raw[i] != 0x1b {
			text.WriteByte(raw[i])
			i++
			continue
		}
		next := skipEscape(raw, i)
		if i+1 < len(raw) && raw[i+1] == '[' && next > i && next <= len(raw) && raw[next-1] == 'm' {
			flush()
			state = applySGR(state, raw[i+2:next-1])
		}
		i = next
	}
	flush()
	return out.String()
}

// applySGR folds one SGR parameter list into the current state.
func applySGR(state sgrState, params string) sgrState {
	if params == "" {
		return sgrState{}
	}
	fields := strings.Split(params, ";")
	for i := 0; i < len(fields); i++ {
		n := atoiSafe(fields[i])
		switch {
		case n == 0:
			state = sgrState{}
		case n == 1:
			state.bold = true
		case n == 2:
			state.dim = true
		case n == 3:
			state.italic = true
		case n == 4:
			state.underline = true
		case n == 7:
			state.inverse = true
		case n == 9:
			state.strike = true
		case n == 22:
			state.bold, state.dim = false, false
		case n == 23:
			state.italic = false
		case n == 24:
			state.underline = false
		case n == 27:
			state.inverse = false
		case n == 29:
			state.strike = false
		case n >= 30 && n <= 37:
			state.fg = ansi16[n-30]
		case n == 38:
			var color string
			color, i = extendedColor(fields, i)
			state.fg = color
		case n == 39:
			state.fg = ""
		case n >= 40 && n <= 47:
			state.bg = ansi16[n-40]
		case n == 48:
			var color string
			color, i = extendedColor(fields, i)
			state.bg = color
		case n == 49:
			state.bg = ""
		case n >= 90 && n <= 97:
			state.fg = ansi16[n-90+8]
		case n >= 100 && n <= 107:
			state.bg = ansi16[n-100+8]
		}
	}
	return state
}

// extendedColor parses 38/48 extensions: "5;n" (256-color) or
// "2;r;g;b" (truecolor). Returns the color and the index of the last
// consumed field; malformed parameters yield an empty color.
func extendedColor(fields []string, i int) (string, int) {
	if i+1 >= len(fields) {
		return "", i
	}
	switch atoiSafe(fields[i+1]) {
	case 5:
		if i+2 < len(fields) {
			return ansi256(atoiSafe(fields[i+2])), i + 2
		}
		return "", i + 1
	case 2:
		if i+4 < len(fields) {
			r := clampByte(atoiSafe(fields[i+2]))
			g := clampByte(atoiSafe(fields[i+3]))
			b := clampByte(atoiSafe(fields[i+4]))
			return fmt.Sprintf("#%02x%02x%02x", r, g, b), i + 4
		}
		return "", i + 1
	default:
		return "", i + 1
	}
}

// ansi256 converts a 256-color index to hex: 0-15 standard palette,
// 16-231 the 6x6x6 cube, 232-255 the grayscale ramp.
func ansi256(n int) string {
	switch {
	case n < 0 || n > 255:
		return ""
	case n < 16:
		return ansi16[n]
	case n < 232:
		n -= 16
		steps := [6]int{0, 95, 135, 175, 215, 255}
		r := steps[n/36]
		g := steps[(n/6)%6]
		b := steps[n%6]
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	default:
		v := 8 + (n-232)*10
		return fmt.Sprintf("#%02x%02x%02x", v, v, v)
	}
}

func atoiSafe(s string) int {
	n := 0
	if s == "" {
		return 0
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return -1
		}
		n = n*10 + int(s[i]-'0')
		if n > 1<<20 {
			return -1
		}
	}
	return n
}

func clampByte(n int) int {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
