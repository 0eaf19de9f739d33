package loglens

// Palette holds the service color tokens. Red is deliberately absent;
// it is reserved for error rendering.
var Palette = []string{
	"#569cd6", // blue
	"#4ec9b0", // teal
	"#b5cea8", // green
	"#dcdcaa", // yellow
	"#c586c0", // purple
	"#9cdcfe", // light blue
	"#ce9178", // orange
	"#d7ba7d", // gold
}

// ServiceColor returns a deterministic color token for a service name:
// the sum of the name's character codes modulo the palette size. The
// same name always maps to the same color, across calls and restarts.
func ServiceColor(name string) string {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return Palette[sum%len(Palette)]
}
