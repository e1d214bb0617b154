package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

const (
	meterFull  = "█"
	meterEmpty = "░"
)

// Gradient renders text bold with a horizontal color gradient, one color
// per grapheme cluster.
func Gradient(text string, from, to lipgloss.Color) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	var b strings.Builder
	for i, c := range blend(len(clusters), from, to) {
		b.WriteString(lipgloss.NewStyle().Foreground(c).Bold(true).Render(clusters[i]))
	}
	return b.String()
}

// Meter renders a bar of width cells, filled in proportion to value/limit.
// Filled cells shade from Success to Error so loud settings stand out.
func (t *Theme) Meter(value, limit float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if limit > 0 {
		filled = int(value / limit * float64(width))
	}
	filled = min(max(filled, 0), width)

	var b strings.Builder
	for _, c := range blend(width, t.Success, t.Error)[:filled] {
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render(meterFull))
	}
	b.WriteString(lipgloss.NewStyle().
		Foreground(t.FgSubtle).
		Render(strings.Repeat(meterEmpty, width-filled)))
	return b.String()
}

// blend returns size colors interpolated in HCL space between from and to.
func blend(size int, from, to lipgloss.Color) []lipgloss.Color {
	if size <= 0 {
		return nil
	}
	if size == 1 {
		return []lipgloss.Color{from}
	}

	c1 := toColorful(from)
	c2 := toColorful(to)
	out := make([]lipgloss.Color, size)
	for i := range size {
		f := float64(i) / float64(size-1)
		out[i] = lipgloss.Color(c1.BlendHcl(c2, f).Clamped().Hex())
	}
	return out
}

// toColorful parses a #rrggbb color. ANSI palette indexes fall back to gray.
func toColorful(c lipgloss.Color) colorful.Color {
	if col, err := colorful.Hex(string(c)); err == nil {
		return col
	}
	return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
}
