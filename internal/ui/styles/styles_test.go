package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestBlend(t *testing.T) {
	from := lipgloss.Color("#000000")
	to := lipgloss.Color("#ffffff")

	assert.Empty(t, blend(0, from, to))
	assert.Equal(t, []lipgloss.Color{from}, blend(1, from, to))

	got := blend(5, from, to)
	assert.Len(t, got, 5)
	assert.Equal(t, from, got[0])
	assert.Equal(t, to, got[4])
}

func TestToColorfulFallsBackForANSI(t *testing.T) {
	c := toColorful(lipgloss.Color("240"))
	assert.InDelta(t, 0.5, c.R, 1e-9)
	assert.InDelta(t, 0.5, c.G, 1e-9)
	assert.InDelta(t, 0.5, c.B, 1e-9)
}

func TestMeter(t *testing.T) {
	th := T()
	tests := []struct {
		name      string
		value     float64
		limit     float64
		width     int
		wantFull  int
		wantEmpty int
	}{
		{"empty", 0, 10, 10, 0, 10},
		{"half", 5, 10, 10, 5, 5},
		{"full", 10, 10, 10, 10, 0},
		{"over limit clamps", 20, 10, 4, 4, 0},
		{"negative clamps", -1, 10, 4, 0, 4},
		{"zero limit", 3, 0, 4, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Meter(tt.value, tt.limit, tt.width)
			assert.Equal(t, tt.wantFull, strings.Count(got, meterFull))
			assert.Equal(t, tt.wantEmpty, strings.Count(got, meterEmpty))
		})
	}

	assert.Empty(t, th.Meter(1, 1, 0))
}

func TestGradientKeepsText(t *testing.T) {
	got := Gradient("héllo", T().Primary, T().Warning)
	for _, r := range "héllo" {
		assert.Contains(t, got, string(r))
	}
	assert.Empty(t, Gradient("", T().Primary, T().Warning))
}

func TestStylesAreCached(t *testing.T) {
	th := T()
	assert.Same(t, th.S(), th.S())
}
