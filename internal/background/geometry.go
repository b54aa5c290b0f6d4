package background

import (
	"fmt"
	"math"
	"strings"
)

// MaxRatio caps how many viewports of decoration a single pass will generate.
const MaxRatio = 40.0

// fallbackHeight is used when neither the page nor the viewport has a usable height.
const fallbackHeight = 1000.0

// Geometry is the layout information read fresh from the surface on every pass.
type Geometry struct {
	PageHeight     float64 `json:"page_height"`
	ViewportHeight float64 `json:"viewport_height"`
	ViewportWidth  float64 `json:"viewport_width"`
}

// Ratio is the page height divided by the viewport height, clamped to [1, MaxRatio].
func (g Geometry) Ratio() float64 {
	if !usable(g.PageHeight) || !usable(g.ViewportHeight) {
		return 1
	}
	return min(max(g.PageHeight/g.ViewportHeight, 1), MaxRatio)
}

// Height is the vertical extent decorations are scattered over.
func (g Geometry) Height() float64 {
	h := 0.0
	if usable(g.PageHeight) {
		h = g.PageHeight
	}
	if usable(g.ViewportHeight) {
		h = max(h, g.ViewportHeight)
	}
	if h == 0 {
		return fallbackHeight
	}
	return min(h, fallbackHeight*MaxRatio*10)
}

func usable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Variant selects how many gradient nodes a pass lays down.
type Variant int

const (
	// VariantLinear scales a single draw linearly with the page-height ratio.
	VariantLinear Variant = iota
	// VariantRange draws a uniform integer between 4 and 8 nodes per viewport.
	VariantRange
)

func (v Variant) String() string {
	switch v {
	case VariantLinear:
		return "linear"
	case VariantRange:
		return "range"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant maps "linear" or "range" to a Variant. The empty string is linear.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return VariantLinear, nil
	case "range":
		return VariantRange, nil
	}
	return VariantLinear, fmt.Errorf("unknown node variant %q", s)
}
