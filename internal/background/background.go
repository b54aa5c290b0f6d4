// Package background turns a seed and the current page geometry into the
// decorative layers of the site: the gradient node backdrop, the starfield,
// the bubble cards and the hero particles.
//
// Everything here is a pure function of its inputs. A pass draws from the PRNG
// in a fixed order (nodes, then stars) while bubble cards and particles use
// their own derived streams, so for a fixed seed and geometry two passes on
// fresh generators are identical. Presentation surfaces apply a Scene; they never reach back in.
package background

import (
	"fmt"
	"math"
	"strings"

	"github.com/Zachkp/zach-dev-sky/internal/palette"
	"github.com/Zachkp/zach-dev-sky/internal/prng"
)

const (
	// BrightThreshold is the star size from which a star gets the bright class.
	BrightThreshold = 6
	// StarDelayMS staggers star reveal; star i fades in after i*StarDelayMS.
	StarDelayMS = 15

	bubbleColors  = 5
	bubbleNodes   = 5
	bubbleAccents = 3
)

// DefaultCards are the project cards that carry bubble decorations.
var DefaultCards = []string{"project-one", "project-two", "project-three", "project-four"}

// Node is one radial-gradient blob of the page backdrop.
type Node struct {
	X      float64 `json:"x"`      // percent of the page width
	Y      float64 `json:"y"`      // pixels from the top of the page
	Radius float64 `json:"radius"` // percent at which the colour fades out
	Color  string  `json:"color"`
}

// Gradient renders the node as a CSS radial-gradient.
func (n Node) Gradient() string {
	return fmt.Sprintf("radial-gradient(circle at %.2f%% %.0fpx, %s 0%%, transparent %.1f%%)",
		n.X, n.Y, n.Color, n.Radius)
}

// Star is one point of the starfield.
type Star struct {
	X       float64 `json:"x"` // percent of the page width
	Y       float64 `json:"y"` // pixels from the top of the page
	Size    int     `json:"size"`
	Bright  bool    `json:"bright"`
	DelayMS int     `json:"delay_ms"`
}

// Options tune a generation pass.
type Options struct {
	Variant Variant
	Cards   []string
}

// DefaultOptions returns the options used by the site.
func DefaultOptions() Options {
	return Options{Variant: VariantLinear, Cards: DefaultCards}
}

// Scene is the full set of visual parameters for one render pass.
type Scene struct {
	Seed       string          `json:"seed"`
	Geometry   Geometry        `json:"geometry"`
	Ratio      float64         `json:"ratio"`
	Nodes      []Node          `json:"nodes"`
	Background string          `json:"background"`
	Stars      []Star          `json:"stars"`
	Bubbles    []Bubble        `json:"bubbles"`
	Particles  Field           `json:"particles"`
	Burst      []BurstParticle `json:"burst"`
}

// Generate runs a full pass: gradient nodes, then stars, then bubble cards
// and particles. It returns prng.ErrInvalidSeed when seed cannot seed the
// derived streams.
func Generate(src prng.Source, seed string, geo Geometry, opts Options) (Scene, error) {
	if _, err := prng.ParseState(seed); err != nil {
		return Scene{}, err
	}
	nodes := Nodes(src, seed, geo, opts.Variant)
	stars := Stars(src, geo)
	bubbles, err := Bubbles(seed, opts.Cards)
	if err != nil {
		return Scene{}, err
	}
	field, err := NewField(seed, geo, FieldParticles)
	if err != nil {
		return Scene{}, err
	}
	burst, err := Burst(seed, BurstParticles)
	if err != nil {
		return Scene{}, err
	}
	return Scene{
		Seed:       seed,
		Geometry:   geo,
		Ratio:      geo.Ratio(),
		Nodes:      nodes,
		Background: Background(nodes),
		Stars:      stars,
		Bubbles:    bubbles,
		Particles:  field,
		Burst:      burst,
	}, nil
}

// NodeCount picks how many gradient nodes to lay over the page.
func NodeCount(src prng.Source, ratio float64, variant Variant) int {
	var n int
	switch variant {
	case VariantRange:
		n = prng.Intn(src, int(math.Floor(4*ratio)), int(math.Floor(8*ratio))+1)
	default:
		n = int(math.Floor(ratio * (6 + 4*src.Next())))
	}
	return max(n, 1)
}

// Nodes generates the gradient backdrop. Colours come from the seed palette
// by index, positions from src.
func Nodes(src prng.Source, seed string, geo Geometry, variant Variant) []Node {
	count := NodeCount(src, geo.Ratio(), variant)
	height := geo.Height()
	colors := palette.Synthesize(seed, count)

	nodes := make([]Node, count)
	for i := range nodes {
		nodes[i] = Node{
			X:      prng.Float(src, 0, 100),
			Y:      prng.Float(src, 0, height),
			Radius: prng.Float(src, 20, 45),
			Color:  colors[i],
		}
	}
	return nodes
}

// Background layers the node gradients into one background-image value.
func Background(nodes []Node) string {
	if len(nodes) == 0 {
		return "none"
	}
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.Gradient()
	}
	return strings.Join(parts, ", ")
}

// Stars generates the starfield.
func Stars(src prng.Source, geo Geometry) []Star {
	count := prng.StarCount(src, geo.Ratio())
	height := geo.Height()

	stars := make([]Star, count)
	for i := range stars {
		x := prng.Float(src, 0, 100)
		y := prng.Float(src, 0, height)
		size := prng.StarSize(src)
		stars[i] = Star{
			X:       x,
			Y:       y,
			Size:    size,
			Bright:  size >= BrightThreshold,
			DelayMS: i * StarDelayMS,
		}
	}
	return stars
}
