package background

import (
	"fmt"
	"strings"

	"github.com/Zachkp/zach-dev-sky/internal/palette"
	"github.com/Zachkp/zach-dev-sky/internal/prng"
)

// BubbleNode is one gradient blob inside a bubble card. All values are percent.
type BubbleNode struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Stop  float64 `json:"stop"`
	Color string  `json:"color"`
}

// Mask is the elliptical opacity mask over a card image. All values are percent.
type Mask struct {
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
}

// CSS renders the mask as a mask-image value.
func (m Mask) CSS() string {
	return fmt.Sprintf("radial-gradient(ellipse %.1f%% %.1f%% at %.1f%% %.1f%%, black 55%%, transparent 100%%)",
		m.RX, m.RY, m.CX, m.CY)
}

// Bubble holds the decoration of one project card.
type Bubble struct {
	Card    string       `json:"card"`
	Colors  []string     `json:"colors"`
	Nodes   []BubbleNode `json:"nodes"`
	Mask    Mask         `json:"mask"`
	Rotate  float64      `json:"rotate"` // degrees
	Scale   float64      `json:"scale"`
	Accents []float64    `json:"accents"` // animation durations in seconds
}

// Background layers the card's nodes into one background-image value.
func (b Bubble) Background() string {
	parts := make([]string, len(b.Nodes))
	for i, n := range b.Nodes {
		parts[i] = fmt.Sprintf("radial-gradient(circle %.1f%% at %.1f%% %.1f%%, %s 0%%, transparent %.1f%%)",
			n.Size, n.X, n.Y, n.Color, n.Stop)
	}
	return strings.Join(parts, ", ")
}

// Transform is the CSS transform applied to the card image.
func (b Bubble) Transform() string {
	return fmt.Sprintf("rotate(%.2fdeg) scale(%.3f)", b.Rotate, b.Scale)
}

// Bubbles decorates every card from its own stream derived from seed and the
// card id, so adding or reordering cards never disturbs the others.
func Bubbles(seed string, cards []string) ([]Bubble, error) {
	bubbles := make([]Bubble, 0, len(cards))
	for _, card := range cards {
		src, err := prng.Derive(seed, card)
		if err != nil {
			return nil, fmt.Errorf("bubble %s: %w", card, err)
		}
		bubbles = append(bubbles, NewBubble(src, card))
	}
	return bubbles, nil
}

// NewBubble draws one card's decoration from src.
func NewBubble(src prng.Source, card string) Bubble {
	colors := palette.Pick(src, palette.Curated, bubbleColors)

	nodes := make([]BubbleNode, bubbleNodes)
	for i := range nodes {
		x := prng.Float(src, 0, 100)
		y := prng.Float(src, 0, 100)
		size := prng.Float(src, 40, 90)
		stop := prng.Float(src, 35, 70)
		nodes[i] = BubbleNode{X: x, Y: y, Size: size, Stop: stop, Color: colors[i%len(colors)]}
	}

	rx := prng.Float(src, 55, 80)
	ry := prng.Float(src, 45, 70)
	cx := prng.Float(src, 40, 60)
	cy := prng.Float(src, 40, 60)
	rotate := prng.Float(src, -3, 3)
	scale := prng.Float(src, 1, 1.08)

	accents := make([]float64, bubbleAccents)
	for i := range accents {
		accents[i] = prng.Float(src, 6, 12)
	}

	return Bubble{
		Card:    card,
		Colors:  colors,
		Nodes:   nodes,
		Mask:    Mask{RX: rx, RY: ry, CX: cx, CY: cy},
		Rotate:  rotate,
		Scale:   scale,
		Accents: accents,
	}
}
