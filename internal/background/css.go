package background

import (
	"fmt"
	"strings"
)

// CSS renders the scene as a stylesheet for the web page. Selectors match the
// anchors in the page template: #sky for the backdrop, #starfield for stars and
// .bubble-card[data-card] for project cards.
func (s Scene) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* seed %s, ratio %.2f */\n", s.Seed, s.Ratio)
	fmt.Fprintf(&b, "#sky { background-image: %s; height: %.0fpx; }\n", s.Background, s.Geometry.Height())

	for i, star := range s.Stars {
		fmt.Fprintf(&b, "#starfield .star:nth-child(%d) { left: %.3f%%; top: %.1fpx; width: %dpx; height: %dpx; transition-delay: %dms; }\n",
			i+1, star.X, star.Y, star.Size, star.Size, star.DelayMS)
	}

	for _, bub := range s.Bubbles {
		sel := fmt.Sprintf(".bubble-card[data-card=%q]", bub.Card)
		fmt.Fprintf(&b, "%s .bubble-nodes { background-image: %s; }\n", sel, bub.Background())
		fmt.Fprintf(&b, "%s img { mask-image: %s; -webkit-mask-image: %s; transform: %s; }\n",
			sel, bub.Mask.CSS(), bub.Mask.CSS(), bub.Transform())
		for i, d := range bub.Accents {
			fmt.Fprintf(&b, "%s .accent:nth-child(%d) { animation-duration: %.2fs; }\n", sel, i+1, d)
		}
	}
	return b.String()
}

// Class is the class list a surface should give a star element.
func (st Star) Class() string {
	if st.Bright {
		return "star bright"
	}
	return "star"
}
