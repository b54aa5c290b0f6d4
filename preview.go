package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/skills"
)

// A terminal cell stands in for colPx by rowPx page pixels.
const (
	colPx = 8.0
	rowPx = 20.0
)

var (
	skyBase    = colorful.Color{R: 0.03, G: 0.03, B: 0.08}
	starColor  = lipgloss.Color("#e6e6f0")
	brightStar = lipgloss.Color("#ffd803")

	skillStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a1b2"))
	activeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7f5af0"))
	neighbourStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2cb67d"))
	statusStyle    = lipgloss.NewStyle().Faint(true)
)

// terminalGeometry is the page geometry of a terminal viewport cols wide and
// rows tall holding screens viewports of content.
func terminalGeometry(cols, rows, screens int) background.Geometry {
	return background.Geometry{
		PageHeight:     float64(rows*max(screens, 1)) * rowPx,
		ViewportHeight: float64(rows) * rowPx,
		ViewportWidth:  float64(cols) * colPx,
	}
}

// renderSky paints the whole page height of scene into rows lines of cols
// cells: the node gradients as cell backgrounds, stars as glyphs on top.
func renderSky(scene background.Scene, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	width := scene.Geometry.ViewportWidth
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		width = float64(cols) * colPx
	}
	height := scene.Geometry.Height()
	cellW, cellH := width/float64(cols), height/float64(rows)
	// Gradient radii are percentages of the viewport diagonal.
	diag := math.Hypot(width, height/max(scene.Ratio, 1))

	type node struct {
		x, y, r float64
		c       colorful.Color
	}
	nodes := make([]node, 0, len(scene.Nodes))
	for _, n := range scene.Nodes {
		c, err := colorful.Hex(n.Color)
		if err != nil {
			continue
		}
		nodes = append(nodes, node{x: n.X / 100 * width, y: n.Y, r: n.Radius / 100 * diag, c: c})
	}

	glyphs := make([][]rune, rows)
	bright := make([][]bool, rows)
	for y := range glyphs {
		glyphs[y] = []rune(strings.Repeat(" ", cols))
		bright[y] = make([]bool, cols)
	}
	for _, st := range scene.Stars {
		col := min(int(st.X/100*float64(cols)), cols-1)
		row := min(int(st.Y/cellH), rows-1)
		if col < 0 || row < 0 {
			continue
		}
		g := starGlyph(st.Size)
		if glyphRank(g) >= glyphRank(glyphs[row][col]) {
			glyphs[row][col] = g
			bright[row][col] = st.Bright
		}
	}

	lines := make([]string, rows)
	var b strings.Builder
	for y := range rows {
		b.Reset()
		py := (float64(y) + 0.5) * cellH
		for x := range cols {
			px := (float64(x) + 0.5) * cellW
			bg := skyBase
			for _, n := range nodes {
				d := math.Hypot(px-n.x, py-n.y)
				if d >= n.r {
					continue
				}
				bg = bg.BlendRgb(n.c, 0.6*(1-d/n.r))
			}
			style := lipgloss.NewStyle().Background(lipgloss.Color(bg.Clamped().Hex()))
			if bright[y][x] {
				style = style.Foreground(brightStar)
			} else {
				style = style.Foreground(starColor)
			}
			b.WriteString(style.Render(string(glyphs[y][x])))
		}
		lines[y] = b.String()
	}
	return lines
}

func starGlyph(size int) rune {
	switch {
	case size >= background.BrightThreshold:
		return '*'
	case size >= 3:
		return '+'
	default:
		return '·'
	}
}

func glyphRank(r rune) int {
	switch r {
	case '*':
		return 3
	case '+':
		return 2
	case '·':
		return 1
	}
	return 0
}

// layoutSkills flows the skill labels left to right, wrapping at cols, and
// returns their rectangles in cell coordinates.
func layoutSkills(g *skills.Graph, cols int) map[string]skills.Rect {
	rects := make(map[string]skills.Rect)
	x, y := 0, 0
	for _, name := range g.Skills() {
		w := len(name) + 2
		if x > 0 && x+w > cols {
			x, y = 0, y+1
		}
		rects[name] = skills.Rect{Left: float64(x), Top: float64(y), Width: float64(w), Height: 1}
		x += w
	}
	return rects
}

// renderSkills draws the skill labels in the positions layoutSkills gave
// them, lighting up focus and its neighbours.
func renderSkills(g *skills.Graph, rects map[string]skills.Rect, h skills.Highlight, cols int) []string {
	rows := 0
	for _, r := range rects {
		rows = max(rows, int(r.Top)+1)
	}
	lit := make(map[string]bool, len(h.Skills))
	for _, s := range h.Skills {
		lit[s] = true
	}

	lines := make([]string, rows)
	for y := range rows {
		var b strings.Builder
		for _, name := range g.Skills() {
			r, ok := rects[name]
			if !ok || int(r.Top) != y {
				continue
			}
			label := " " + name + " "
			switch {
			case name == h.Skill:
				b.WriteString(activeStyle.Render(label))
			case lit[name]:
				b.WriteString(neighbourStyle.Render(label))
			default:
				b.WriteString(skillStyle.Render(label))
			}
		}
		lines[y] = lipgloss.NewStyle().MaxWidth(cols).Render(b.String())
	}
	return lines
}

// renderPreview is the static terminal preview: the sky followed by the
// seed label.
func renderPreview(scene background.Scene, cols, rows int, label string) string {
	lines := renderSky(scene, cols, rows)
	lines = append(lines, statusStyle.Render(label))
	return strings.Join(lines, "\n")
}
