// Package skills lays out the connection lines of the skills network and
// works out what lights up when a skill is hovered.
package skills

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed skills.yaml
var defaultData []byte

// Graph maps each skill to the skills it is drawn connected to.
type Graph struct {
	Connections map[string][]string `yaml:"connections" json:"connections"`
}

// Default returns the graph shipped with the site.
func Default() (*Graph, error) {
	return Parse(defaultData)
}

// Parse reads a graph from YAML.
func Parse(data []byte) (*Graph, error) {
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	if g.Connections == nil {
		g.Connections = map[string][]string{}
	}
	return &g, nil
}

// Skills returns every skill with outgoing connections, sorted.
func (g *Graph) Skills() []string {
	names := make([]string, 0, len(g.Connections))
	for name := range g.Connections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Neighbors returns the skills connected to skill.
func (g *Graph) Neighbors(skill string) []string {
	return g.Connections[skill]
}

// Rect is an element's bounding box in page coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of r.
func (r Rect) Center() (x, y float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Line is one connection drawn between two skill nodes, in coordinates
// relative to the container.
type Line struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// Lines computes a line from every skill to each of its connections.
// Skills without a rectangle in nodes are not on the page and are skipped.
func (g *Graph) Lines(nodes map[string]Rect, container Rect) []Line {
	var lines []Line
	for _, from := range g.Skills() {
		r1, ok := nodes[from]
		if !ok {
			continue
		}
		for _, to := range g.Connections[from] {
			r2, ok := nodes[to]
			if !ok {
				continue
			}
			x1, y1 := r1.Center()
			x2, y2 := r2.Center()
			lines = append(lines, Line{
				From: from,
				To:   to,
				X1:   x1 - container.Left,
				Y1:   y1 - container.Top,
				X2:   x2 - container.Left,
				Y2:   y2 - container.Top,
			})
		}
	}
	return lines
}

// Highlight is what a hover over one skill lights up.
type Highlight struct {
	Skill  string   `json:"skill"`
	Skills []string `json:"skills"`
	Lines  []Line   `json:"lines"`
}

// Highlight returns the connected skills and the lines touching skill.
func (g *Graph) Highlight(skill string, lines []Line) Highlight {
	h := Highlight{Skill: skill, Skills: slices.Clone(g.Neighbors(skill))}
	for _, l := range lines {
		if l.From == skill || l.To == skill {
			h.Lines = append(h.Lines, l)
		}
	}
	return h
}
