package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/scheduler"
	"github.com/Zachkp/zach-dev-sky/internal/skills"
)

// Rows reserved under the sky for the status line.
const statusRows = 1

type (
	sceneMsg  struct{ scene background.Scene }
	layoutMsg struct{ cols int }
	errMsg    struct{ err error }
)

// liveModel is a terminal surface driven by a scheduler. The scheduler reads
// the geometry from its own goroutines, so the size fields sit behind mu.
type liveModel struct {
	mu      sync.Mutex
	cols    int
	rows    int
	screens int

	sched  *scheduler.Scheduler
	graph  *skills.Graph
	scene  background.Scene
	ready  bool
	err    error
	offset int

	rects map[string]skills.Rect
	lines []skills.Line
	focus int
}

func newLiveModel(graph *skills.Graph, cols, rows int) *liveModel {
	return &liveModel{cols: cols, rows: rows, screens: 1, graph: graph}
}

// attach builds the scheduler that feeds p. It must run before p starts.
func (m *liveModel) attach(p *tea.Program, sd string, policy scheduler.Policy, cfg schedulerSettings) {
	m.sched = scheduler.New(scheduler.Config{
		Seed:     sd,
		Policy:   policy,
		Options:  background.Options{Variant: cfg.variant, Cards: projectIDs()},
		Debounce: cfg.debounce,
		Geometry: m.geometry,
		Surface: scheduler.SurfaceFunc(func(scene background.Scene) {
			p.Send(sceneMsg{scene})
		}),
		Reposition: func(geo background.Geometry) {
			p.Send(layoutMsg{cols: int(geo.ViewportWidth / colPx)})
		},
		Logger: cfg.logger,
	})
}

func (m *liveModel) geometry() background.Geometry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return terminalGeometry(m.cols, m.skyRows(), m.screens)
}

// skyRows is the visible sky height. Callers hold mu.
func (m *liveModel) skyRows() int {
	footer := statusRows
	for _, r := range m.rects {
		footer = max(footer, int(r.Top)+1+statusRows)
	}
	return max(m.rows-footer, 1)
}

func (m *liveModel) Init() tea.Cmd {
	m.relayout(m.cols)
	return func() tea.Msg {
		if _, err := m.sched.Load(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.cols, m.rows = msg.Width, msg.Height
		m.mu.Unlock()
		m.sched.WindowResized()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.sched.Stop()
			return m, tea.Quit
		case "a":
			m.setScreens(1)
		case "d":
			m.setScreens(-1)
		case "j", "down":
			m.scroll(1)
		case "k", "up":
			m.scroll(-1)
		case "tab":
			if n := len(m.graph.Skills()); n > 0 {
				m.focus = (m.focus + 1) % n
			}
		case "r":
			return m, func() tea.Msg {
				if _, err := m.sched.Render(); err != nil {
					return errMsg{err}
				}
				return nil
			}
		}

	case sceneMsg:
		m.scene, m.ready = msg.scene, true
		m.scroll(0)

	case layoutMsg:
		m.relayout(msg.cols)

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// setScreens grows or shrinks the simulated content by delta viewports.
func (m *liveModel) setScreens(delta int) {
	m.mu.Lock()
	m.screens = min(max(m.screens+delta, 1), int(background.MaxRatio))
	m.mu.Unlock()
	m.sched.ContentResized()
}

func (m *liveModel) scroll(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	maxOffset := m.skyRows()*m.screens - m.skyRows()
	m.offset = min(max(m.offset+delta, 0), max(maxOffset, 0))
}

// relayout recomputes the skill positions and connection lines for a
// terminal cols wide.
func (m *liveModel) relayout(cols int) {
	rects := layoutSkills(m.graph, cols)
	m.mu.Lock()
	m.rects = rects
	m.mu.Unlock()
	m.lines = m.graph.Lines(rects, skills.Rect{})
}

func (m *liveModel) highlight() skills.Highlight {
	names := m.graph.Skills()
	if len(names) == 0 {
		return skills.Highlight{}
	}
	return m.graph.Highlight(names[m.focus%len(names)], m.lines)
}

func (m *liveModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}
	if !m.ready {
		return "loading sky...\n"
	}

	m.mu.Lock()
	cols, rows, screens, offset := m.cols, m.skyRows(), m.screens, m.offset
	rects := m.rects
	m.mu.Unlock()

	sky := renderSky(m.scene, cols, rows*screens)
	end := min(offset+rows, len(sky))
	view := sky[min(offset, end):end]

	h := m.highlight()
	out := make([]string, 0, len(view)+len(rects)+statusRows)
	out = append(out, view...)
	out = append(out, renderSkills(m.graph, rects, h, cols)...)
	out = append(out, statusStyle.Render(fmt.Sprintf("%s  pass %d  screens %d  ratio %.1f  %d links to %s  [a/d content, j/k scroll, tab skill, q quit]",
		m.sched.Seed(), m.sched.Passes(), screens, m.scene.Ratio, len(h.Lines), h.Skill)))
	return strings.Join(out, "\n")
}

// schedulerSettings carries the configured knobs into the live preview.
type schedulerSettings struct {
	variant  background.Variant
	debounce time.Duration
	logger   *log.Logger
}
