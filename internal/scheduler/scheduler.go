// Package scheduler decides when the background is regenerated.
//
// A Scheduler reacts to three triggers: the initial load, a change in content
// height and a viewport resize. The last two are debounced through one shared
// Debouncer so a burst of mixed events still yields a single pass.
package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/prng"
	"github.com/Zachkp/zach-dev-sky/internal/seed"
)

// DefaultDebounce is the quiet interval before a re-render.
const DefaultDebounce = 250 * time.Millisecond

// ErrNotLoaded is returned by Render before Load has run.
var ErrNotLoaded = errors.New("scheduler not loaded")

// Surface receives every generated scene. Implementations replace whatever
// they drew for the previous scene.
type Surface interface {
	Apply(scene background.Scene)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(scene background.Scene)

// Apply calls f.
func (f SurfaceFunc) Apply(scene background.Scene) { f(scene) }

// Policy controls what happens to the PRNG between passes.
type Policy int

const (
	// PolicyReseed rewinds the generator to the seed before every pass, so a
	// given seed and geometry always produce the same layout.
	PolicyReseed Policy = iota
	// PolicyContinue keeps drawing from one advancing stream. Layouts stay
	// seed-flavoured but change on every pass.
	PolicyContinue
)

func (p Policy) String() string {
	if p == PolicyContinue {
		return "continue"
	}
	return "reseed"
}

// ParsePolicy maps "reseed" or "continue" to a Policy. The empty string is reseed.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reseed":
		return PolicyReseed, nil
	case "continue":
		return PolicyContinue, nil
	}
	return PolicyReseed, fmt.Errorf("unknown render policy %q", s)
}

// Config wires a Scheduler to its surface.
type Config struct {
	// Seed is used as-is when set; otherwise Load generates one.
	Seed     string
	Policy   Policy
	Options  background.Options
	Debounce time.Duration
	// Geometry is read fresh at the start of every pass.
	Geometry func() background.Geometry
	// Surface may be nil, in which case passes are computed and dropped.
	Surface Surface
	// Reposition lays out non-procedural elements after a viewport resize.
	// It runs on its own debouncer, independent of re-rendering.
	Reposition func(background.Geometry)
	Logger     *log.Logger
}

// Scheduler owns the session seed and its generator.
type Scheduler struct {
	mu     sync.Mutex
	cfg    Config
	seed   string
	src    *prng.Mulberry32
	passes int

	render *Debouncer
	layout *Debouncer
	logger *log.Logger
}

// New returns a Scheduler that has not loaded yet.
func New(cfg Config) *Scheduler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		render: NewDebouncer(cfg.Debounce),
		layout: NewDebouncer(cfg.Debounce),
		logger: logger,
	}
}

// Load creates the session seed and generator and runs the first pass,
// dropping any re-render that was already pending.
func (s *Scheduler) Load() (background.Scene, error) {
	s.mu.Lock()
	sd := s.cfg.Seed
	if sd == "" {
		sd = seed.New()
	}
	src, err := prng.FromSeed(sd)
	if err != nil {
		s.mu.Unlock()
		return background.Scene{}, fmt.Errorf("load: %w", err)
	}
	s.seed, s.src = sd, src
	s.mu.Unlock()

	s.logger.Info("session seeded", "seed", sd, "policy", s.cfg.Policy)

	// A trigger that arrived while loading is covered by the first pass.
	var scene background.Scene
	s.render.Immediate(func() { scene, err = s.Render() })
	return scene, err
}

// Render runs one pass immediately and hands the scene to the surface.
func (s *Scheduler) Render() (background.Scene, error) {
	s.mu.Lock()
	if s.src == nil {
		s.mu.Unlock()
		return background.Scene{}, ErrNotLoaded
	}
	if s.cfg.Policy == PolicyReseed {
		s.src.Reset()
	}
	geo := s.geometry()
	scene, err := background.Generate(s.src, s.seed, geo, s.cfg.Options)
	if err != nil {
		s.mu.Unlock()
		return background.Scene{}, err
	}
	s.passes++
	pass := s.passes
	s.mu.Unlock()

	s.logger.Debug("render pass", "pass", pass, "ratio", scene.Ratio,
		"nodes", len(scene.Nodes), "stars", len(scene.Stars), "bubbles", len(scene.Bubbles))
	if s.cfg.Surface != nil {
		s.cfg.Surface.Apply(scene)
	}
	return scene, nil
}

// ContentResized schedules a re-render after the content height changed.
func (s *Scheduler) ContentResized() {
	s.render.Debounce(s.rerender)
}

// WindowResized schedules a re-render and, separately, a reposition of the
// non-procedural elements.
func (s *Scheduler) WindowResized() {
	s.render.Debounce(s.rerender)
	if s.cfg.Reposition != nil {
		s.layout.Debounce(func() { s.cfg.Reposition(s.geometry()) })
	}
}

// Stop cancels pending passes.
func (s *Scheduler) Stop() {
	s.render.Cancel()
	s.layout.Cancel()
}

// Seed returns the session seed, or "" before Load.
func (s *Scheduler) Seed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

// Passes is the number of completed render passes.
func (s *Scheduler) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

func (s *Scheduler) rerender() {
	if _, err := s.Render(); err != nil {
		s.logger.Error("re-render failed", "err", err)
	}
}

func (s *Scheduler) geometry() background.Geometry {
	if s.cfg.Geometry == nil {
		return background.Geometry{}
	}
	return s.cfg.Geometry()
}
