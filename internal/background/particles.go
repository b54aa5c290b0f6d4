package background

import (
	"fmt"
	"math"

	"github.com/Zachkp/zach-dev-sky/internal/prng"
)

const (
	// FieldParticles is how many particles drift over the hero canvas.
	FieldParticles = 50
	// BurstParticles is how many particles one burst releases.
	BurstParticles = 30
	// BurstStaggerMS spaces the burst out; particle i appears after i*BurstStaggerMS.
	BurstStaggerMS = 80
	// BurstLifetimeMS is how long a burst particle stays on the page.
	BurstLifetimeMS = 4000

	// ParticleColor is the fill of field particles.
	ParticleColor = "#00d4ff"

	fallbackWidth = 1280.0
	maxSpeed      = 0.25 // pixels per frame on either axis
)

var burstColors = [...]string{ParticleColor, "#ffffff"}

// Particle is one dot of the hero canvas. Positions are pixels inside a
// Width x Height field and velocities are pixels per animation frame.
type Particle struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Size    float64 `json:"size"` // radius in pixels
	Opacity float64 `json:"opacity"`
}

// Field is the particle canvas for one viewport.
type Field struct {
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Color     string     `json:"color"`
	Particles []Particle `json:"particles"`
}

// BurstParticle is one dot of the burst released when the about section
// scrolls into view. X and Bottom are percent of the section.
type BurstParticle struct {
	X         float64 `json:"x"`
	Bottom    float64 `json:"bottom"`
	Size      float64 `json:"size"`
	Color     string  `json:"color"`
	Glow      string  `json:"glow"`
	DurationS float64 `json:"duration_s"`
	DelayMS   int     `json:"delay_ms"`
}

// Width is the horizontal extent of the viewport, with a desktop fallback.
func (g Geometry) Width() float64 {
	if usable(g.ViewportWidth) {
		return min(g.ViewportWidth, fallbackWidth*MaxRatio)
	}
	return fallbackWidth
}

func (g Geometry) viewportHeight() float64 {
	if usable(g.ViewportHeight) {
		return min(g.ViewportHeight, fallbackHeight*MaxRatio)
	}
	return fallbackHeight
}

// NewField scatters n particles over the viewport from a stream derived from
// seed, so the field never shifts the main pass.
func NewField(seed string, geo Geometry, n int) (Field, error) {
	src, err := prng.Derive(seed, "particles")
	if err != nil {
		return Field{}, fmt.Errorf("particles: %w", err)
	}
	f := Field{Width: geo.Width(), Height: geo.viewportHeight(), Color: ParticleColor}
	f.Particles = make([]Particle, max(n, 0))
	for i := range f.Particles {
		f.Particles[i] = Particle{
			X:       prng.Float(src, 0, f.Width),
			Y:       prng.Float(src, 0, f.Height),
			VX:      prng.Float(src, -maxSpeed, maxSpeed),
			VY:      prng.Float(src, -maxSpeed, maxSpeed),
			Size:    prng.Float(src, 1, 3),
			Opacity: prng.Float(src, 0.2, 0.7),
		}
	}
	return f, nil
}

// Step advances every particle one frame, bouncing off the field edges.
func (f *Field) Step() {
	for i := range f.Particles {
		p := &f.Particles[i]
		p.X, p.VX = bounce(p.X+p.VX, p.VX, f.Width)
		p.Y, p.VY = bounce(p.Y+p.VY, p.VY, f.Height)
	}
}

// Resize rescales positions to a new field size.
func (f *Field) Resize(width, height float64) {
	if !usable(width) || !usable(height) {
		return
	}
	sx, sy := width/f.Width, height/f.Height
	for i := range f.Particles {
		f.Particles[i].X *= sx
		f.Particles[i].Y *= sy
	}
	f.Width, f.Height = width, height
}

// bounce reflects a coordinate that left [0, limit] back inside and points the
// velocity away from the edge it crossed.
func bounce(pos, v, limit float64) (float64, float64) {
	switch {
	case pos < 0:
		pos, v = -pos, math.Abs(v)
	case pos > limit:
		pos, v = 2*limit-pos, -math.Abs(v)
	}
	return min(max(pos, 0), limit), v
}

// Burst draws n burst particles, staggered BurstStaggerMS apart.
func Burst(seed string, n int) ([]BurstParticle, error) {
	src, err := prng.Derive(seed, "burst")
	if err != nil {
		return nil, fmt.Errorf("burst: %w", err)
	}
	burst := make([]BurstParticle, max(n, 0))
	for i := range burst {
		burst[i] = BurstParticle{
			X:         prng.Float(src, 0, 100),
			Bottom:    prng.Float(src, 10, 40),
			Size:      prng.Float(src, 3, 9),
			Color:     burstColors[prng.Intn(src, 0, len(burstColors))],
			Glow:      burstColors[prng.Intn(src, 0, len(burstColors))],
			DurationS: prng.Float(src, 2, 4),
			DelayMS:   i * BurstStaggerMS,
		}
	}
	return burst, nil
}
