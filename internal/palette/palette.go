// Package palette derives the muted background colours from the session seed.
//
// Synthesized colours read bytes straight out of the seed string by index and
// never touch the PRNG, so a palette stays put even when the code drawing
// around it changes. The curated bubble palette is ordered by a seeded shuffle.
package palette

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Zachkp/zach-dev-sky/internal/prng"
)

// seedWindow is how many leading hex characters the byte offsets rotate over.
const seedWindow = 28

const (
	grayMin = 0.05
	grayMax = 0.45
)

// hint is a small RGB bias blended into the base gray.
type hint struct{ r, g, b float64 }

var hints = [4]hint{
	{0.20, 0.03, 0.04}, // red
	{0.18, 0.09, 0.01}, // orange
	{0.15, 0.13, 0.02}, // yellow
	{0.11, 0.03, 0.17}, // purple
}

// Curated is the fixed palette bubble cards pick their accents from.
var Curated = []string{
	"#7f5af0", "#2cb67d", "#ff8906", "#f25f4c", "#e53170",
	"#3da9fc", "#ef4565", "#94a1b2", "#ffd803", "#a786df",
}

// Color returns the i-th synthesized colour for seed as "#rrggbb".
func Color(seed string, i int) string {
	v1 := byteAt(seed, i*3)
	v2 := byteAt(seed, i*5+7)
	v3 := byteAt(seed, i*7+13)
	f1, f2, f3 := float64(v1)/255, float64(v2)/255, float64(v3)/255

	lum := 0.299*f1 + 0.587*f2 + 0.114*f3
	wave := 0.04 * math.Sin(float64(i)*1.7+f1*math.Pi)
	jitter := float64((v1^v2^v3)&0x0f)/15*0.04 - 0.02
	base := min(max(grayMin+0.32*lum+wave+jitter, grayMin), grayMax)

	h := hints[((v1*v2+v3*(i+1))%len(hints)+len(hints))%len(hints)]
	var rem int
	if v2 != 0 {
		rem = v1 % v2
	}
	strength := 0.3 + 0.5*f3 + 0.2*float64(rem)/255

	c := colorful.Color{
		R: base + h.r*strength,
		G: base + h.g*strength,
		B: base + h.b*strength,
	}
	return c.Clamped().Hex()
}

// Synthesize returns n colours for seed, index 0 through n-1.
func Synthesize(seed string, n int) []string {
	if n <= 0 {
		return nil
	}
	colors := make([]string, n)
	for i := range colors {
		colors[i] = Color(seed, i)
	}
	return colors
}

// Ordered synthesizes n colours and shuffles them with src.
func Ordered(seed string, n int, src prng.Source) []string {
	return Shuffle(src, Synthesize(seed, n))
}

// Shuffle pairs every colour with one draw from src and sorts by the draw.
// It consumes exactly len(colors) draws and leaves colors untouched.
func Shuffle(src prng.Source, colors []string) []string {
	type keyed struct {
		color string
		key   float64
	}
	ks := make([]keyed, len(colors))
	for i, c := range colors {
		ks[i] = keyed{color: c, key: src.Next()}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int { return cmp.Compare(a.key, b.key) })

	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.color
	}
	return out
}

// Pick returns the first k colours of a seeded shuffle of colors.
func Pick(src prng.Source, colors []string, k int) []string {
	shuffled := Shuffle(src, colors)
	return shuffled[:min(max(k, 0), len(shuffled))]
}

// byteAt reads the two hex digits at offset (mod the seed window) as 0-255.
// Unreadable positions count as 0.
func byteAt(seed string, offset int) int {
	off := ((offset % seedWindow) + seedWindow) % seedWindow
	if off+2 > len(seed) {
		return 0
	}
	v, err := strconv.ParseUint(seed[off:off+2], 16, 8)
	if err != nil {
		return 0
	}
	return int(v)
}
