package background

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/zach-dev-sky/internal/prng"
)

const fixtureSeed = "00000000abcdefabcdefabcdefabcdef"

var oneScreen = Geometry{PageHeight: 1000, ViewportHeight: 1000, ViewportWidth: 1600}

func mustSource(t *testing.T, seed string) *prng.Mulberry32 {
	t.Helper()
	src, err := prng.FromSeed(seed)
	require.NoError(t, err)
	return src
}

func TestStars_Golden(t *testing.T) {
	stars := Stars(mustSource(t, fixtureSeed), oneScreen)

	require.Len(t, stars, 231)
	first := stars[0]
	assert.InDelta(t, 22.32720274478197, first.X, 1e-9)
	assert.InDelta(t, 146.2021479383111, first.Y, 1e-9)
	assert.Equal(t, 1, first.Size)
	assert.False(t, first.Bright)
	assert.Equal(t, 0, first.DelayMS)
	assert.Equal(t, 15, stars[1].DelayMS)
}

func TestStars_Bounds(t *testing.T) {
	geo := Geometry{PageHeight: 3400, ViewportHeight: 850, ViewportWidth: 1280}
	stars := Stars(prng.New(77), geo)
	require.GreaterOrEqual(t, len(stars), 200)

	for i, s := range stars {
		assert.GreaterOrEqual(t, s.X, 0.0)
		assert.Less(t, s.X, 100.0)
		assert.GreaterOrEqual(t, s.Y, 0.0)
		assert.Less(t, s.Y, 3400.0)
		assert.GreaterOrEqual(t, s.Size, 1)
		assert.LessOrEqual(t, s.Size, 10)
		assert.Equal(t, s.Size >= BrightThreshold, s.Bright, "star %d", i)
		assert.Equal(t, i*StarDelayMS, s.DelayMS)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	a, err := Generate(mustSource(t, fixtureSeed), fixtureSeed, oneScreen, opts)
	require.NoError(t, err)
	b, err := Generate(mustSource(t, fixtureSeed), fixtureSeed, oneScreen, opts)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a.CSS(), b.CSS())

	// Nodes draw first, so the starfield starts later in the stream than in
	// TestStars_Golden.
	assert.Len(t, a.Nodes, 7)
	assert.Len(t, a.Stars, 213)
}

func TestGenerate_ContinuedStreamDiffers(t *testing.T) {
	src := mustSource(t, fixtureSeed)
	a, err := Generate(src, fixtureSeed, oneScreen, DefaultOptions())
	require.NoError(t, err)
	b, err := Generate(src, fixtureSeed, oneScreen, DefaultOptions())
	require.NoError(t, err)

	assert.NotEqual(t, a.Stars, b.Stars)
	// Bubble cards run on their own derived streams.
	assert.Equal(t, a.Bubbles, b.Bubbles)
}

func TestGenerate_GeometryChangesLayout(t *testing.T) {
	tall := Geometry{PageHeight: 4000, ViewportHeight: 1000, ViewportWidth: 1600}
	a, err := Generate(mustSource(t, fixtureSeed), fixtureSeed, oneScreen, DefaultOptions())
	require.NoError(t, err)
	b, err := Generate(mustSource(t, fixtureSeed), fixtureSeed, tall, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 4.0, b.Ratio)
	assert.Len(t, b.Nodes, 28)
	assert.Len(t, b.Stars, 536)
	assert.Greater(t, len(b.Stars), len(a.Stars))
}

func TestGenerate_InvalidSeed(t *testing.T) {
	_, err := Generate(prng.New(1), "xyz", oneScreen, DefaultOptions())
	assert.ErrorIs(t, err, prng.ErrInvalidSeed)
}

func TestGenerate_DegenerateGeometry(t *testing.T) {
	for _, geo := range []Geometry{
		{},
		{PageHeight: -10, ViewportHeight: 0},
		{PageHeight: math.NaN(), ViewportHeight: math.Inf(1)},
		{PageHeight: 200, ViewportHeight: 900},
	} {
		scene, err := Generate(prng.New(3), fixtureSeed, geo, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 1.0, scene.Ratio, "%+v", geo)
		assert.GreaterOrEqual(t, len(scene.Stars), 50)
		assert.NotEmpty(t, scene.Nodes)
		assert.Greater(t, geo.Height(), 0.0)
		for _, s := range scene.Stars {
			assert.GreaterOrEqual(t, s.Y, 0.0)
			assert.Less(t, s.Y, geo.Height())
		}
	}
}

func TestGeometry_Ratio(t *testing.T) {
	assert.Equal(t, 2.5, Geometry{PageHeight: 2500, ViewportHeight: 1000}.Ratio())
	assert.Equal(t, 1.0, Geometry{PageHeight: 500, ViewportHeight: 1000}.Ratio())
	assert.Equal(t, MaxRatio, Geometry{PageHeight: 1e9, ViewportHeight: 1}.Ratio())
	assert.Equal(t, 900.0, Geometry{ViewportHeight: 900}.Height())
	assert.Equal(t, fallbackHeight, Geometry{}.Height())
}

func TestNodeCount(t *testing.T) {
	m := prng.New(8)
	for i := 0; i < 500; i++ {
		n := NodeCount(m, 2, VariantLinear)
		assert.GreaterOrEqual(t, n, 12)
		assert.LessOrEqual(t, n, 20)

		r := NodeCount(m, 2, VariantRange)
		assert.GreaterOrEqual(t, r, 8)
		assert.LessOrEqual(t, r, 16)
	}
}

func TestNodes(t *testing.T) {
	nodes := Nodes(mustSource(t, fixtureSeed), fixtureSeed, oneScreen, VariantRange)
	require.NotEmpty(t, nodes)
	for i, n := range nodes {
		assert.Regexp(t, `^#[0-9a-f]{6}$`, n.Color)
		assert.GreaterOrEqual(t, n.Radius, 20.0)
		assert.Less(t, n.Radius, 45.0)
		assert.Less(t, n.Y, 1000.0)
		assert.Contains(t, Background(nodes), n.Gradient(), "node %d", i)
	}
	assert.Equal(t, len(nodes), strings.Count(Background(nodes), "radial-gradient("))
	assert.Equal(t, "none", Background(nil))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("Range")
	require.NoError(t, err)
	assert.Equal(t, VariantRange, v)

	v, err = ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantLinear, v)
	assert.Equal(t, "linear", v.String())

	_, err = ParseVariant("spiral")
	assert.Error(t, err)
}
