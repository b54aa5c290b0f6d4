package prng

import "math"

const (
	starMeanPerScreen   = 150.0
	starStdDevPerScreen = 50.0
	starMinPerScreen    = 50.0

	// MaxStarRatio caps the page ratio StarCount scales by, keeping the
	// count well inside int range.
	MaxStarRatio = 1e6

	starSizeMean   = 2.0
	starSizeStdDev = 1.426
	starSizeMin    = 1
	starSizeMax    = 10

	// maxRedraws bounds the zero re-draw loop for streams that never leave 0.
	maxRedraws = 64
)

// smallestDraw is the smallest non-zero value Mulberry32 can return.
const smallestDraw = 1.0 / 4294967296.0

// Normal draws one normally distributed sample with the Box-Muller transform.
// Each call consumes two draws, plus one more for every draw that was exactly 0.
func Normal(src Source, mean, stdDev float64) float64 {
	u := nonZero(src)
	v := nonZero(src)
	z := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
	return z*stdDev + mean
}

func nonZero(src Source) float64 {
	for i := 0; i < maxRedraws; i++ {
		if u := src.Next(); u != 0 {
			return u
		}
	}
	return smallestDraw
}

// StarCount picks how many stars to scatter over a page that is ratio
// viewports tall. The result is never below floor(50 * ratio); ratios above
// MaxStarRatio count as MaxStarRatio.
func StarCount(src Source, ratio float64) int {
	ratio = clampRatio(ratio)
	minimum := int(math.Floor(starMinPerScreen * ratio))
	n := math.Floor(Normal(src, starMeanPerScreen*ratio, starStdDevPerScreen*math.Sqrt(ratio)))
	if math.IsNaN(n) || n < float64(minimum) {
		return minimum
	}
	return int(n)
}

// StarSize returns a star diameter in pixels, always within [1, 10].
func StarSize(src Source) int {
	s := math.Floor(Normal(src, starSizeMean, starSizeStdDev))
	switch {
	case math.IsNaN(s) || s < starSizeMin:
		return starSizeMin
	case s > starSizeMax:
		return starSizeMax
	}
	return int(s)
}

func clampRatio(ratio float64) float64 {
	switch {
	case math.IsNaN(ratio) || ratio < 1:
		return 1
	case ratio > MaxStarRatio:
		return MaxStarRatio
	}
	return ratio
}
