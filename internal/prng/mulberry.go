// Package prng provides the seeded Mulberry32 generator behind the procedural
// background, together with the samplers that turn its uniform stream into
// counts and sizes.
//
// A generator is an explicit value: every sampler takes the Source it draws
// from, and changing the order of calls changes everything drawn afterwards.
package prng

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
)

// ErrInvalidSeed is returned when a seed does not start with 8 hex characters.
var ErrInvalidSeed = errors.New("invalid seed")

// Source is a stream of uniform values in [0, 1).
type Source interface {
	Next() float64
}

// Mulberry32 is a 32-bit state generator. Two generators built from the same
// state produce bit-identical sequences on every platform.
type Mulberry32 struct {
	state   uint32
	initial uint32
}

// New returns a generator starting at state.
func New(state uint32) *Mulberry32 {
	return &Mulberry32{state: state, initial: state}
}

// FromSeed builds a generator from the first 8 hex characters of seed.
func FromSeed(seed string) (*Mulberry32, error) {
	state, err := ParseState(seed)
	if err != nil {
		return nil, err
	}
	return New(state), nil
}

// ParseState reads the first 8 hex characters of seed as a uint32.
func ParseState(seed string) (uint32, error) {
	if len(seed) < 8 {
		return 0, fmt.Errorf("%w: %q is shorter than 8 characters", ErrInvalidSeed, seed)
	}
	v, err := strconv.ParseUint(seed[:8], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSeed, seed[:8], err)
	}
	return uint32(v), nil
}

// Derive returns an independent stream for one decorative element, combining
// the session seed with an element-local key such as a card id.
func Derive(seed, local string) (*Mulberry32, error) {
	base, err := ParseState(seed)
	if err != nil {
		return nil, err
	}
	h := fnv.New32a()
	h.Write([]byte(local))
	return New(avalanche(base ^ h.Sum32())), nil
}

func avalanche(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16
	return x
}

// Next advances the state and returns a value in [0, 1).
func (m *Mulberry32) Next() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// State returns the current internal state.
func (m *Mulberry32) State() uint32 { return m.state }

// Reset rewinds the generator to the state it was built with.
func (m *Mulberry32) Reset() { m.state = m.initial }

// Float returns a value in [lo, hi).
func Float(src Source, lo, hi float64) float64 {
	return lo + src.Next()*(hi-lo)
}

// Intn returns an integer in [lo, hi). It returns lo when the range is empty.
func Intn(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(src.Next()*float64(hi-lo))
}
