package battle

import "math"

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// seqRand replays vals in order, wrapping around, and counts draws.
type seqRand struct {
	vals  []float64
	draws int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.draws%len(s.vals)]
	s.draws++
	return v
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func commoner(name string, slot int, stats Stats) Fighter {
	return Fighter{ID: name, Name: name, Level: 1, Tier: TierCommoner, Slot: slot, Stats: stats}
}
