package fountain

import (
	"math"
	"sort"
)

// XorShift32 is the deterministic PRNG used to draw fountain packet
// degrees and chunk selections. Given the same seed it always produces
// the same stream, which is what lets encoder and decoder agree on
// packet contents from a seed alone. There is no global RNG state; a
// seed is threaded through explicitly per packet.
type XorShift32 struct {
	state uint32
}

// NewXorShift32 seeds the generator. A zero seed is replaced with 1
// since xorshift32 never recovers from an all-zero state.
func NewXorShift32(seed uint32) *XorShift32 {
	if seed == 0 {
		seed = 1
	}
	return &XorShift32{state: seed}
}

// Next advances the generator and returns the next 32-bit word.
func (x *XorShift32) Next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}

// Float64 returns a value in [0, 1).
func (x *XorShift32) Float64() float64 {
	return float64(x.Next()) / (1 << 32)
}

// Intn returns a value in [0, n).
func (x *XorShift32) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(x.Next() % uint32(n))
}

// SolitonCDF returns the cumulative distribution of the Robust Soliton
// distribution over degrees 1..k, parameterised by (c, delta). cdf[i]
// is P(degree <= i+1).
func SolitonCDF(k int, c, delta float64) []float64 {
	if k <= 0 {
		return []float64{1.0}
	}
	fk := float64(k)
	rho := make([]float64, k+1) // 1-indexed; rho[0] unused
	rho[1] = 1.0 / fk
	for i := 2; i <= k; i++ {
		fi := float64(i)
		rho[i] = 1.0 / (fi * (fi - 1))
	}

	s := c * math.Log(fk/delta) * math.Sqrt(fk)
	if s < 1 {
		s = 1
	}
	tau := make([]float64, k+1)
	cutoff := int(fk / s)
	if cutoff < 1 {
		cutoff = 1
	}
	if cutoff > k {
		cutoff = k
	}
	for i := 1; i < cutoff; i++ {
		tau[i] = s / (fk * float64(i))
	}
	tau[cutoff] += s * math.Log(s/delta) / fk

	mu := make([]float64, k+1)
	z := 0.0
	for i := 1; i <= k; i++ {
		mu[i] = rho[i] + tau[i]
		z += mu[i]
	}

	cdf := make([]float64, k)
	running := 0.0
	for i := 1; i <= k; i++ {
		running += mu[i] / z
		cdf[i-1] = running
	}
	cdf[k-1] = 1.0 // guard against floating point drift
	return cdf
}

// SampleDegree draws a degree in [1, len(cdf)] from a precomputed
// Robust Soliton CDF.
func SampleDegree(rng *XorShift32, cdf []float64) int {
	u := rng.Float64()
	idx := sort.SearchFloat64s(cdf, u)
	if idx >= len(cdf) {
		idx = len(cdf) - 1
	}
	return idx + 1
}

// SampleIndices draws d distinct indices from [0, n) uniformly without
// replacement, using rejection sampling (cheap for the small degrees
// the Robust Soliton distribution actually produces relative to n).
func SampleIndices(rng *XorShift32, n, d int) []uint32 {
	if d > n {
		d = n
	}
	seen := make(map[uint32]struct{}, d)
	out := make([]uint32, 0, d)
	for len(out) < d {
		idx := uint32(rng.Intn(n))
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
