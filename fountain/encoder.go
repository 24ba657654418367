package fountain

import (
	"encoding/binary"
	"math"
	"runtime"
	"sync"
)

const (
	// DefaultSolitonC and DefaultSolitonDelta are the Robust Soliton
	// degree distribution's tuning constants. No canonical values exist
	// for this family of code; these are a conservative, widely-cited
	// pair that keeps the failure probability low at moderate N.
	DefaultSolitonC     = 0.03
	DefaultSolitonDelta = 0.5
)

// Encoder produces the deterministic sequence of fountain packets for a
// fixed set of source chunks: N systematic packets followed by M-N
// Robust-Soliton-distributed redundant packets.
type Encoder struct {
	chunks     [][]byte
	chunkSize  uint32
	redundancy float32
	cdf        []float64
}

// NewEncoder builds an encoder over n equal-size chunks. redundancy is
// the fraction of extra packets beyond the N systematic ones.
func NewEncoder(chunks [][]byte, chunkSize uint32, redundancy float32) *Encoder {
	n := len(chunks)
	var cdf []float64
	if n > 0 {
		cdf = SolitonCDF(n, DefaultSolitonC, DefaultSolitonDelta)
	}
	return &Encoder{
		chunks:     chunks,
		chunkSize:  chunkSize,
		redundancy: redundancy,
		cdf:        cdf,
	}
}

// redundancyScale fixes redundancy to six decimal digits before the
// ceiling arithmetic runs, so that a float32 value like 0.30 (stored
// as 0.300000011920929 once widened to float64) rounds back to an
// exact 300000/1e6 instead of leaking sub-ppm noise into the ceiling.
const redundancyScale = 1_000_000

// PacketCount returns M = ceil(N * (1 + redundancy)), computed with
// fixed-point integer arithmetic so exact ratios (e.g. redundancy =
// 0.30 at N = 2560) don't overshoot by one packet from float rounding.
func (e *Encoder) PacketCount() int {
	n := int64(len(e.chunks))
	rScaled := int64(math.Round(float64(e.redundancy) * redundancyScale))

	num := n*redundancyScale + n*rScaled
	m := num / redundancyScale
	if num%redundancyScale != 0 {
		m++
	}
	if m < n {
		m = n
	}
	return int(m)
}

// Generate produces all M packets in emission order: systematic packets
// first (index i has mask={i}), then M-N redundant packets with seeds
// N, N+1, .... Redundant packet generation is independent per seed and
// is fanned out across a bounded worker pool; the result is assembled
// back into emission order regardless of completion order.
func (e *Encoder) Generate() []Packet {
	n := len(e.chunks)
	m := e.PacketCount()
	packets := make([]Packet, m)

	for i := 0; i < n; i++ {
		mask := NewBitset(n)
		mask.Set(i)
		packets[i] = NewPacket(uint32(i), mask, e.chunks[i])
	}

	redundant := m - n
	if redundant <= 0 {
		return packets
	}

	workers := runtime.NumCPU()
	if workers > redundant {
		workers = redundant
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, redundant)
	for i := n; i < m; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for seed := range jobs {
				packets[seed] = e.generateRedundant(uint32(seed))
			}
		}()
	}
	wg.Wait()

	return packets
}

func (e *Encoder) generateRedundant(seed uint32) Packet {
	n := len(e.chunks)
	rng := NewXorShift32(seed)
	degree := SampleDegree(rng, e.cdf)
	indices := SampleIndices(rng, n, degree)

	payload := make([]byte, e.chunkSize)
	mask := NewBitset(n)
	for _, idx := range indices {
		mask.Set(int(idx))
		xorInto(payload, e.chunks[idx])
	}
	return NewPacket(seed, mask, payload)
}

// xorInto XORs src into dst word-by-word where possible, falling back
// to a byte tail.
func xorInto(dst, src []byte) {
	i := 0
	for ; i+8 <= len(dst) && i+8 <= len(src); i += 8 {
		w := binary.LittleEndian.Uint64(dst[i:]) ^ binary.LittleEndian.Uint64(src[i:])
		binary.LittleEndian.PutUint64(dst[i:], w)
	}
	for ; i < len(dst) && i < len(src); i++ {
		dst[i] ^= src[i]
	}
}
