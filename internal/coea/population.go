package coea

import (
	"fmt"
	"math/rand"
	"strings"
)

// Individual is a read-only view of one bit string held by a Population.
// Views alias population storage and reflect later mutation of their slot.
type Individual struct {
	bits []bool
}

func (x Individual) Len() int {
	return len(x.bits)
}

func (x Individual) Bit(i int) bool {
	return x.bits[i]
}

func (x Individual) OnesCount() int {
	count := 0
	for _, b := range x.bits {
		if b {
			count++
		}
	}
	return count
}

func (x Individual) Bits() []bool {
	return append([]bool(nil), x.bits...)
}

func (x Individual) String() string {
	var sb strings.Builder
	sb.Grow(len(x.bits))
	for _, b := range x.bits {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Population is a fixed-shape collection of size individuals of n bits each,
// stored row-major. Only this package mutates it.
type Population struct {
	size int
	n    int
	bits []bool
}

// NewPopulation creates size individuals of n uniformly random bits.
func NewPopulation(rng *rand.Rand, size, n int) (*Population, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	p, err := newEmptyPopulation(size, n)
	if err != nil {
		return nil, err
	}
	p.randomize(rng)
	return p, nil
}

// PopulationFromBits builds a population from explicit rows, which must all
// have the same non-zero length.
func PopulationFromBits(rows [][]bool) (*Population, error) {
	if len(rows) == 0 {
		return nil, invalidConfig("population size must be > 0")
	}
	p, err := newEmptyPopulation(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != p.n {
			return nil, invalidConfig("individual %d has %d bits, want %d", i, len(row), p.n)
		}
		copy(p.row(i), row)
	}
	return p, nil
}

func newEmptyPopulation(size, n int) (*Population, error) {
	if size <= 0 {
		return nil, invalidConfig("population size must be > 0, got %d", size)
	}
	if n <= 0 {
		return nil, invalidConfig("individual length must be > 0, got %d", n)
	}
	return &Population{size: size, n: n, bits: make([]bool, size*n)}, nil
}

func (p *Population) randomize(rng *rand.Rand) {
	var word uint64
	left := 0
	for i := range p.bits {
		if left == 0 {
			word = rng.Uint64()
			left = 64
		}
		p.bits[i] = word&1 == 1
		word >>= 1
		left--
	}
}

func (p *Population) Size() int {
	return p.size
}

func (p *Population) N() int {
	return p.n
}

func (p *Population) Individual(i int) Individual {
	return Individual{bits: p.row(i)}
}

func (p *Population) OnesCounts() []int {
	counts := make([]int, p.size)
	for i := range counts {
		counts[i] = p.Individual(i).OnesCount()
	}
	return counts
}

func (p *Population) MaxOnes() int {
	best := 0
	for i := 0; i < p.size; i++ {
		if c := p.Individual(i).OnesCount(); c > best {
			best = c
		}
	}
	return best
}

func (p *Population) Clone() *Population {
	return &Population{size: p.size, n: p.n, bits: append([]bool(nil), p.bits...)}
}

func (p *Population) row(i int) []bool {
	start := i * p.n
	end := start + p.n
	return p.bits[start:end:end]
}
