package coea

import "math/rand"

type populationPair struct {
	predators *Population
	prey      *Population
}

// generationBuffers holds two population pairs; flip promotes the scratch
// pair once every slot has been filled and mutated.
type generationBuffers struct {
	pairs  [2]populationPair
	active int
}

func (b *generationBuffers) current() populationPair {
	return b.pairs[b.active]
}

func (b *generationBuffers) scratch() populationPair {
	return b.pairs[1-b.active]
}

func (b *generationBuffers) flip() {
	b.active = 1 - b.active
}

type slotSample struct {
	i1, i2, j1, j2 []int
}

func newSlotSample(size int) *slotSample {
	return &slotSample{
		i1: make([]int, size),
		i2: make([]int, size),
		j1: make([]int, size),
		j2: make([]int, size),
	}
}

func (s *slotSample) draw(rng *rand.Rand, size int) {
	for _, indices := range [][]int{s.i1, s.i2, s.j1, s.j2} {
		for k := range indices {
			indices[k] = rng.Intn(size)
		}
	}
}

func runGeneration(rng *rand.Rand, g Game, chi float64, cur, next populationPair, sample *slotSample) error {
	size := cur.predators.size
	sample.draw(rng, size)
	for i := 0; i < size; i++ {
		x1 := cur.predators.Individual(sample.i1[i])
		x2 := cur.predators.Individual(sample.i2[i])
		y1 := cur.prey.Individual(sample.j1[i])
		y2 := cur.prey.Individual(sample.j2[i])

		keepFirst, err := Dominates(g, x1, x2, y1, y2)
		if err != nil {
			return err
		}
		if keepFirst {
			copy(next.predators.row(i), x1.bits)
			copy(next.prey.row(i), y1.bits)
		} else {
			copy(next.predators.row(i), x2.bits)
			copy(next.prey.row(i), y2.bits)
		}
	}

	Mutate(rng, chi, next.predators)
	Mutate(rng, chi, next.prey)
	return nil
}
