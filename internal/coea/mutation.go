package coea

import "math/rand"

// Mutate flips every bit of pop in place, each independently with
// probability chi/n. The rate is not clamped: chi >= n flips every bit.
func Mutate(rng *rand.Rand, chi float64, pop *Population) {
	rate := chi / float64(pop.n)
	if rate <= 0 {
		return
	}
	for i := range pop.bits {
		if rng.Float64() < rate {
			pop.bits[i] = !pop.bits[i]
		}
	}
}
