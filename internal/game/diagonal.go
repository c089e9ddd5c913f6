package game

import "pdcoea/internal/coea"

const DiagonalName = "diagonal"

// Diagonal is the diagonal game: the predator wins a contest when it has at
// least as many one-bits as the prey. Its Nash criterion is met once both
// populations hold an all-ones individual.
type Diagonal struct{}

func (Diagonal) Name() string {
	return DiagonalName
}

func (Diagonal) Payoff(x, y coea.Individual) float64 {
	if x.OnesCount() >= y.OnesCount() {
		return 1.0
	}
	return 0.0
}

func (Diagonal) Terminate(predators, prey *coea.Population) bool {
	return predators.MaxOnes() >= predators.N() && prey.MaxOnes() >= prey.N()
}
