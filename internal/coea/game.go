package coea

// Game supplies the zero-sum payoff and the optimality criterion the engine
// is run against. Both must be pure: Payoff may only read its individuals
// and Terminate may only read its populations.
type Game interface {
	Name() string
	// Payoff scores predator x against prey y; higher favours the predator.
	Payoff(x, y Individual) float64
	Terminate(predators, prey *Population) bool
}

type (
	PayoffFunc    func(x, y Individual) float64
	TerminateFunc func(predators, prey *Population) bool
)

type GameFuncs struct {
	Label       string
	PayoffFn    PayoffFunc
	TerminateFn TerminateFunc
}

func (g GameFuncs) Name() string {
	if g.Label == "" {
		return "custom"
	}
	return g.Label
}

func (g GameFuncs) Payoff(x, y Individual) float64 {
	return g.PayoffFn(x, y)
}

func (g GameFuncs) Terminate(predators, prey *Population) bool {
	if g.TerminateFn == nil {
		return false
	}
	return g.TerminateFn(predators, prey)
}
