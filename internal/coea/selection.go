package coea

import (
	"fmt"
	"math"
)

// PayoffsPerSlot is the number of payoff evaluations one dominance
// tournament costs.
const PayoffsPerSlot = 3

// Dominates runs the pairwise dominance test for one replacement slot and
// reports whether (x1, y1) survive; otherwise (x2, y2) do. The pair (x1, y1)
// survives iff g(x1,y2) >= g(x1,y1) >= g(x2,y1), so ties keep (x1, y1).
// All three payoffs are evaluated on every call.
func Dominates(g Game, x1, x2, y1, y2 Individual) (keepFirst bool, err error) {
	defer recoverPlugin(&err, g, "payoff")
	against2 := g.Payoff(x1, y2)
	own := g.Payoff(x1, y1)
	rival := g.Payoff(x2, y1)
	for _, v := range [PayoffsPerSlot]float64{against2, own, rival} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false, fmt.Errorf("%w: %s payoff returned %v", ErrPluginContractViolation, g.Name(), v)
		}
	}
	return against2 >= own && own >= rival, nil
}
