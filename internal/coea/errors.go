package coea

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned before any population is created
	// when a run or population is requested with out-of-range parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrPluginContractViolation is returned when a game's payoff or
	// termination function panics or yields a non-finite payoff.
	ErrPluginContractViolation = errors.New("plugin contract violation")
)

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func recoverPlugin(err *error, game Game, op string) {
	r := recover()
	if r == nil {
		return
	}
	*err = fmt.Errorf("%w: %s %s panicked: %v", ErrPluginContractViolation, game.Name(), op, r)
}
