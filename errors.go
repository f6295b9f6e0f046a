package gpflowopt

import (
	"errors"
	"fmt"
)

//////
// Const, vars, types.
//////

// ErrNotReady is returned by Score when the acquisition has no valid cached
// state to score against, either because Setup was never called or because
// the most recent Setup attempt failed. Run Setup successfully before
// scoring.
var ErrNotReady = errors.New("gpflowopt: scorer not ready: no successful setup")

// NumericalInstabilityError indicates that a numerical procedure lost its
// footing: the outward bracket search stopped making progress, a search
// bracket degenerated, or an intermediate value became non-finite.
//
// Usage example:
//
//	if err := mes.Setup(); err != nil {
//	    var instability *NumericalInstabilityError
//	    if errors.As(err, &instability) {
//	        // Rescale the outputs or widen the model's noise, then retry.
//	    }
//	}
type NumericalInstabilityError struct {
	// Op names the procedure that failed, for example "bracket widening".
	Op string

	// Detail describes what went wrong.
	Detail string
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("gpflowopt: %s: numerical instability: %s", e.Op, e.Detail)
}

// ConvergenceError indicates that the bounded quantile search exhausted its
// depth budget without reaching the requested tolerance.
type ConvergenceError struct {
	// Op names the procedure that failed.
	Op string

	// Depth is the depth budget that was exhausted.
	Depth int

	// Tolerance is the tolerance that could not be met.
	Tolerance float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("gpflowopt: %s: no convergence within depth %d (tolerance %g)", e.Op, e.Depth, e.Tolerance)
}

// InvalidModelStateError indicates that the surrogate model is in no state
// to be scored against: it produced a non-positive predictive variance or
// non-finite posterior values, it failed to predict at all, or it has no
// training data.
type InvalidModelStateError struct {
	// Op names the operation that observed the bad state.
	Op string

	// Detail describes the offending model output.
	Detail string

	// Err holds the underlying surrogate error, if any.
	Err error
}

func (e *InvalidModelStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpflowopt: %s: invalid model state: %s: %v", e.Op, e.Detail, e.Err)
	}

	return fmt.Sprintf("gpflowopt: %s: invalid model state: %s", e.Op, e.Detail)
}

func (e *InvalidModelStateError) Unwrap() error {
	return e.Err
}

// ConfigurationError indicates an invalid construction parameter or a
// malformed input, such as a non-positive grid size or a candidate point
// whose dimension does not match the domain.
type ConfigurationError struct {
	// Param names the offending parameter or input.
	Param string

	// Detail describes the constraint that was violated.
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gpflowopt: invalid configuration: %s: %s", e.Param, e.Detail)
}
