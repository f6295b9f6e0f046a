package gpflowopt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t, ErrNotReady, "gpflowopt: scorer not ready: no successful setup")

	assert.EqualError(
		t,
		&NumericalInstabilityError{Op: "bracket widening", Detail: "bracket stopped widening"},
		"gpflowopt: bracket widening: numerical instability: bracket stopped widening",
	)

	assert.EqualError(
		t,
		&ConvergenceError{Op: "quantile search", Depth: 64, Tolerance: 0.01},
		"gpflowopt: quantile search: no convergence within depth 64 (tolerance 0.01)",
	)

	assert.EqualError(
		t,
		&InvalidModelStateError{Op: "scoring", Detail: "non-finite posterior mean"},
		"gpflowopt: scoring: invalid model state: non-finite posterior mean",
	)

	assert.EqualError(
		t,
		&ConfigurationError{Param: "GridSize", Detail: "must be positive"},
		"gpflowopt: invalid configuration: GridSize: must be positive",
	)
}

func TestInvalidModelStateErrorWrapsCause(t *testing.T) {
	cause := errors.New("backend unavailable")

	err := &InvalidModelStateError{Op: "scoring", Detail: "surrogate prediction failed", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "backend unavailable")
}
