package gpflowopt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalCDF(t *testing.T) {
	assert.Equal(t, 0.5, normalCDF(0))

	// 97.5th percentile, the usual two-sided 95% critical value.
	assert.InDelta(t, 0.975, normalCDF(1.959963984540054), 1e-10)

	assert.InDelta(t, 0.15865525393145707, normalCDF(-1), 1e-10)
}

func TestNormalPDF(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), normalPDF(0), 1e-15)
	assert.InDelta(t, 0.24197072451914337, normalPDF(1), 1e-12)
	assert.Equal(t, normalPDF(1), normalPDF(-1))
}

func TestNormalLogCDFMatchesDirectLog(t *testing.T) {
	// Where the plain log is still well conditioned the two must agree.
	for x := -10.0; x <= 6.0; x += 0.25 {
		assert.InDelta(t, math.Log(normalCDF(x)), normalLogCDF(x), 1e-9, "x=%v", x)
	}
}

func TestNormalLogCDFDeepTail(t *testing.T) {
	// The asymptotic branch takes over below -14. Erfc itself stays
	// representable down to about -37, which leaves an overlap window to
	// check the expansion against direct evaluation.
	for x := -30.0; x <= -14.5; x += 0.5 {
		direct := math.Log(0.5 * math.Erfc(-x/math.Sqrt2))
		assert.InDelta(t, direct, normalLogCDF(x), 1e-4, "x=%v", x)
	}

	// Past the underflow point the plain log is -Inf while the expansion
	// keeps producing finite, strictly decreasing values.
	assert.True(t, math.IsInf(math.Log(normalCDF(-40)), -1))

	prev := normalLogCDF(-40)
	for _, x := range []float64{-60, -100, -200} {
		v := normalLogCDF(x)

		assert.False(t, math.IsInf(v, 0), "x=%v", x)
		assert.False(t, math.IsNaN(v), "x=%v", x)
		assert.Less(t, v, prev, "x=%v", x)

		prev = v
	}
}

func TestNormalLogCDFUpperTail(t *testing.T) {
	// Within rounding distance of one the result is a tiny negative
	// number rather than a hard zero.
	v := normalLogCDF(10)
	assert.Less(t, v, 0.0)
	assert.Greater(t, v, -1e-20)

	assert.Equal(t, 0.0, normalLogCDF(40))
}
