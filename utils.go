package gpflowopt

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Helper functions.
//////

// stdNormal is the shared standard normal distribution behind every
// closed-form expression in this package.
var stdNormal = distuv.UnitNormal

// Helper used by the closed-form acquisitions to compute the cumulative
// distribution function of the standard normal distribution.
//
// Returns:
// - Probability that a standard normal random variable is less than x.
func normalCDF(x float64) float64 {
	return stdNormal.CDF(x)
}

// Helper used by the closed-form acquisitions to compute the probability
// density function of the standard normal distribution.
//
// Returns:
// - Value of the standard normal PDF at x.
func normalPDF(x float64) float64 {
	return stdNormal.Prob(x)
}

// normalLogCDF computes log(CDF(x)) for the standard normal distribution
// without underflowing in the lower tail. Taking a plain log of the CDF
// returns -Inf below roughly x = -37, which poisons every sum it enters.
//
// Three ranges:
//   - x > 6: log1p over the upper tail mass keeps precision where the CDF
//     is within rounding distance of one.
//   - -14 <= x <= 6: direct evaluation through Erfc.
//   - x < -14: asymptotic lower-tail expansion with a first-order
//     correction term.
func normalLogCDF(x float64) float64 {
	switch {
	case x > 6:
		return math.Log1p(-0.5 * math.Erfc(x/math.Sqrt2))
	case x >= -14:
		return math.Log(0.5 * math.Erfc(-x/math.Sqrt2))
	default:
		return -0.5*x*x - math.Log(-x) - 0.5*math.Log(2*math.Pi) + math.Log1p(-1/(x*x))
	}
}
