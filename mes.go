package gpflowopt

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//////
// Const, vars, types.
//////

const (
	// quantileGridSize is the number of lattice points laid over the
	// current bracket at each refinement level of the quantile search.
	quantileGridSize = 100

	// maxBisectDepth bounds the quantile search. Each level shrinks the
	// bracket by roughly two orders of magnitude, so a search that is going
	// to converge at all converges long before this.
	maxBisectDepth = 64

	// maxBracketWidenings bounds the outward search for the left edge of
	// the quantile bracket.
	maxBracketWidenings = 64
)

// MaxValueEntropySearch implements the max-value entropy search acquisition
// function for single-objective global optimization, introduced by Wang and
// Jegelka (2017).
//
// How it works:
//   - Setup approximates the distribution of the objective's optimum value
//     with a Gumbel fit over the model posterior, evaluated on a random
//     grid across the domain, and caches a fixed number of optimum-value
//     samples drawn from the fit.
//   - Score measures, in closed form, how much information evaluating a
//     candidate would carry about the optimum's value, averaged over the
//     cached samples.
//
// Compared to the closed-form acquisitions, scores approximate an expected
// entropy reduction, so they are non-negative and comparable across models.
//
// Key reference:
//
//	Zi Wang and Stefanie Jegelka. Max-value Entropy Search for Efficient
//	Bayesian Optimization. Proceedings of the 34th International Conference
//	on Machine Learning, PMLR 70:3627-3635, 2017.
//
// Thread safety:
// - Setup takes the write lock and runs exclusively
// - Score takes the read lock; concurrent scoring is race-free
// - The random source is only touched under the write lock.
type MaxValueEntropySearch struct {
	mu sync.RWMutex

	model  Surrogate
	domain Domain
	config MESConfig

	rng *rand.Rand

	// samples holds the cached optimum-value draws. It has exactly
	// config.NumSamples entries and is only ever rewritten wholesale by a
	// fully successful Setup.
	samples []float64
	ready   bool
}

//////
// Methods.
//////

// Setup refits the Gumbel approximation of the optimum-value distribution
// and refreshes the cached samples.
//
// The procedure:
//  1. Lay a random grid over the domain, extend it with the training
//     inputs, and query the surrogate's posterior on it.
//  2. Estimate the quartiles of the optimum-value distribution with a
//     bracketed quantile search over the grid posterior's CDF.
//  3. Fit a Gumbel distribution to the quartiles and draw NumSamples
//     values from it by inverse transform sampling.
//  4. Clear the surrogate's cache and publish the new samples.
//
// On any failure the samples and readiness from earlier successful calls
// are discarded: Score returns ErrNotReady until the next successful Setup.
// The sample buffer itself is never partially written.
//
// Errors:
// - InvalidModelStateError: no training data, non-finite outputs, a failed
//   prediction, or a degenerate posterior variance on the grid
// - NumericalInstabilityError: the quantile bracket cannot be established
//   or degenerates during the search
// - ConvergenceError: the quantile search exhausts its depth budget.
func (m *MaxValueEntropySearch) Setup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A failed refresh must not leave a stale scorer looking usable.
	m.ready = false

	x, y := m.model.TrainingData()
	if len(x) == 0 || len(y) == 0 {
		return &InvalidModelStateError{Op: "max-value entropy search setup", Detail: "no training observations"}
	}

	if len(x) != len(y) {
		return &InvalidModelStateError{Op: "max-value entropy search setup", Detail: "training inputs and outputs differ in length"}
	}

	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidModelStateError{Op: "max-value entropy search setup", Detail: "non-finite training output"}
		}
	}

	// Posterior over a random grid extended with the training inputs. The
	// training inputs anchor the estimate where the objective has actually
	// been observed.
	grid := make([][]float64, 0, m.config.GridSize+len(x))
	for i := 0; i < m.config.GridSize; i++ {
		grid = append(grid, m.domain.Sample(m.rng))
	}
	grid = append(grid, x...)

	fmean, fvar, err := posterior("max-value entropy search setup", m.model, grid)
	if err != nil {
		return err
	}

	// probf(v) is the probability that the posterior optimum over the grid
	// lies at or above v. It decreases monotonically in v.
	invStd := make([]float64, len(fvar))
	for i := range fvar {
		invStd[i] = 1 / math.Sqrt(fvar[i])
	}

	probf := func(v float64) float64 {
		var sum float64
		for i := range fmean {
			sum += normalLogCDF(-(v - fmean[i]) * invStd[i])
		}

		return math.Exp(sum)
	}

	// Initial bracket: the largest observed output on the right, the lower
	// posterior envelope on the left.
	right := floats.Max(y)

	left := math.Inf(1)
	for i := range fmean {
		if l := fmean[i] - 5*math.Sqrt(fvar[i]); l < left {
			left = l
		}
	}

	left, err = widenBracket(probf, left, right)
	if err != nil {
		return err
	}

	quartiles := make([]float64, 3)
	for i, target := range []float64{0.25, 0.5, 0.75} {
		q, err := binarySearch(probf, left, right, target, m.config.Tolerance)
		if err != nil {
			return err
		}

		quartiles[i] = q
	}

	alpha, beta := fitGumbel(quartiles[0], quartiles[1], quartiles[2])

	draws := make([]float64, m.config.NumSamples)
	for i := range draws {
		draws[i] = alpha + beta*gumbelDraw(m.rng)
	}

	// The model's cached state is tied to the training data the samples
	// were fit against. Force recomputation on the next prediction.
	m.model.ClearCache()

	copy(m.samples, draws)
	m.ready = true

	return nil
}

// Score computes the information gain score of each candidate point.
//
// For every candidate the posterior mean and variance are standardized
// against each cached optimum-value sample, and the entropy reduction the
// candidate offers about that sample is evaluated in closed form. The score
// is the average over the cached samples. Scores are non-negative; zero
// means an evaluation there reveals nothing about the optimum's value.
//
// Candidates must match the domain's dimension. The returned slice has one
// score per candidate, in order.
//
// Errors:
// - ErrNotReady: no successful Setup has run
// - ConfigurationError: a candidate's dimension does not match the domain
// - InvalidModelStateError: a failed prediction or a degenerate posterior
//   variance at a candidate.
func (m *MaxValueEntropySearch) Score(candidates [][]float64) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return nil, ErrNotReady
	}

	if len(candidates) == 0 {
		return []float64{}, nil
	}

	if err := validateCandidates(m.domain.Dim(), candidates); err != nil {
		return nil, err
	}

	fmean, fvar, err := posterior("max-value entropy search scoring", m.model, candidates)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	terms := make([]float64, len(m.samples))

	for j := range candidates {
		invStd := 1 / math.Sqrt(fvar[j])

		for k, sample := range m.samples {
			gamma := (fmean[j] - sample) * invStd

			// gamma*pdf(gamma)/(2*cdf(gamma)) - logcdf(gamma), with the
			// density ratio taken in log space so deep-tail gammas do not
			// collapse to 0/0.
			logCDF := normalLogCDF(gamma)
			terms[k] = 0.5*gamma*math.Exp(stdNormal.LogProb(gamma)-logCDF) - logCDF
		}

		scores[j] = stat.Mean(terms, nil)
	}

	return scores, nil
}

// Samples returns a copy of the cached optimum-value draws, or nil when the
// scorer is not ready.
func (m *MaxValueEntropySearch) Samples() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return nil
	}

	out := make([]float64, len(m.samples))
	copy(out, m.samples)

	return out
}

// Ready reports whether a successful Setup has produced usable samples.
func (m *MaxValueEntropySearch) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.ready
}

//////
// Factory.
//////

// DefaultMESConfig returns the standard configuration: a 10000-point grid,
// 10 optimum-value samples and a quantile search tolerance of 0.01.
func DefaultMESConfig() MESConfig {
	return MESConfig{
		GridSize:   10000,
		NumSamples: 10,
		Tolerance:  0.01,
	}
}

// NewMaxValueEntropySearch builds the acquisition for a surrogate model
// over a box-bounded domain.
//
// Parameters:
// - model: The surrogate to score against; see Surrogate
// - domain: The input space candidates are drawn from
// - config: Sampling configuration; see MESConfig and DefaultMESConfig
//
// Returns:
// - *MaxValueEntropySearch: The acquisition, not yet ready; call Setup
// - error: ConfigurationError when a parameter is out of range
//
// Usage example:
//
//	gp, _ := NewGaussianProcess(DefaultGPConfig())
//	gp.Update([]float64{0.1}, 0.2)
//	gp.Update([]float64{0.9}, 0.3)
//
//	mes, err := NewMaxValueEntropySearch(gp, Domain{{Min: 0, Max: 1}}, DefaultMESConfig())
//	if err != nil {
//	    return err
//	}
//	if err := mes.Setup(); err != nil {
//	    return err
//	}
//
//	scores, err := mes.Score([][]float64{{0.4}, {0.6}})
func NewMaxValueEntropySearch(model Surrogate, domain Domain, config MESConfig) (*MaxValueEntropySearch, error) {
	if model == nil {
		return nil, &ConfigurationError{Param: "model", Detail: "must not be nil"}
	}

	if err := domain.Validate(); err != nil {
		return nil, err
	}

	if config.GridSize <= 0 {
		return nil, &ConfigurationError{Param: "GridSize", Detail: "must be positive"}
	}

	if config.NumSamples <= 0 {
		return nil, &ConfigurationError{Param: "NumSamples", Detail: "must be positive"}
	}

	if config.Tolerance <= 0 {
		return nil, &ConfigurationError{Param: "Tolerance", Detail: "must be positive"}
	}

	rng := config.RandomState
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &MaxValueEntropySearch{
		model:   model,
		domain:  append(Domain(nil), domain...),
		config:  config,
		rng:     rng,
		samples: make([]float64, config.NumSamples),
	}, nil
}

//////
// Helper functions.
//////

// widenBracket pushes left outward until the cumulative probability at the
// bracket's left edge reaches 0.75, which guarantees that every quartile
// target lies inside [left, right]. Each step moves left geometrically
// further out. The loop is guarded: a probability curve that never
// accumulates mass, stalls, or leaves the floating point range fails
// instead of spinning.
func widenBracket(probf func(float64) float64, left, right float64) (float64, error) {
	for i := 0; i < maxBracketWidenings; i++ {
		p := probf(left)
		if math.IsNaN(p) {
			return 0, &NumericalInstabilityError{Op: "bracket widening", Detail: "cumulative probability is NaN"}
		}

		if p >= 0.75 {
			if left >= right {
				return 0, &NumericalInstabilityError{Op: "bracket widening", Detail: "bracket is empty"}
			}

			return left, nil
		}

		next := -2*left + right
		if next == left || math.IsInf(next, 0) {
			return 0, &NumericalInstabilityError{Op: "bracket widening", Detail: "bracket stopped widening"}
		}

		left = next
	}

	return 0, &NumericalInstabilityError{Op: "bracket widening", Detail: "no bracket found within the widening budget"}
}

// binarySearch finds the point where a monotonically decreasing function
// crosses target, given a bracket whose function values straddle it. Each
// level lays a descending lattice over the bracket, locates the crossing
// cell, and tightens the bracket around the cell midpoint until the
// midpoint's function value is within tol of the target. Depth is bounded:
// a bracket that cannot be tightened to tolerance within the budget reports
// ConvergenceError rather than recursing forever, and a target with no
// crossing cell reports NumericalInstabilityError.
func binarySearch(probf func(float64) float64, left, right, target, tol float64) (float64, error) {
	xs := make([]float64, quantileGridSize)
	vals := make([]float64, quantileGridSize)

	for depth := 0; depth < maxBisectDepth; depth++ {
		// Descending lattice over [left, right], so the function values
		// run ascending.
		floats.Span(xs, right, left)
		for i, x := range xs {
			vals[i] = probf(x)
		}

		i := sort.Search(len(vals), func(j int) bool { return vals[j] >= target })
		if i == 0 || i == len(vals) {
			return 0, &NumericalInstabilityError{Op: "quantile search", Detail: "target escaped the search bracket"}
		}

		mid := (xs[i-1] + xs[i]) / 2

		ev := probf(mid)
		if math.IsNaN(ev) {
			return 0, &NumericalInstabilityError{Op: "quantile search", Detail: "cumulative probability is NaN"}
		}

		if math.Abs(ev-target) <= tol {
			return mid, nil
		}

		if ev > target {
			left, right = mid, xs[i-1]
		} else {
			left, right = xs[i], mid
		}
	}

	return 0, &ConvergenceError{Op: "quantile search", Depth: maxBisectDepth, Tolerance: tol}
}

// fitGumbel recovers the location and scale of a Gumbel distribution from
// the quartiles of its CDF. Matching the interquartile spread fixes the
// scale and the median then fixes the location. For the decreasing
// probability curve produced by Setup the fitted scale comes out negative,
// which mirrors the distribution; the quantile mapping stays exact.
func fitGumbel(q1, med, q2 float64) (alpha, beta float64) {
	beta = (q1 - q2) / (math.Log(math.Log(4.0/3.0)) - math.Log(math.Log(4.0)))
	alpha = med + beta*math.Log(math.Log(2.0))

	return alpha, beta
}

// gumbelDraw samples the standard Gumbel distribution by inverse transform.
// A uniform draw of exactly zero would map to infinity, so it is rejected
// and redrawn.
func gumbelDraw(rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}

	return -math.Log(-math.Log(u))
}
