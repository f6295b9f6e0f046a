package gpflowopt

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

//////
// Closed-form acquisition functions for Bayesian optimization.
// Each one scores candidate points by balancing exploration (trying
// uncertain areas) and exploitation (focusing on areas known to be good).
// The underlying objective is minimized and higher scores mark more
// promising candidates.
//////

// DefaultAcquisitionParams returns parameters that work well in most cases.
func DefaultAcquisitionParams() AcquisitionParams {
	return AcquisitionParams{
		Beta: 2.0,
		Xi:   0.01,
	}
}

//////
// Expected Improvement.
//////

// ExpectedImprovement scores candidates by the expected magnitude of
// improvement over the incumbent, the lowest posterior mean observed so
// far.
//
// How it works:
// - Combines the probability of improvement with the magnitude of improvement
// - Balances how likely and how large the improvement might be
// - Xi adds a minimum improvement requirement
//
// When to use:
// - Most commonly used acquisition function
// - When you want to balance the size and probability of improvement
// - In problems where the magnitude of improvement matters
//
// Example:
//
//	ei, err := NewExpectedImprovement(model, DefaultAcquisitionParams())
//	if err != nil {
//	    return err
//	}
//	if err := ei.Setup(); err != nil {
//	    return err
//	}
//	scores, err := ei.Score(candidates)
type ExpectedImprovement struct {
	mu sync.RWMutex

	model  Surrogate
	params AcquisitionParams

	// best is the incumbent cached by Setup.
	best  float64
	ready bool
}

// Setup caches the incumbent, the lowest posterior mean over the training
// inputs. Run it again after every model update.
func (ei *ExpectedImprovement) Setup() error {
	ei.mu.Lock()
	defer ei.mu.Unlock()

	ei.ready = false

	x, _ := ei.model.TrainingData()
	if len(x) == 0 {
		return &InvalidModelStateError{Op: "expected improvement setup", Detail: "no training observations"}
	}

	mean, _, err := posterior("expected improvement setup", ei.model, x)
	if err != nil {
		return err
	}

	ei.best = floats.Min(mean)
	ei.ready = true

	return nil
}

// Score computes the expected improvement of each candidate over the cached
// incumbent. Requires a successful Setup.
func (ei *ExpectedImprovement) Score(candidates [][]float64) ([]float64, error) {
	ei.mu.RLock()
	defer ei.mu.RUnlock()

	if !ei.ready {
		return nil, ErrNotReady
	}

	if len(candidates) == 0 {
		return []float64{}, nil
	}

	mean, variance, err := posterior("expected improvement", ei.model, candidates)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for j := range scores {
		sigma := math.Sqrt(variance[j])
		improvement := ei.best - mean[j] - ei.params.Xi
		z := improvement / sigma

		scores[j] = improvement*normalCDF(z) + sigma*normalPDF(z)
	}

	return scores, nil
}

// NewExpectedImprovement builds the Expected Improvement acquisition for a
// surrogate model. Of the parameters only Xi is read.
func NewExpectedImprovement(model Surrogate, params AcquisitionParams) (*ExpectedImprovement, error) {
	if model == nil {
		return nil, &ConfigurationError{Param: "model", Detail: "must not be nil"}
	}

	return &ExpectedImprovement{model: model, params: params}, nil
}

//////
// Probability of Improvement.
//////

// ProbabilityOfImprovement scores candidates by the probability that they
// improve on the incumbent by at least Xi.
//
// When to use:
// - When you want to be conservative in exploring new points
// - When you're fine with small improvements
// - In problems where being "probably better" matters more than "how much better"
type ProbabilityOfImprovement struct {
	mu sync.RWMutex

	model  Surrogate
	params AcquisitionParams

	best  float64
	ready bool
}

// Setup caches the incumbent, the lowest posterior mean over the training
// inputs. Run it again after every model update.
func (poi *ProbabilityOfImprovement) Setup() error {
	poi.mu.Lock()
	defer poi.mu.Unlock()

	poi.ready = false

	x, _ := poi.model.TrainingData()
	if len(x) == 0 {
		return &InvalidModelStateError{Op: "probability of improvement setup", Detail: "no training observations"}
	}

	mean, _, err := posterior("probability of improvement setup", poi.model, x)
	if err != nil {
		return err
	}

	poi.best = floats.Min(mean)
	poi.ready = true

	return nil
}

// Score computes the improvement probability of each candidate. Requires a
// successful Setup.
func (poi *ProbabilityOfImprovement) Score(candidates [][]float64) ([]float64, error) {
	poi.mu.RLock()
	defer poi.mu.RUnlock()

	if !poi.ready {
		return nil, ErrNotReady
	}

	if len(candidates) == 0 {
		return []float64{}, nil
	}

	mean, variance, err := posterior("probability of improvement", poi.model, candidates)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for j := range scores {
		z := (poi.best - mean[j] - poi.params.Xi) / math.Sqrt(variance[j])
		scores[j] = normalCDF(z)
	}

	return scores, nil
}

// NewProbabilityOfImprovement builds the Probability of Improvement
// acquisition for a surrogate model. Of the parameters only Xi is read.
func NewProbabilityOfImprovement(model Surrogate, params AcquisitionParams) (*ProbabilityOfImprovement, error) {
	if model == nil {
		return nil, &ConfigurationError{Param: "model", Detail: "must not be nil"}
	}

	return &ProbabilityOfImprovement{model: model, params: params}, nil
}

//////
// Lower Confidence Bound.
//////

// LowerConfidenceBound scores candidates by the optimistic bound
// Beta*sigma - mean. It carries no cached state: Setup is a no-op and the
// scorer is ready from construction.
//
// When to use:
// - General purpose, works well in most cases
// - When you want direct control over the exploration-exploitation trade-off
// - When you need a simple, robust approach
type LowerConfidenceBound struct {
	model  Surrogate
	params AcquisitionParams
}

// Setup is a no-op. The bound depends only on the posterior at the
// candidates.
func (lcb *LowerConfidenceBound) Setup() error {
	return nil
}

// Score computes Beta*sigma - mean for each candidate.
func (lcb *LowerConfidenceBound) Score(candidates [][]float64) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	mean, variance, err := posterior("lower confidence bound", lcb.model, candidates)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for j := range scores {
		scores[j] = lcb.params.Beta*math.Sqrt(variance[j]) - mean[j]
	}

	return scores, nil
}

// NewLowerConfidenceBound builds the Lower Confidence Bound acquisition for
// a surrogate model. Of the parameters only Beta is read.
func NewLowerConfidenceBound(model Surrogate, params AcquisitionParams) (*LowerConfidenceBound, error) {
	if model == nil {
		return nil, &ConfigurationError{Param: "model", Detail: "must not be nil"}
	}

	return &LowerConfidenceBound{model: model, params: params}, nil
}

//////
// Thompson Sampling.
//////

// ThompsonSampling scores candidates by drawing one value from the
// posterior at each point and negating it, so that low draws score high.
//
// Scores are random by construction: two calls with the same candidates
// return different values. Inject a seeded RandomState to make whole runs
// reproducible.
//
// When to use:
// - When you want a simple but effective approach
// - When you're running parallel optimizations
// - When you want to avoid tuning Beta or Xi
type ThompsonSampling struct {
	model Surrogate

	// rngMu serializes draws; rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Setup is a no-op. Every call to Score draws fresh posterior samples.
func (ts *ThompsonSampling) Setup() error {
	return nil
}

// Score draws one posterior sample per candidate and returns its negation.
func (ts *ThompsonSampling) Score(candidates [][]float64) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	mean, variance, err := posterior("thompson sampling", ts.model, candidates)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))

	ts.rngMu.Lock()
	for j := range scores {
		scores[j] = -(mean[j] + math.Sqrt(variance[j])*ts.rng.NormFloat64())
	}
	ts.rngMu.Unlock()

	return scores, nil
}

// NewThompsonSampling builds the Thompson Sampling acquisition for a
// surrogate model. Of the parameters only RandomState is read; when nil a
// time-seeded source is created.
func NewThompsonSampling(model Surrogate, params AcquisitionParams) (*ThompsonSampling, error) {
	if model == nil {
		return nil, &ConfigurationError{Param: "model", Detail: "must not be nil"}
	}

	rng := params.RandomState
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &ThompsonSampling{model: model, rng: rng}, nil
}
