package gpflowopt

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGP builds a model with a short lengthscale and three observations
// spread over the unit interval, so predictions are informative near the
// data and uncertain between points.
func newTestGP(t *testing.T) *GaussianProcess {
	t.Helper()

	gp, err := NewGaussianProcess(GPConfig{
		Lengthscale:    0.2,
		SignalVariance: 1.0,
		NoiseVariance:  1e-4,
	})
	require.NoError(t, err)

	gp.Update([]float64{0.1}, 0.2)
	gp.Update([]float64{0.5}, 0.9)
	gp.Update([]float64{0.9}, 0.3)

	return gp
}

func TestPredictPriorWithoutObservations(t *testing.T) {
	gp, err := NewGaussianProcess(GPConfig{Lengthscale: 1, SignalVariance: 2.5, NoiseVariance: 1e-6})
	require.NoError(t, err)

	mean, variance, err := gp.Predict([][]float64{{0.3}, {0.7}})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0}, mean)
	assert.Equal(t, []float64{2.5, 2.5}, variance)
}

func TestPredictInterpolatesObservations(t *testing.T) {
	gp := newTestGP(t)

	mean, variance, err := gp.Predict([][]float64{{0.5}})
	require.NoError(t, err)

	// With low noise the posterior pins the observation down.
	assert.InDelta(t, 0.9, mean[0], 0.01)
	assert.Less(t, variance[0], 0.01)
	assert.Greater(t, variance[0], 0.0)
}

func TestPredictUncertaintyGrowsAwayFromData(t *testing.T) {
	gp := newTestGP(t)

	_, variance, err := gp.Predict([][]float64{{0.3}, {0.5}})
	require.NoError(t, err)

	assert.Greater(t, variance[0], variance[1])
}

func TestPredictEmptyBatch(t *testing.T) {
	gp := newTestGP(t)

	mean, variance, err := gp.Predict(nil)

	assert.NoError(t, err)
	assert.Nil(t, mean)
	assert.Nil(t, variance)
}

func TestPredictRejectsDimensionMismatch(t *testing.T) {
	gp := newTestGP(t)

	_, _, err := gp.Predict([][]float64{{0.1, 0.2}})

	assert.ErrorContains(t, err, "dimension 2, want 1")
}

func TestPredictFailsOnSingularKernel(t *testing.T) {
	gp, err := NewGaussianProcess(GPConfig{Lengthscale: 1, SignalVariance: 1, NoiseVariance: 0})
	require.NoError(t, err)

	// Duplicate inputs with zero noise make the kernel matrix singular.
	gp.Update([]float64{0.5}, 1.0)
	gp.Update([]float64{0.5}, 2.0)

	_, _, err = gp.Predict([][]float64{{0.5}})
	assert.ErrorContains(t, err, "not positive definite")
}

func TestUpdateRefreshesPredictions(t *testing.T) {
	gp := newTestGP(t)

	before, _, err := gp.Predict([][]float64{{0.3}})
	require.NoError(t, err)

	gp.Update([]float64{0.3}, -0.5)

	after, variance, err := gp.Predict([][]float64{{0.3}})
	require.NoError(t, err)

	assert.InDelta(t, -0.5, after[0], 0.01)
	assert.Less(t, variance[0], 0.01)
	assert.NotEqual(t, before[0], after[0])
}

func TestClearCachePreservesPredictions(t *testing.T) {
	gp := newTestGP(t)

	before, beforeVar, err := gp.Predict([][]float64{{0.3}, {0.7}})
	require.NoError(t, err)

	gp.ClearCache()

	after, afterVar, err := gp.Predict([][]float64{{0.3}, {0.7}})
	require.NoError(t, err)

	// Refactorization is deterministic: dropping the cache must not move
	// the predictions.
	for i := range before {
		assert.InDelta(t, before[i], after[i], 1e-12)
		assert.InDelta(t, beforeVar[i], afterVar[i], 1e-12)
	}
}

func TestRBFKernel(t *testing.T) {
	gp := newTestGP(t)

	// exp(-0.4^2 / (2 * 0.2^2)) = exp(-2)
	assert.InDelta(t, math.Exp(-2), gp.RBFKernel([]float64{0.1}, []float64{0.5}), 1e-12)

	// Identical points return the full signal variance.
	assert.InDelta(t, 1.0, gp.RBFKernel([]float64{0.4}, []float64{0.4}), 1e-12)

	assert.Panics(t, func() {
		gp.RBFKernel([]float64{0.1}, []float64{0.1, 0.2})
	})
}

func TestNewGaussianProcessValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  GPConfig
		wantErr bool
	}{
		{name: "default is valid", config: DefaultGPConfig(), wantErr: false},
		{name: "zero lengthscale", config: GPConfig{Lengthscale: 0, SignalVariance: 1, NoiseVariance: 1e-6}, wantErr: true},
		{name: "negative signal variance", config: GPConfig{Lengthscale: 1, SignalVariance: -1, NoiseVariance: 1e-6}, wantErr: true},
		{name: "negative noise", config: GPConfig{Lengthscale: 1, SignalVariance: 1, NoiseVariance: -1e-6}, wantErr: true},
		{name: "zero noise is allowed", config: GPConfig{Lengthscale: 1, SignalVariance: 1, NoiseVariance: 0}, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gp, err := NewGaussianProcess(tc.config)

			if tc.wantErr {
				var confErr *ConfigurationError
				assert.ErrorAs(t, err, &confErr)
				assert.Nil(t, gp)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, gp)
			}
		})
	}
}

func TestTrainingDataReturnsCopies(t *testing.T) {
	gp := newTestGP(t)

	x, y := gp.TrainingData()
	require.Len(t, x, 3)
	require.Len(t, y, 3)

	// Mutating the returned slices must not touch the model.
	x[0][0] = 42
	y[0] = 42

	x2, y2 := gp.TrainingData()
	assert.Equal(t, 0.1, x2[0][0])
	assert.Equal(t, 0.2, y2[0])
}

func TestUpdateCopiesInput(t *testing.T) {
	gp, err := NewGaussianProcess(DefaultGPConfig())
	require.NoError(t, err)

	point := []float64{0.4}
	gp.Update(point, 1.0)
	point[0] = 99

	x, _ := gp.TrainingData()
	assert.Equal(t, 0.4, x[0][0])
}

func TestGetSetSigma(t *testing.T) {
	gp := newTestGP(t)

	assert.Equal(t, 0.2, gp.GetSigma())

	gp.SetSigma(0.5)
	assert.Equal(t, 0.5, gp.GetSigma())
}

func TestSetSigmaAffectsPredictions(t *testing.T) {
	gp := newTestGP(t)

	before, _, err := gp.Predict([][]float64{{0.3}})
	require.NoError(t, err)

	gp.SetSigma(1.0)

	after, _, err := gp.Predict([][]float64{{0.3}})
	require.NoError(t, err)

	assert.NotEqual(t, before[0], after[0])
}

func TestPredictConcurrent(t *testing.T) {
	gp := newTestGP(t)

	want, wantVar, err := gp.Predict([][]float64{{0.3}})
	require.NoError(t, err)

	// Drop the factorization so the goroutines race to rebuild it.
	gp.ClearCache()

	var wg sync.WaitGroup

	means := make([]float64, 16)
	variances := make([]float64, 16)
	errs := make([]error, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			mean, variance, err := gp.Predict([][]float64{{0.3}})
			if err != nil {
				errs[i] = err
				return
			}

			means[i] = mean[0]
			variances[i] = variance[0]
		}(i)
	}

	wg.Wait()

	for i := 0; i < 16; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want[0], means[i])
		assert.Equal(t, wantVar[0], variances[i])
	}
}
