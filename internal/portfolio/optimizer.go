package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrOptimization indicates the max-Sharpe problem could not be solved.
// Degenerate inputs must surface as a failed run, never as an arbitrary
// allocation.
var ErrOptimization = errors.New("portfolio optimization failed")

// ErrDegenerateInputs marks inputs for which the tangency problem is not
// well-posed. It matches ErrOptimization under errors.Is.
var ErrDegenerateInputs = fmt.Errorf("%w: degenerate inputs", ErrOptimization)

// muVarianceFloor is the minimum cross-sectional variance of expected returns
// for the tangency problem to be well-posed.
const muVarianceFloor = 1e-18

// Optimizer computes the maximum-Sharpe allocation for given moments
type Optimizer interface {
	MaxSharpe(mu map[string]float64, cov *mat.SymDense, order []string, riskFree float64) (WeightVector, error)
}

// MaxSharpeOptimizer solves the long-only tangency portfolio by scanning the
// risk-aversion parameter of the Markowitz QP and keeping the solution with
// the best excess-return Sharpe ratio.
type MaxSharpeOptimizer struct {
	scanSteps int
	maxIter   int
}

// NewMaxSharpeOptimizer creates an optimizer with default solver settings
func NewMaxSharpeOptimizer() *MaxSharpeOptimizer {
	return &MaxSharpeOptimizer{scanSteps: 50, maxIter: 1000}
}

// MaxSharpe maximizes (mu'w - rf) / sqrt(w'Sigma*w) subject to sum(w) = 1,
// w >= 0. Returns ErrOptimization when the covariance matrix is singular or
// the expected returns carry no cross-sectional variance.
func (o *MaxSharpeOptimizer) MaxSharpe(mu map[string]float64, cov *mat.SymDense, order []string, riskFree float64) (WeightVector, error) {
	n := len(order)
	if n == 0 {
		return nil, fmt.Errorf("%w: no assets", ErrOptimization)
	}
	if cov == nil || cov.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: covariance dimension mismatch", ErrOptimization)
	}

	means := make([]float64, n)
	for i, asset := range order {
		v, ok := mu[asset]
		if !ok {
			return nil, fmt.Errorf("%w: no expected return for %s", ErrOptimization, asset)
		}
		means[i] = v
	}

	if crossSectionalVariance(means) < muVarianceFloor {
		return nil, fmt.Errorf("%w: expected returns are identical across assets", ErrDegenerateInputs)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, fmt.Errorf("%w: covariance matrix is singular", ErrDegenerateInputs)
	}

	best := o.scanLambda(means, cov, riskFree)
	if best == nil {
		return nil, fmt.Errorf("%w: no feasible allocation found", ErrOptimization)
	}

	raw := make(WeightVector, n)
	for i, asset := range order {
		raw[asset] = best[i]
	}
	cleaned, err := Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOptimization, err)
	}
	return cleaned, nil
}

// scanLambda walks the risk-aversion parameter logarithmically from the
// minimum-variance end toward return emphasis and keeps the best Sharpe.
func (o *MaxSharpeOptimizer) scanLambda(means []float64, cov *mat.SymDense, riskFree float64) []float64 {
	bestSharpe := math.Inf(-1)
	var bestW []float64

	for k := 0; k <= o.scanSteps; k++ {
		var lambda float64
		if k > 0 {
			t := float64(k) / float64(o.scanSteps)
			lambda = 0.001 * math.Pow(100000, t)
		}

		w := o.solveQP(means, cov, lambda)
		sr := sharpe(w, means, cov, riskFree)
		if sr > bestSharpe {
			bestSharpe = sr
			bestW = w
		}
	}
	return bestW
}

// solveQP solves min w'Sigma*w - lambda*mu'w s.t. w >= 0, 1'w = 1 by
// projected gradient descent onto the simplex.
func (o *MaxSharpeOptimizer) solveQP(means []float64, cov *mat.SymDense, lambda float64) []float64 {
	n := len(means)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}

	trace := 0.0
	for i := 0; i < n; i++ {
		trace += cov.At(i, i)
	}
	if trace <= 0 {
		return w
	}
	// 2*trace bounds the Lipschitz constant of the quadratic gradient
	step := 1.0 / (2 * trace)

	const tol = 1e-10
	prev := make([]float64, n)
	for iter := 0; iter < o.maxIter; iter++ {
		copy(prev, w)
		for i := 0; i < n; i++ {
			grad := 0.0
			for j := 0; j < n; j++ {
				grad += cov.At(i, j) * prev[j]
			}
			w[i] = prev[i] - step*(2*grad-lambda*means[i])
		}
		projectOntoSimplex(w)

		maxDiff := 0.0
		for i := range w {
			if d := math.Abs(w[i] - prev[i]); d > maxDiff {
				maxDiff = d
			}
		}
		if maxDiff < tol {
			break
		}
	}
	return w
}

// projectOntoSimplex projects w onto {w >= 0, sum(w) = 1} in place
func projectOntoSimplex(w []float64) {
	n := len(w)
	sorted := append([]float64(nil), w...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	cumulative := 0.0
	rho := 0
	rhoSum := sorted[0]
	for i := 0; i < n; i++ {
		cumulative += sorted[i]
		if sorted[i]-(cumulative-1)/float64(i+1) > 0 {
			rho = i
			rhoSum = cumulative
		}
	}
	theta := (rhoSum - 1) / float64(rho+1)
	for i := range w {
		w[i] = math.Max(0, w[i]-theta)
	}
}

func variance(w []float64, cov *mat.SymDense) float64 {
	v := 0.0
	for i := range w {
		for j := range w {
			v += w[i] * w[j] * cov.At(i, j)
		}
	}
	return v
}

func expectedReturn(w, means []float64) float64 {
	r := 0.0
	for i := range w {
		r += w[i] * means[i]
	}
	return r
}

// sharpe is the excess-return Sharpe ratio for annualized moments
func sharpe(w, means []float64, cov *mat.SymDense, riskFree float64) float64 {
	vol := math.Sqrt(variance(w, cov))
	if vol <= 0 {
		return math.Inf(-1)
	}
	return (expectedReturn(w, means) - riskFree) / vol
}

func crossSectionalVariance(means []float64) float64 {
	if len(means) == 0 {
		return 0
	}
	m := 0.0
	for _, v := range means {
		m += v
	}
	m /= float64(len(means))
	v := 0.0
	for _, x := range means {
		d := x - m
		v += d * d
	}
	return v / float64(len(means))
}
