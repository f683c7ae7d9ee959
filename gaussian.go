/*
 *  gaussian.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// GaussianData holds 2-D points, point i lives at Index{0, i}
type GaussianData struct {
	Points [][2]float64
	// Labels are the generating cluster of synthetic points, may be nil
	Labels []int
}

// Elements is the number of points
func (r *GaussianData) Elements() int {
	return len(r.Points)
}

// Point returns the coordinates of the range's point
func (r *GaussianData) Point(rg Range) []float64 {
	if rg.Seq != 0 || rg.Length != 1 || rg.Pos < 0 || rg.Pos >= len(r.Points) {
		panic(fmt.Sprintf("range %s out of bounds", rg))
	}
	p := r.Points[rg.Pos]
	return []float64{p[0], p[1]}
}

// Indexer visits every point
func (r *GaussianData) Indexer() *Indexer {
	indices := make([]Index, len(r.Points))
	for i := range indices {
		indices[i] = Index{0, i}
	}
	return NewIndexer(indices, indices)
}

// gaussianPrior stores the hyperparameters shared by every clone
type gaussianPrior struct {
	sigma       *mat.SymDense // observation covariance
	sigmaInv    *mat.SymDense
	logDetSigma float64
	mu0         *mat.VecDense
	sigma0      *mat.SymDense // prior covariance of the mean
	sigma0Inv   *mat.SymDense
	prec0Mu0    *mat.VecDense // sigma0^-1 mu0
}

// BivariateGaussian is a Gaussian with known covariance and a conjugate
// Gaussian prior on its mean. The covariance is not sampled, only the
// precision and mean of the mean posterior are updated.
type BivariateGaussian struct {
	data      *GaussianData
	prior     *gaussianPrior
	n         int
	sum       [2]float64
	scatter   [2][2]float64 // sum of x x^T
	precision *mat.SymDense // sigma0^-1 + n sigma^-1
}

// NewBivariateGaussian builds an empty model. sigma is the observation
// covariance, mu0 and sigma0 parameterize the prior on the mean.
func NewBivariateGaussian(sigma [2][2]float64, mu0 [2]float64, sigma0 [2][2]float64, data *GaussianData) *BivariateGaussian {
	s := symFromArray(sigma)
	s0 := symFromArray(sigma0)
	sInv, logDet := invSym(s)
	s0Inv, _ := invSym(s0)
	m0 := mat.NewVecDense(2, []float64{mu0[0], mu0[1]})
	pm := mat.NewVecDense(2, nil)
	pm.MulVec(s0Inv, m0)

	precision := mat.NewSymDense(2, nil)
	precision.CopySym(s0Inv)
	return &BivariateGaussian{
		data: data,
		prior: &gaussianPrior{
			sigma:       s,
			sigmaInv:    sInv,
			logDetSigma: logDet,
			mu0:         m0,
			sigma0:      s0,
			sigma0Inv:   s0Inv,
			prec0Mu0:    pm,
		},
		precision: precision,
	}
}

// symFromArray converts a 2x2 array, the upper triangle is used
func symFromArray(a [2][2]float64) *mat.SymDense {
	return mat.NewSymDense(2, []float64{a[0][0], a[0][1], a[0][1], a[1][1]})
}

// invSym inverts a positive definite 2x2 matrix and returns its log determinant
func invSym(a *mat.SymDense) (*mat.SymDense, float64) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		panic(fmt.Sprintf("covariance is not positive definite: %v", mat.Formatted(a, mat.Squeeze())))
	}
	inv := mat.NewSymDense(2, nil)
	if err := chol.InverseTo(inv); err != nil {
		panic(err)
	}
	return inv, chol.LogDet()
}

// Add accumulates the point and updates the posterior precision
func (r *BivariateGaussian) Add(rg Range) int {
	x := r.data.Point(rg)
	r.n++
	for i := 0; i < 2; i++ {
		r.sum[i] += x[i]
		for j := 0; j < 2; j++ {
			r.scatter[i][j] += x[i] * x[j]
		}
	}
	r.precision.AddSym(r.precision, r.prior.sigmaInv)
	return 1
}

// Remove takes the point out again
func (r *BivariateGaussian) Remove(rg Range) int {
	x := r.data.Point(rg)
	r.n--
	for i := 0; i < 2; i++ {
		r.sum[i] -= x[i]
		for j := 0; j < 2; j++ {
			r.scatter[i][j] -= x[i] * x[j]
		}
	}
	var neg mat.SymDense
	neg.ScaleSym(-1, r.prior.sigmaInv)
	r.precision.AddSym(r.precision, &neg)
	return 1
}

// Count is always one point
func (r *BivariateGaussian) Count(rg Range) int {
	r.data.Point(rg)
	return 1
}

// Posterior returns the posterior mean and covariance of the cluster mean
func (r *BivariateGaussian) Posterior() (*mat.VecDense, *mat.SymDense) {
	cov, _ := invSym(r.precision)
	s := mat.NewVecDense(2, []float64{r.sum[0], r.sum[1]})
	b := mat.NewVecDense(2, nil)
	b.MulVec(r.prior.sigmaInv, s)
	b.AddVec(b, r.prior.prec0Mu0)
	mu := mat.NewVecDense(2, nil)
	mu.MulVec(cov, b)
	return mu, cov
}

// LogPredictive evaluates N(x | mu_n, sigma + sigma_n)
func (r *BivariateGaussian) LogPredictive(rg Range) float64 {
	x := r.data.Point(rg)
	mu, cov := r.Posterior()
	var pc mat.SymDense
	pc.AddSym(r.prior.sigma, cov)
	return mustNormal(mu, &pc).LogProb(x)
}

// Predictive is exp(LogPredictive)
func (r *BivariateGaussian) Predictive(rg Range) float64 {
	return math.Exp(r.LogPredictive(rg))
}

// LogLikelihood uses p(X) = p(X | mu) p(mu) / p(mu | X) evaluated at the
// posterior mean
func (r *BivariateGaussian) LogLikelihood() float64 {
	if r.n == 0 {
		return 0
	}
	mu, cov := r.Posterior()
	m := []float64{mu.AtVec(0), mu.AtVec(1)}
	n := float64(r.n)

	// sum_i (x_i - mu)(x_i - mu)^T
	S := mat.NewDense(2, 2, nil)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			S.Set(i, j, r.scatter[i][j]-m[i]*r.sum[j]-r.sum[i]*m[j]+n*m[i]*m[j])
		}
	}
	var P mat.Dense
	P.Mul(r.prior.sigmaInv, S)
	dataTerm := -n*math.Log(2*math.Pi) - n/2*r.prior.logDetSigma - mat.Trace(&P)/2

	priorTerm := mustNormal(r.prior.mu0, r.prior.sigma0).LogProb(m)
	postTerm := mustNormal(mu, cov).LogProb(m)
	return dataTerm + priorTerm - postTerm
}

// Size is the number of accumulated points
func (r *BivariateGaussian) Size() int {
	return r.n
}

// Clone shares the prior, copies the statistics
func (r *BivariateGaussian) Clone() ComponentModel {
	p := *r
	p.precision = mat.NewSymDense(2, nil)
	p.precision.CopySym(r.precision)
	return &p
}

// mustNormal builds a gonum normal, degenerate covariances are fatal
func mustNormal(mu *mat.VecDense, sigma mat.Symmetric) *distmv.Normal {
	dist, ok := distmv.NewNormal([]float64{mu.AtVec(0), mu.AtVec(1)}, sigma, nil)
	if !ok {
		panic("degenerate covariance in gaussian component")
	}
	return dist
}
