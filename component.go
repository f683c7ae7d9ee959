/*
 *  component.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"fmt"
	"math"
)

// ComponentModel accumulates sufficient statistics of the ranges assigned to
// one cluster. The observations themselves stay in the shared data; Add and
// Remove of the same range cancel exactly.
type ComponentModel interface {
	// Add accumulates the range and returns the number of observations consumed
	Add(r Range) int
	// Remove takes the range out again and returns the number of observations
	Remove(r Range) int
	// Count is the number of observations the range would contribute
	Count(r Range) int
	// LogPredictive is the log posterior predictive of the range
	LogPredictive(r Range) float64
	// Predictive is exp(LogPredictive)
	Predictive(r Range) float64
	// LogLikelihood is the log marginal likelihood of all accumulated data
	LogLikelihood() float64
	// Clone copies the statistics, hyperparameters and data are shared
	Clone() ComponentModel
}

// ProductDirichlet is a product of independent Dirichlet-multinomial columns,
// one per site position. A range of the model's length is one observation.
type ProductDirichlet struct {
	data   *TFBSData
	alpha  [][AlphabetSize]float64 // shared, never mutated
	counts [][AlphabetSize]float64
}

// NewProductDirichlet makes an empty model with the pseudo-count matrix alpha,
// one row per site position
func NewProductDirichlet(alpha [][AlphabetSize]float64, data *TFBSData) *ProductDirichlet {
	if len(alpha) == 0 {
		panic("product dirichlet needs at least one column")
	}
	return &ProductDirichlet{
		data:   data,
		alpha:  alpha,
		counts: make([][AlphabetSize]float64, len(alpha)),
	}
}

// UniformAlpha makes a length x 4 pseudo-count matrix filled with a
func UniformAlpha(length int, a float64) [][AlphabetSize]float64 {
	alpha := make([][AlphabetSize]float64, length)
	for i := range alpha {
		for j := range alpha[i] {
			alpha[i][j] = a
		}
	}
	return alpha
}

// Length is the number of site positions
func (r *ProductDirichlet) Length() int {
	return len(r.alpha)
}

// column returns the code that lands on model column j for the range
func (r *ProductDirichlet) column(rg Range, j int) Code {
	if rg.Reverse {
		return r.data.Code(rg.At(rg.Length - 1 - j)).Complement()
	}
	return r.data.Code(rg.At(j))
}

func (r *ProductDirichlet) check(rg Range) {
	if rg.Length != len(r.alpha) {
		panic(fmt.Sprintf("range %s does not match model length %d", rg, len(r.alpha)))
	}
	r.data.mustContain(rg)
}

// Add accumulates the counts of the word
func (r *ProductDirichlet) Add(rg Range) int {
	r.check(rg)
	for j := range r.counts {
		x := r.column(rg, j)
		for k := 0; k < AlphabetSize; k++ {
			r.counts[j][k] += x[k]
		}
	}
	return 1
}

// Remove subtracts the counts of the word
func (r *ProductDirichlet) Remove(rg Range) int {
	r.check(rg)
	for j := range r.counts {
		x := r.column(rg, j)
		for k := 0; k < AlphabetSize; k++ {
			r.counts[j][k] -= x[k]
		}
	}
	return 1
}

// Count is always one word
func (r *ProductDirichlet) Count(rg Range) int {
	r.check(rg)
	return 1
}

// LogPredictive computes the Dirichlet-multinomial predictive of each column
func (r *ProductDirichlet) LogPredictive(rg Range) float64 {
	r.check(rg)
	result := 0.0
	for j := range r.counts {
		result += dirichletLogRatio(r.alpha[j], r.counts[j], r.column(rg, j))
	}
	return result
}

// Predictive is exp(LogPredictive)
func (r *ProductDirichlet) Predictive(rg Range) float64 {
	return math.Exp(r.LogPredictive(rg))
}

// LogLikelihood is the marginal of the accumulated counts
func (r *ProductDirichlet) LogLikelihood() float64 {
	result := 0.0
	for j := range r.counts {
		result += dirichletLogMarginal(r.alpha[j], r.counts[j])
	}
	return result
}

// Counts returns a copy of the accumulated counts
func (r *ProductDirichlet) Counts() [][AlphabetSize]float64 {
	return append([][AlphabetSize]float64(nil), r.counts...)
}

// Clone shares alpha and data, copies the counts
func (r *ProductDirichlet) Clone() ComponentModel {
	return &ProductDirichlet{
		data:   r.data,
		alpha:  r.alpha,
		counts: append([][AlphabetSize]float64(nil), r.counts...),
	}
}

// IndependenceBackground applies one Dirichlet to every position
// independently, each position is one observation
type IndependenceBackground struct {
	data   *TFBSData
	alpha  [AlphabetSize]float64
	counts [AlphabetSize]float64
}

// NewIndependenceBackground makes an empty background model
func NewIndependenceBackground(alpha [AlphabetSize]float64, data *TFBSData) *IndependenceBackground {
	return &IndependenceBackground{data: data, alpha: alpha}
}

// sum adds up the codes covered by the range, strand does not matter for the
// background since complementing is a relabeling of the same alphabet
func (r *IndependenceBackground) sum(rg Range) Code {
	r.data.mustContain(rg)
	var x Code
	for j := 0; j < rg.Length; j++ {
		c := r.data.Code(rg.At(j))
		if rg.Reverse {
			c = c.Complement()
		}
		for k := 0; k < AlphabetSize; k++ {
			x[k] += c[k]
		}
	}
	return x
}

// Add accumulates every position of the range
func (r *IndependenceBackground) Add(rg Range) int {
	x := r.sum(rg)
	for k := 0; k < AlphabetSize; k++ {
		r.counts[k] += x[k]
	}
	return rg.Length
}

// Remove subtracts every position of the range
func (r *IndependenceBackground) Remove(rg Range) int {
	x := r.sum(rg)
	for k := 0; k < AlphabetSize; k++ {
		r.counts[k] -= x[k]
	}
	return rg.Length
}

// Count is the number of positions
func (r *IndependenceBackground) Count(rg Range) int {
	r.data.mustContain(rg)
	return rg.Length
}

// LogPredictive is the joint predictive of all positions in the range
func (r *IndependenceBackground) LogPredictive(rg Range) float64 {
	return dirichletLogRatio(r.alpha, r.counts, r.sum(rg))
}

// Predictive is exp(LogPredictive)
func (r *IndependenceBackground) Predictive(rg Range) float64 {
	return math.Exp(r.LogPredictive(rg))
}

// LogLikelihood is the marginal of the accumulated counts
func (r *IndependenceBackground) LogLikelihood() float64 {
	return dirichletLogMarginal(r.alpha, r.counts)
}

// Clone copies the counts
func (r *IndependenceBackground) Clone() ComponentModel {
	p := *r
	return &p
}

// dirichletLogRatio is log p(x | counts) under a Dirichlet(alpha) prior:
// B(alpha+counts+x) / B(alpha+counts)
func dirichletLogRatio(alpha, counts, x [AlphabetSize]float64) float64 {
	sumA, sumX := 0.0, 0.0
	result := 0.0
	for k := 0; k < AlphabetSize; k++ {
		a := alpha[k] + counts[k]
		sumA += a
		sumX += x[k]
		if x[k] != 0 {
			result += lgamma(a+x[k]) - lgamma(a)
		}
	}
	if sumX == 0 {
		return 0
	}
	return result + lgamma(sumA) - lgamma(sumA+sumX)
}

// dirichletLogMarginal is log B(alpha+counts) - log B(alpha)
func dirichletLogMarginal(alpha, counts [AlphabetSize]float64) float64 {
	var zero [AlphabetSize]float64
	return dirichletLogRatio(alpha, zero, counts)
}
