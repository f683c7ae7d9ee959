/*
 *  base.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"fmt"
	"math"
	"os"
	"path"
	"strings"

	logging "github.com/op/go-logging"
)

const (
	// Version is the current version of tfbayes
	Version = "0.3.0"
	// AlphabetSize is the number of nucleotides A, C, G, T
	AlphabetSize = 4
	// DefaultTFBSLength is the width of a binding site
	DefaultTFBSLength = 10
	// DefaultAlpha is the concentration of the process prior
	DefaultAlpha = 0.05
	// DefaultDiscount is the Pitman-Yor discount
	DefaultDiscount = 0.0
	// DefaultLambda is the prior probability that a position starts a site
	DefaultLambda = 0.01
	// DefaultBackgroundAlpha is the pseudo-count of the background Dirichlet
	DefaultBackgroundAlpha = 1.0
	// DefaultBaselineAlpha is the pseudo-count of the foreground Dirichlet
	DefaultBaselineAlpha = 0.4
	// DefaultBaselineTag names the default foreground prior family
	DefaultBaselineTag = BaselineTag("baseline-default")
	// WeightTolerance is the accepted slack when checking normalization
	WeightTolerance = 1e-9
)

var log = logging.MustGetLogger("tfbayes")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// LogAdd returns log(exp(a) + exp(b)) without leaving log space
func LogAdd(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a > b {
		return a + math.Log1p(math.Exp(b-a))
	}
	return b + math.Log1p(math.Exp(a-b))
}

// lgamma drops the sign of math.Lgamma, all arguments here are positive
func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// logFactorial is log(n!)
func logFactorial(n int) float64 {
	return lgamma(float64(n) + 1)
}

// logBinomial is log(n choose k)
func logBinomial(n, k int) float64 {
	return logFactorial(n) - logFactorial(k) - logFactorial(n-k)
}

// Percentage prints a human readable message of the percentage
func Percentage(a, b int) string {
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}

// Make2DSliceFloat64 allocates a 2D float64 matrix with shape (m, n)
func Make2DSliceFloat64(m, n int) [][]float64 {
	P := make([][]float64, m)
	for i := 0; i < m; i++ {
		P[i] = make([]float64, n)
	}
	return P
}

// Make2DSlice allocates a 2D matrix with shape (m, n)
func Make2DSlice(m, n int) [][]int {
	P := make([][]int, m)
	for i := 0; i < m; i++ {
		P[i] = make([]int, n)
	}
	return P
}

// max gets the maximum for two ints
func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}
