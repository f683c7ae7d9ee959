/*
 *  prior.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"fmt"
	"math"
	"strings"
)

// PartitionState is what a process prior needs to know about the state
type PartitionState interface {
	// Size is K, the number of non-background clusters
	Size() int
	// NumElements is N, the number of observations in those clusters
	NumElements() int
	// ClusterSizes lists the cluster sizes in tag order
	ClusterSizes() []int
}

// ProcessPrior is a prior over partitions. LogPredictive is the log
// probability of seating n more observations at the cluster, an empty
// cluster stands for a new table. The element being resampled must already be
// removed from the state.
type ProcessPrior interface {
	LogPredictive(c *Cluster, state PartitionState, n int) float64
	Joint(state PartitionState) float64
	Name() string
}

// NewProcessPrior picks a prior by name
func NewProcessPrior(name string, alpha, discount float64) (ProcessPrior, error) {
	if alpha <= 0 {
		return nil, fmt.Errorf("%w: alpha must be positive, got %g", ErrInvalidOptions, alpha)
	}
	switch strings.TrimSuffix(strings.ToLower(name), " process") {
	case "pitman-yor", "pitman yor", "pitman-yor-process", "py":
		if discount < 0 || discount >= 1 {
			return nil, fmt.Errorf("%w: discount must be in [0, 1), got %g", ErrInvalidOptions, discount)
		}
		return &PitmanYorPrior{Alpha: alpha, Discount: discount}, nil
	case "uniform":
		return &UniformPrior{Alpha: alpha}, nil
	case "poppe":
		return &PoppePrior{}, nil
	}
	return nil, fmt.Errorf("%w: `%s`", ErrUnknownPrior, name)
}

// PitmanYorPrior is the two-parameter Chinese restaurant process
type PitmanYorPrior struct {
	Alpha    float64
	Discount float64
}

// Name of the prior
func (r *PitmanYorPrior) Name() string {
	return "pitman-yor process"
}

// LogPredictive multiplies the seating probabilities of n observations one
// after the other
func (r *PitmanYorPrior) LogPredictive(c *Cluster, state PartitionState, n int) float64 {
	N := float64(state.NumElements())
	K := float64(state.Size())
	size := float64(c.Size())
	result := 0.0
	for j := 0; j < n; j++ {
		seated := size + float64(j)
		if seated == 0 {
			result += math.Log(r.Alpha + r.Discount*K)
		} else {
			result += math.Log(seated - r.Discount)
		}
		result -= math.Log(N + float64(j) + r.Alpha)
	}
	return result
}

// Joint is the exchangeable partition probability function
func (r *PitmanYorPrior) Joint(state PartitionState) float64 {
	sizes := state.ClusterSizes()
	K := len(sizes)
	if K == 0 {
		return 0
	}
	N := float64(state.NumElements())
	result := lgamma(r.Alpha+1) - lgamma(r.Alpha+N)
	for i := 1; i < K; i++ {
		result += math.Log(r.Alpha + float64(i)*r.Discount)
	}
	for _, n := range sizes {
		result += lgamma(float64(n)-r.Discount) - lgamma(1-r.Discount)
	}
	return result
}

// UniformPrior gives every existing cluster the same weight regardless of
// its size
type UniformPrior struct {
	Alpha float64
}

// Name of the prior
func (r *UniformPrior) Name() string {
	return "uniform process"
}

// LogPredictive supports single observations only
func (r *UniformPrior) LogPredictive(c *Cluster, state PartitionState, n int) float64 {
	if n != 1 {
		panic(fmt.Sprintf("uniform process prior cannot seat %d observations at once", n))
	}
	K := float64(state.Size())
	if c.Size() == 0 {
		return math.Log(r.Alpha) - math.Log(r.Alpha+K)
	}
	return -math.Log(r.Alpha + K)
}

// Joint seats the clusters one after the other in tag order
func (r *UniformPrior) Joint(state PartitionState) float64 {
	result := 0.0
	for j, n := range state.ClusterSizes() {
		result += math.Log(r.Alpha) - math.Log(r.Alpha+float64(j))
		result -= float64(n-1) * math.Log(r.Alpha+float64(j+1))
	}
	return result
}

// PoppePrior is uniform over the number of clusters K, then uniform over the
// cluster sizes given K, then uniform over arrangements given the sizes
type PoppePrior struct{}

// Name of the prior
func (r *PoppePrior) Name() string {
	return "poppe process"
}

// LogPredictive supports single observations only
func (r *PoppePrior) LogPredictive(c *Cluster, state PartitionState, n int) float64 {
	if n != 1 {
		panic(fmt.Sprintf("poppe process prior cannot seat %d observations at once", n))
	}
	N := float64(state.NumElements())
	K := float64(state.Size())
	size := float64(c.Size())
	// The first observation must open a cluster
	if K == 0 {
		if size == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	logZ := math.Log((N-K+1)*(N+K) + K*(K+1))
	if size == 0 {
		return math.Log(K*(K+1)) - logZ
	}
	return math.Log((N-K+1)*(size+1)) - logZ
}

// Joint evaluates the closed form of the partition probability
func (r *PoppePrior) Joint(state PartitionState) float64 {
	sizes := state.ClusterSizes()
	K := len(sizes)
	if K == 0 {
		return 0
	}
	N := state.NumElements()
	result := -math.Log(float64(N)) - logBinomial(N-1, K-1) + logFactorial(K) - logFactorial(N)
	for _, n := range sizes {
		result += logFactorial(n)
	}
	return result
}
