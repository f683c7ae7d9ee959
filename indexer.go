/*
 *  indexer.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import "math/rand/v2"

// Indexer provides the traversal order of the data. All() covers every
// position while Sampling() is the subset visited by a sweep, reshuffled by
// Shuffle() before the next one. The indexer is owned by a single sampler.
type Indexer struct {
	all      []Index
	sampling []Index
}

// NewIndexer copies both index lists
func NewIndexer(all, sampling []Index) *Indexer {
	return &Indexer{
		all:      append([]Index(nil), all...),
		sampling: append([]Index(nil), sampling...),
	}
}

// All returns every indexable position
func (r *Indexer) All() []Index {
	return r.all
}

// Sampling returns the current sampling order
func (r *Indexer) Sampling() []Index {
	return r.sampling
}

// Elements is the number of indexable positions
func (r *Indexer) Elements() int {
	return len(r.all)
}

// Restrict keeps only the sampling positions accepted by keep
func (r *Indexer) Restrict(keep func(Index) bool) {
	j := 0
	for _, i := range r.sampling {
		if keep(i) {
			r.sampling[j] = i
			j++
		}
	}
	r.sampling = r.sampling[:j]
}

// Shuffle randomly shuffles the sampling order using Fisher-Yates
func (r *Indexer) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(r.sampling), func(i, j int) {
		r.sampling[i], r.sampling[j] = r.sampling[j], r.sampling[i]
	})
}

// Clone makes an independent copy for another replica
func (r *Indexer) Clone() *Indexer {
	return NewIndexer(r.all, r.sampling)
}
