/*
 *  cluster.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import "sort"

// ClusterTag is the stable identity of a cluster within one MixtureState
type ClusterTag int

// NoCluster marks an unassigned position
const NoCluster ClusterTag = -1

// BaselineTag names the prior family a cluster was spawned from
type BaselineTag string

// ClusterEvent reports how an update changed the emptiness of a cluster
type ClusterEvent int

const (
	// Unchanged means the cluster stayed empty or stayed non-empty
	Unchanged ClusterEvent = iota
	// BecameEmpty means the last observation was removed
	BecameEmpty
	// BecameNonEmpty means the first observation was added
	BecameNonEmpty
)

// String outputs the name of the event
func (r ClusterEvent) String() string {
	switch r {
	case BecameEmpty:
		return "became-empty"
	case BecameNonEmpty:
		return "became-nonempty"
	}
	return "unchanged"
}

// Cluster owns one component model and tracks how many observations it holds
type Cluster struct {
	tag          ClusterTag
	baseline     BaselineTag
	destructible bool
	size         int
	model        ComponentModel
	elements     map[Range]struct{} // nil unless recording
}

// NewCluster wraps the model, the cluster takes ownership of it
func NewCluster(model ComponentModel, tag ClusterTag, baseline BaselineTag, destructible, record bool) *Cluster {
	c := &Cluster{
		tag:          tag,
		baseline:     baseline,
		destructible: destructible,
		model:        model,
	}
	if record {
		c.elements = make(map[Range]struct{})
	}
	return c
}

// AddObservations adds the range to the model. The returned event must be
// handed to the owning MixtureState.
func (r *Cluster) AddObservations(rg Range) ClusterEvent {
	before := r.size
	r.size += r.model.Add(rg)
	if r.elements != nil {
		r.elements[rg] = struct{}{}
	}
	if before == 0 && r.size > 0 {
		return BecameNonEmpty
	}
	return Unchanged
}

// RemoveObservations removes the range from the model. Removing more than
// the cluster holds is ignored.
func (r *Cluster) RemoveObservations(rg Range) ClusterEvent {
	if r.size < r.model.Count(rg) {
		return Unchanged
	}
	r.size -= r.model.Remove(rg)
	if r.elements != nil {
		delete(r.elements, rg)
	}
	if r.size == 0 {
		return BecameEmpty
	}
	return Unchanged
}

// Tag returns the cluster identity
func (r *Cluster) Tag() ClusterTag {
	return r.tag
}

// Baseline returns the prior family of the cluster
func (r *Cluster) Baseline() BaselineTag {
	return r.baseline
}

// Destructible is false for fixed clusters such as the background
func (r *Cluster) Destructible() bool {
	return r.destructible
}

// Size is the number of observations
func (r *Cluster) Size() int {
	return r.size
}

// Model exposes the component model
func (r *Cluster) Model() ComponentModel {
	return r.model
}

// Recording reports whether elements are tracked
func (r *Cluster) Recording() bool {
	return r.elements != nil
}

// Elements returns the recorded ranges in order, nil unless recording
func (r *Cluster) Elements() []Range {
	if r.elements == nil {
		return nil
	}
	ranges := make([]Range, 0, len(r.elements))
	for rg := range r.elements {
		ranges = append(ranges, rg)
	}
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Less(ranges[j])
	})
	return ranges
}

// Clone deep copies the cluster including its model
func (r *Cluster) Clone() *Cluster {
	c := *r
	c.model = r.model.Clone()
	if r.elements != nil {
		c.elements = make(map[Range]struct{}, len(r.elements))
		for rg := range r.elements {
			c.elements[rg] = struct{}{}
		}
	}
	return &c
}
