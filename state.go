/*
 *  state.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"fmt"
	"sort"
)

type clusterStatus int8

const (
	statusUsed clusterStatus = iota
	statusFree
)

// MixtureState manages every cluster ever allocated. Clusters live in an
// arena indexed by their tag and are partitioned into a used and a free list.
// Empty destructible clusters are recycled, never deleted, so tags stay
// stable for the lifetime of the state.
type MixtureState struct {
	clusters   []*Cluster
	status     []clusterStatus
	listPos    []int // position of the tag within its list
	background []bool
	used       []ClusterTag
	free       []ClusterTag
	baselines  map[BaselineTag]ComponentModel // empty prototypes, shared by clones
	baseNames  []BaselineTag
	// usedForeground is K, the number of used non-background clusters
	usedForeground int
	// numElements is N, the observations held by non-background clusters
	numElements int
	record      bool
}

// NewMixtureState makes an empty state. With record set every cluster tracks
// its element ranges.
func NewMixtureState(record bool) *MixtureState {
	return &MixtureState{
		baselines: make(map[BaselineTag]ComponentModel),
		record:    record,
	}
}

// AddBaseline registers an empty prototype from which new clusters of this
// baseline are cloned
func (r *MixtureState) AddBaseline(tag BaselineTag, prototype ComponentModel) {
	if _, ok := r.baselines[tag]; !ok {
		r.baseNames = append(r.baseNames, tag)
	}
	r.baselines[tag] = prototype
}

// Baselines lists the registered baselines in registration order
func (r *MixtureState) Baselines() []BaselineTag {
	return r.baseNames
}

// Baseline returns the prototype of a baseline
func (r *MixtureState) Baseline(tag BaselineTag) ComponentModel {
	return r.baselines[tag]
}

// allocate appends a cluster to the arena and puts it on a list
func (r *MixtureState) allocate(model ComponentModel, baseline BaselineTag, destructible, background bool, status clusterStatus) ClusterTag {
	tag := ClusterTag(len(r.clusters))
	r.clusters = append(r.clusters, NewCluster(model, tag, baseline, destructible, r.record))
	r.background = append(r.background, background)
	r.status = append(r.status, status)
	r.listPos = append(r.listPos, -1)
	r.push(tag, status)
	if status == statusUsed && !background {
		r.usedForeground++
	}
	return tag
}

// AddCluster adds a fixed cluster that is never recycled. It is placed on
// the used list right away.
func (r *MixtureState) AddCluster(model ComponentModel) ClusterTag {
	return r.allocate(model, "", false, false, statusUsed)
}

// AddBackground adds a fixed cluster that does not count towards K
func (r *MixtureState) AddBackground(model ComponentModel) ClusterTag {
	return r.allocate(model, "", false, true, statusUsed)
}

// AddBaselineCluster spawns an empty destructible cluster of the baseline,
// it starts on the free list
func (r *MixtureState) AddBaselineCluster(baseline BaselineTag) ClusterTag {
	prototype, ok := r.baselines[baseline]
	if !ok {
		panic(fmt.Sprintf("unknown baseline `%s`", baseline))
	}
	return r.allocate(prototype.Clone(), baseline, true, false, statusFree)
}

// GetFreeCluster returns an empty destructible cluster of the baseline,
// allocating one when none is left
func (r *MixtureState) GetFreeCluster(baseline BaselineTag) *Cluster {
	for i := len(r.free) - 1; i >= 0; i-- {
		c := r.clusters[r.free[i]]
		if c.destructible && c.baseline == baseline {
			return c
		}
	}
	return r.clusters[r.AddBaselineCluster(baseline)]
}

// AddObservations adds the range to the cluster and applies the event
func (r *MixtureState) AddObservations(rg Range, tag ClusterTag) {
	c := r.clusters[tag]
	before := c.size
	r.update(c, c.AddObservations(rg))
	if !r.background[tag] {
		r.numElements += c.size - before
	}
}

// RemoveObservations removes the range from the cluster and applies the event
func (r *MixtureState) RemoveObservations(rg Range, tag ClusterTag) {
	c := r.clusters[tag]
	before := c.size
	r.update(c, c.RemoveObservations(rg))
	if !r.background[tag] {
		r.numElements += c.size - before
	}
}

// update moves a cluster between the lists after an emptiness transition.
// Fixed clusters always stay on the used list.
func (r *MixtureState) update(c *Cluster, event ClusterEvent) {
	if !c.destructible {
		return
	}
	switch event {
	case BecameNonEmpty:
		r.move(c.tag, statusUsed)
		r.usedForeground++
	case BecameEmpty:
		r.move(c.tag, statusFree)
		r.usedForeground--
	}
}

func (r *MixtureState) push(tag ClusterTag, status clusterStatus) {
	r.status[tag] = status
	if status == statusUsed {
		r.listPos[tag] = len(r.used)
		r.used = append(r.used, tag)
	} else {
		r.listPos[tag] = len(r.free)
		r.free = append(r.free, tag)
	}
}

// move swap-removes the tag from its list and appends it to the other
func (r *MixtureState) move(tag ClusterTag, status clusterStatus) {
	if r.status[tag] == status {
		return
	}
	list := &r.free
	if r.status[tag] == statusUsed {
		list = &r.used
	}
	i := r.listPos[tag]
	last := len(*list) - 1
	(*list)[i] = (*list)[last]
	r.listPos[(*list)[i]] = i
	*list = (*list)[:last]
	r.push(tag, status)
}

// Cluster returns the cluster with the tag
func (r *MixtureState) Cluster(tag ClusterTag) *Cluster {
	return r.clusters[tag]
}

// Used returns the tags on the used list, the slice must not be retained
// across updates
func (r *MixtureState) Used() []ClusterTag {
	return r.used
}

// Free returns the tags on the free list, the slice must not be retained
// across updates
func (r *MixtureState) Free() []ClusterTag {
	return r.free
}

// IsUsed reports whether the cluster is on the used list
func (r *MixtureState) IsUsed(tag ClusterTag) bool {
	return r.status[tag] == statusUsed
}

// IsBackground reports whether the cluster is a background component
func (r *MixtureState) IsBackground(tag ClusterTag) bool {
	return tag >= 0 && int(tag) < len(r.background) && r.background[tag]
}

// Len is the number of clusters ever allocated
func (r *MixtureState) Len() int {
	return len(r.clusters)
}

// Size is K, the number of used non-background clusters
func (r *MixtureState) Size() int {
	return r.usedForeground
}

// NumElements is N, the number of observations in non-background clusters
func (r *MixtureState) NumElements() int {
	return r.numElements
}

// ClusterSizes lists the sizes of used non-background clusters in tag order
func (r *MixtureState) ClusterSizes() []int {
	var sizes []int
	for _, tag := range r.ForegroundTags() {
		sizes = append(sizes, r.clusters[tag].size)
	}
	return sizes
}

// ForegroundTags lists used non-background clusters in tag order
func (r *MixtureState) ForegroundTags() []ClusterTag {
	var tags []ClusterTag
	for _, tag := range r.used {
		if !r.background[tag] {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// LogLikelihood sums the marginal likelihood of all used clusters
func (r *MixtureState) LogLikelihood() float64 {
	result := 0.0
	for _, tag := range r.used {
		result += r.clusters[tag].model.LogLikelihood()
	}
	return result
}

// CheckInvariants verifies the bookkeeping of both lists
func (r *MixtureState) CheckInvariants() error {
	if len(r.used)+len(r.free) != len(r.clusters) {
		return fmt.Errorf("used (%d) + free (%d) != allocated (%d)",
			len(r.used), len(r.free), len(r.clusters))
	}
	k, n := 0, 0
	for i, tag := range r.used {
		c := r.clusters[tag]
		if r.listPos[tag] != i || r.status[tag] != statusUsed {
			return fmt.Errorf("cluster %d misplaced on used list", tag)
		}
		if c.destructible && c.size == 0 {
			return fmt.Errorf("used cluster %d is empty", tag)
		}
		if !r.background[tag] {
			k++
			n += c.size
		}
	}
	for i, tag := range r.free {
		c := r.clusters[tag]
		if r.listPos[tag] != i || r.status[tag] != statusFree {
			return fmt.Errorf("cluster %d misplaced on free list", tag)
		}
		if !c.destructible || c.size != 0 {
			return fmt.Errorf("free cluster %d has size %d", tag, c.size)
		}
	}
	if k != r.usedForeground || n != r.numElements {
		return fmt.Errorf("cached K=%d N=%d, counted K=%d N=%d", r.usedForeground, r.numElements, k, n)
	}
	return nil
}

// Clone deep copies every cluster, baseline prototypes are shared
func (r *MixtureState) Clone() *MixtureState {
	p := *r
	p.clusters = make([]*Cluster, len(r.clusters))
	for i, c := range r.clusters {
		p.clusters[i] = c.Clone()
	}
	p.status = append([]clusterStatus(nil), r.status...)
	p.listPos = append([]int(nil), r.listPos...)
	p.background = append([]bool(nil), r.background...)
	p.used = append([]ClusterTag(nil), r.used...)
	p.free = append([]ClusterTag(nil), r.free...)
	p.baseNames = append([]BaselineTag(nil), r.baseNames...)
	return &p
}
