/*
 *  tfbs_state.go
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

// TFBSState adds binding site bookkeeping to MixtureState: which cluster
// every position belongs to, and where annotated sites start
type TFBSState struct {
	*MixtureState
	data        *TFBSData
	assignments SequenceData[ClusterTag]
	// starts holds +length for a forward site starting here, -length for a
	// reverse one and 0 elsewhere
	starts    SequenceData[int]
	NumTFBS   int
	MinLength int
	MaxLength int
	BgTags    []ClusterTag
}

// NewTFBSState makes a state with every position unassigned
func NewTFBSState(data *TFBSData, minLength, maxLength int, record bool) *TFBSState {
	return &TFBSState{
		MixtureState: NewMixtureState(record),
		data:         data,
		assignments:  NewSequenceData(data.Sizes(), NoCluster),
		starts:       NewSequenceData(data.Sizes(), 0),
		MinLength:    minLength,
		MaxLength:    maxLength,
	}
}

// AddBackground registers a background cluster
func (r *TFBSState) AddBackground(model ComponentModel) ClusterTag {
	tag := r.MixtureState.AddBackground(model)
	r.BgTags = append(r.BgTags, tag)
	return tag
}

// Assignment returns the cluster of the position
func (r *TFBSState) Assignment(i Index) ClusterTag {
	return r.assignments.Get(i)
}

// SiteAt returns the site starting at i, if any
func (r *TFBSState) SiteAt(i Index) (Range, bool) {
	length := r.starts.Get(i)
	if length == 0 {
		return Range{}, false
	}
	if length < 0 {
		return Range{Index: i, Length: -length, Reverse: true}, true
	}
	return Range{Index: i, Length: length}, true
}

// Add assigns the range to the cluster. A background cluster receives every
// position, a foreground cluster receives one site.
func (r *TFBSState) Add(rg Range, tag ClusterTag) {
	r.MixtureState.AddObservations(rg, tag)
	for j := 0; j < rg.Length; j++ {
		r.assignments.Set(rg.At(j), tag)
	}
	if r.IsBackground(tag) {
		return
	}
	if rg.Reverse {
		r.starts.Set(rg.Index, -rg.Length)
	} else {
		r.starts.Set(rg.Index, rg.Length)
	}
	r.NumTFBS++
}

// Remove releases whatever occupies i: the site starting at i, or the
// background positions of a window of MinLength. It returns the previous
// cluster of i.
func (r *TFBSState) Remove(i Index) ClusterTag {
	old := r.assignments.Get(i)
	if site, ok := r.SiteAt(i); ok {
		r.MixtureState.RemoveObservations(site, old)
		for j := 0; j < site.Length; j++ {
			r.assignments.Set(site.At(j), NoCluster)
		}
		r.starts.Set(i, 0)
		r.NumTFBS--
		return old
	}
	for j := 0; j < r.MinLength; j++ {
		k := Index{i.Seq, i.Pos + j}
		tag := r.assignments.Get(k)
		if r.IsBackground(tag) {
			r.MixtureState.RemoveObservations(Range{Index: k, Length: 1}, tag)
			r.assignments.Set(k, NoCluster)
		}
	}
	return old
}

// ValidForSampling checks if i is the start of a site, or if a site of
// MinLength would fit into the background at i
func (r *TFBSState) ValidForSampling(i Index) bool {
	if r.starts.Get(i) != 0 {
		return true
	}
	return r.validRange(Range{Index: i, Length: r.MinLength}, false)
}

// validRange checks bounds, masking and overlap. Unassigned positions are
// accepted only when free is set, they belong to the site being resampled.
func (r *TFBSState) validRange(rg Range, free bool) bool {
	if rg.Length < r.MinLength || rg.Length > r.MaxLength || !r.data.Contains(rg) {
		return false
	}
	for j := 0; j < rg.Length; j++ {
		k := rg.At(j)
		if r.data.Masked(k) {
			return false
		}
		tag := r.assignments.Get(k)
		if tag == NoCluster {
			if !free {
				return false
			}
			continue
		}
		if !r.IsBackground(tag) {
			return false
		}
	}
	return true
}

// BackgroundPositions counts positions assigned to any background cluster
func (r *TFBSState) BackgroundPositions() int {
	n := 0
	for _, tag := range r.BgTags {
		n += r.Cluster(tag).Size()
	}
	return n
}

// Sites lists all annotated sites grouped by cluster, sorted by position
func (r *TFBSState) Sites() map[ClusterTag][]Range {
	sites := make(map[ClusterTag][]Range)
	for s := range r.starts {
		for p := range r.starts[s] {
			i := Index{s, p}
			if site, ok := r.SiteAt(i); ok {
				tag := r.assignments.Get(i)
				sites[tag] = append(sites[tag], site)
			}
		}
	}
	for _, ranges := range sites {
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].Less(ranges[j]) })
	}
	return sites
}

// CheckInvariants extends the list checks with the position bookkeeping
func (r *TFBSState) CheckInvariants() error {
	if err := r.MixtureState.CheckInvariants(); err != nil {
		return err
	}
	n := 0
	for s := range r.starts {
		for p := range r.starts[s] {
			i := Index{s, p}
			site, ok := r.SiteAt(i)
			if !ok {
				continue
			}
			n++
			tag := r.assignments.Get(i)
			for j := 0; j < site.Length; j++ {
				if r.assignments.Get(site.At(j)) != tag {
					return fmt.Errorf("site %s is not fully assigned to cluster %d", site, tag)
				}
			}
		}
	}
	if n != r.NumTFBS {
		return fmt.Errorf("counted %d sites, cached %d", n, r.NumTFBS)
	}
	return nil
}

// Clone deep copies the state, the data stays shared
func (r *TFBSState) Clone() *TFBSState {
	p := *r
	p.MixtureState = r.MixtureState.Clone()
	p.assignments = r.assignments.Clone()
	p.starts = r.starts.Clone()
	p.BgTags = append([]ClusterTag(nil), r.BgTags...)
	return &p
}
