/*
 *  state_test.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/tfbayes"
)

const testSequence = "ACGTTGCAACGTAGCTAGCTAGGATCCATGCAAGTCCGATTACAGGCATTACG"

func testData() *tfbayes.TFBSData {
	return tfbayes.NewTFBSData([]string{"s0", "s1"}, []string{testSequence, testSequence[5:]})
}

func TestProductDirichletReversibility(t *testing.T) {
	data := testData()
	model := tfbayes.NewProductDirichlet(tfbayes.UniformAlpha(6, 0.5), data)
	before := model.LogLikelihood()
	ranges := []tfbayes.Range{
		{Index: tfbayes.Index{Seq: 0, Pos: 3}, Length: 6},
		{Index: tfbayes.Index{Seq: 1, Pos: 10}, Length: 6, Reverse: true},
		{Index: tfbayes.Index{Seq: 0, Pos: 20}, Length: 6},
	}
	for _, rg := range ranges {
		require.Equal(t, 1, model.Add(rg))
	}
	require.NotEqual(t, before, model.LogLikelihood())
	for i := len(ranges) - 1; i >= 0; i-- {
		require.Equal(t, 1, model.Remove(ranges[i]))
	}
	require.InDelta(t, before, model.LogLikelihood(), 1e-12)
	for _, column := range model.Counts() {
		require.Equal(t, [tfbayes.AlphabetSize]float64{}, column)
	}
}

func TestProductDirichletChainRule(t *testing.T) {
	data := testData()
	model := tfbayes.NewProductDirichlet(tfbayes.UniformAlpha(4, 1), data)
	sum := 0.0
	for _, pos := range []int{0, 7, 13, 22} {
		rg := tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: pos}, Length: 4}
		sum += model.LogPredictive(rg)
		model.Add(rg)
	}
	require.InDelta(t, sum, model.LogLikelihood(), 1e-9)
}

func TestProductDirichletLengthMismatch(t *testing.T) {
	model := tfbayes.NewProductDirichlet(tfbayes.UniformAlpha(4, 1), testData())
	require.Panics(t, func() {
		model.Add(tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 0}, Length: 5})
	})
	require.Panics(t, func() {
		model.Add(tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: len(testSequence) - 2}, Length: 4})
	})
}

func TestIndependenceBackgroundChainRule(t *testing.T) {
	data := testData()
	bg := tfbayes.NewIndependenceBackground([tfbayes.AlphabetSize]float64{1, 1, 1, 1}, data)
	rg := tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 0}, Length: 12}
	joint := bg.LogPredictive(rg)
	sum := 0.0
	for j := 0; j < rg.Length; j++ {
		single := tfbayes.Range{Index: rg.At(j), Length: 1}
		sum += bg.LogPredictive(single)
		require.Equal(t, 1, bg.Add(single))
	}
	require.InDelta(t, joint, sum, 1e-9)
	require.InDelta(t, sum, bg.LogLikelihood(), 1e-9)
	require.Equal(t, 12, bg.Count(rg))
}

func newTestState(data *tfbayes.TFBSData) *tfbayes.MixtureState {
	state := tfbayes.NewMixtureState(true)
	state.AddBaseline(tfbayes.DefaultBaselineTag, tfbayes.NewProductDirichlet(tfbayes.UniformAlpha(5, 0.4), data))
	state.AddBackground(tfbayes.NewIndependenceBackground([tfbayes.AlphabetSize]float64{1, 1, 1, 1}, data))
	return state
}

func TestGetFreeClusterReusesEmpty(t *testing.T) {
	data := testData()
	state := newTestState(data)
	a := state.GetFreeCluster(tfbayes.DefaultBaselineTag).Tag()
	for _, pos := range []int{0, 10, 20} {
		state.AddObservations(tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: pos}, Length: 5}, a)
	}
	b := state.GetFreeCluster(tfbayes.DefaultBaselineTag).Tag()
	require.NotEqual(t, a, b)
	require.Equal(t, 3, state.Cluster(a).Size())
	require.Equal(t, 0, state.Cluster(b).Size())

	allocated := state.Len()
	require.Equal(t, b, state.GetFreeCluster(tfbayes.DefaultBaselineTag).Tag())
	require.Equal(t, allocated, state.Len())
	require.NoError(t, state.CheckInvariants())
}

func TestClusterRemoveMoreThanHeld(t *testing.T) {
	data := testData()
	c := tfbayes.NewCluster(tfbayes.NewIndependenceBackground([tfbayes.AlphabetSize]float64{1, 1, 1, 1}, data),
		0, "", true, false)
	require.Equal(t, tfbayes.BecameNonEmpty, c.AddObservations(tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 0}, Length: 2}))
	require.Equal(t, tfbayes.Unchanged, c.RemoveObservations(tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 0}, Length: 3}))
	require.Equal(t, 2, c.Size())
	require.Equal(t, tfbayes.BecameEmpty, c.RemoveObservations(tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 0}, Length: 2}))
}

func TestEmptyRangePanics(t *testing.T) {
	data := testData()
	state := newTestState(data)
	c := state.GetFreeCluster(tfbayes.DefaultBaselineTag)
	empty := tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 3}, Length: 0}
	require.False(t, data.Contains(empty))
	require.Panics(t, func() { state.AddObservations(empty, c.Tag()) })
	bg := state.Used()[0]
	require.Panics(t, func() { state.AddObservations(empty, bg) })

	require.Equal(t, 0, c.Size())
	require.False(t, state.IsUsed(c.Tag()))
	require.Equal(t, 0, state.Size())
	require.NoError(t, state.CheckInvariants())
}

func TestClusterListInvariant(t *testing.T) {
	data := testData()
	state := newTestState(data)
	fixed := state.AddCluster(tfbayes.NewProductDirichlet(tfbayes.UniformAlpha(5, 0.4), data))
	rng := rand.New(rand.NewPCG(1, 2))

	type site struct {
		rg  tfbayes.Range
		tag tfbayes.ClusterTag
	}
	var placed []site
	for step := 0; step < 500; step++ {
		if len(placed) > 0 && rng.IntN(2) == 0 {
			k := rng.IntN(len(placed))
			state.RemoveObservations(placed[k].rg, placed[k].tag)
			placed = append(placed[:k], placed[k+1:]...)
		} else {
			rg := tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: rng.IntN(len(testSequence) - 5)}, Length: 5}
			var tag tfbayes.ClusterTag
			switch used := state.ForegroundTags(); {
			case rng.IntN(4) == 0:
				tag = fixed
			case len(used) > 0 && rng.IntN(2) == 0:
				tag = used[rng.IntN(len(used))]
			default:
				tag = state.GetFreeCluster(tfbayes.DefaultBaselineTag).Tag()
			}
			state.AddObservations(rg, tag)
			placed = append(placed, site{rg, tag})
		}
		require.NoError(t, state.CheckInvariants())
		require.True(t, state.IsUsed(fixed), "fixed clusters never leave the used list")
	}
}

func TestTagStability(t *testing.T) {
	data := testData()
	state := newTestState(data)
	a := state.GetFreeCluster(tfbayes.DefaultBaselineTag).Tag()
	rg := tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 4}, Length: 5}
	state.AddObservations(rg, a)
	b := state.GetFreeCluster(tfbayes.DefaultBaselineTag).Tag()
	state.AddObservations(tfbayes.Range{Index: tfbayes.Index{Seq: 0, Pos: 12}, Length: 5}, b)

	state.RemoveObservations(rg, a)
	require.False(t, state.IsUsed(a))
	require.Equal(t, b, state.Cluster(b).Tag())
	require.Equal(t, a, state.GetFreeCluster(tfbayes.DefaultBaselineTag).Tag())

	clone := state.Clone()
	clone.AddObservations(rg, a)
	require.False(t, state.IsUsed(a), "clones do not share clusters")
	require.True(t, clone.IsUsed(a))
	require.Equal(t, 1, state.Size())
	require.Equal(t, 2, clone.Size())
	require.NoError(t, clone.CheckInvariants())
}

func TestLogAdd(t *testing.T) {
	require.InDelta(t, math.Log(3), tfbayes.LogAdd(math.Log(1), math.Log(2)), 1e-12)
	require.Equal(t, 1.5, tfbayes.LogAdd(math.Inf(-1), 1.5))
	require.Equal(t, 1.5, tfbayes.LogAdd(1.5, math.Inf(-1)))
}
