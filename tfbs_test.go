/*
 *  tfbs_test.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/tfbayes"
)

func syntheticModel(t *testing.T, seed uint64, bothStrands bool) (*tfbayes.TFBSModel, *tfbayes.SyntheticTFBS) {
	gen := tfbayes.DefaultSyntheticOptions()
	gen.Sequences = 8
	gen.Length = 60
	syn := tfbayes.GenerateTFBSData(rand.New(rand.NewPCG(seed, 0)), gen)
	opts := tfbayes.DefaultOptions()
	opts.BothStrands = bothStrands
	opts.Record = true
	model, err := tfbayes.NewTFBSModel(syn.Data(), opts)
	require.NoError(t, err)
	return model, syn
}

func TestNoSiteFits(t *testing.T) {
	data := tfbayes.NewTFBSData([]string{"short"}, []string{"ACGTACGT"})
	opts := tfbayes.DefaultOptions()
	opts.TFBSLength = 10
	model, err := tfbayes.NewTFBSModel(data, opts)
	require.NoError(t, err)
	require.Empty(t, model.Indexer().Sampling())

	sampler := tfbayes.NewSampler(model, model.Indexer(), rand.New(rand.NewPCG(3, 0)))
	for i := 0; i < 8; i++ {
		sampled, _ := sampler.Step(tfbayes.Index{Seq: 0, Pos: i})
		require.False(t, sampled)
	}
	require.NoError(t, sampler.Run(context.Background(), 5, 5))
	require.Equal(t, 0, model.State().NumTFBS)
	for _, k := range sampler.History().Components {
		require.Equal(t, 0, k)
	}
	require.Equal(t, 8, model.State().BackgroundPositions())
}

func TestMixtureWeights(t *testing.T) {
	model, _ := syntheticModel(t, 5, false)
	opts := tfbayes.DefaultOptions()
	i := tfbayes.Index{Seq: 2, Pos: 7}
	window := tfbayes.Range{Index: i, Length: opts.TFBSLength}
	require.True(t, model.ValidForSampling(i))

	state := model.State()
	bg := state.Cluster(state.BgTags[0])
	old := model.Remove(i)
	require.Equal(t, state.BgTags[0], old)

	empty := state.GetFreeCluster(tfbayes.DefaultBaselineTag)
	bgTerm := float64(opts.TFBSLength)*math.Log(1-opts.Lambda) + bg.Model().LogPredictive(window)
	newTerm := math.Log(opts.Lambda) + model.Prior().LogPredictive(empty, state, 1) +
		state.Baseline(tfbayes.DefaultBaselineTag).LogPredictive(window)

	for _, temp := range []float64{1, 2.5} {
		weights, candidates := model.MixtureWeights(i, nil, nil, temp)
		require.Len(t, weights, 2)
		require.Equal(t, state.BgTags[0], candidates[0].Tag)
		require.True(t, candidates[1].New)
		require.InDelta(t, bgTerm/temp, weights[0], 1e-9)
		require.InDelta(t, tfbayes.LogAdd(bgTerm/temp, newTerm/temp), weights[1], 1e-9)
	}
	model.Commit(tfbayes.Candidate{Tag: old, Range: window})
	require.NoError(t, state.CheckInvariants())
}

func TestMixtureWeightsMatchPosterior(t *testing.T) {
	model, _ := syntheticModel(t, 10, false)
	state := model.State()
	i := tfbayes.Index{Seq: 3, Pos: 12}
	window := tfbayes.Range{Index: i, Length: tfbayes.DefaultTFBSLength}

	model.Remove(i)
	weights, candidates := model.MixtureWeights(i, nil, nil, 1)
	require.Len(t, candidates, 2)
	model.Commit(candidates[0])
	background := model.LogPosterior()

	model.Remove(i)
	model.Commit(candidates[1])
	site := model.LogPosterior()
	require.Equal(t, 1, state.NumTFBS)
	require.Equal(t, window, model.Partition()[0].Ranges[0])

	// log odds of the two entries equal the posterior difference
	siteWeight := weights[1] + math.Log(-math.Expm1(weights[0]-weights[1]))
	require.InDelta(t, siteWeight-weights[0], site-background, 1e-8)
}

func TestMixtureWeightsBothStrands(t *testing.T) {
	model, syn := syntheticModel(t, 6, true)
	require.NoError(t, model.SetPartition(syn.Truth))
	site := syn.Truth[0].Ranges[0]
	model.Remove(site.Index)
	weights, candidates := model.MixtureWeights(site.Index, nil, nil, 1)
	require.Len(t, weights, len(candidates))
	// one background, two strands per foreground cluster and per baseline
	require.Equal(t, 1+2*model.NumClusters()+2, len(weights))
	for k := 1; k < len(weights); k++ {
		require.GreaterOrEqual(t, weights[k], weights[k-1])
	}
	reverse := 0
	for _, c := range candidates {
		if c.Range.Reverse {
			reverse++
		}
	}
	require.Equal(t, model.NumClusters()+1, reverse)
}

func TestSetPartition(t *testing.T) {
	model, syn := syntheticModel(t, 7, false)
	require.NoError(t, model.SetPartition(syn.Truth))
	require.NoError(t, model.State().CheckInvariants())
	require.Equal(t, syn.Truth.Len(), model.State().NumTFBS)

	p := model.Partition()
	p.Sort()
	require.Equal(t, syn.Truth.String(), p.String())

	err := model.SetPartition(syn.Truth)
	require.True(t, errors.Is(err, tfbayes.ErrInvalidPartition))
}

func TestSetPartitionRejectsOverlap(t *testing.T) {
	model, _ := syntheticModel(t, 8, false)
	p, err := tfbayes.ParsePartition("baseline-default:10:{(0,3):10, (0,8):10}")
	require.NoError(t, err)
	require.True(t, errors.Is(model.SetPartition(p), tfbayes.ErrInvalidPartition))

	// the rejected partition left nothing behind
	require.Equal(t, 0, model.State().NumTFBS)
	require.Equal(t, 0, model.NumClusters())
	require.NoError(t, model.State().CheckInvariants())
	p, err = tfbayes.ParsePartition("baseline-default:10:{(1,3):10}")
	require.NoError(t, err)
	require.NoError(t, model.SetPartition(p))
	require.Equal(t, 1, model.State().NumTFBS)

	model, _ = syntheticModel(t, 8, false)
	p, err = tfbayes.ParsePartition("baseline-default:10:{(0,3):10}, baseline-default:10:{(0,20):10, (0,25):10}")
	require.NoError(t, err)
	require.True(t, errors.Is(model.SetPartition(p), tfbayes.ErrInvalidPartition))
	require.Equal(t, 0, model.State().NumTFBS)
	require.Equal(t, 0, model.NumClusters())

	model, _ = syntheticModel(t, 8, false)
	p, err = tfbayes.ParsePartition("unknown:10:{(0,3):10}")
	require.NoError(t, err)
	require.True(t, errors.Is(model.SetPartition(p), tfbayes.ErrInvalidPartition))
}

func TestSamplingKeepsInvariants(t *testing.T) {
	model, syn := syntheticModel(t, 9, true)
	sampler := tfbayes.NewSampler(model, model.Indexer(), rand.New(rand.NewPCG(9, 1)))
	sampler.InitialTemperature = 3
	require.NoError(t, sampler.Run(context.Background(), 10, 10))

	state := model.State()
	require.NoError(t, state.CheckInvariants())
	require.Equal(t, state.NumTFBS, model.Partition().Len())
	total := 0
	for _, s := range syn.Sequences {
		total += len(s)
	}
	require.Equal(t, total, state.NumTFBS*tfbayes.DefaultTFBSLength+state.BackgroundPositions())
	for _, tag := range state.ForegroundTags() {
		c := state.Cluster(tag)
		require.Len(t, c.Elements(), c.Size())
	}

	h := sampler.History()
	require.Equal(t, 20, h.Len())
	require.InDelta(t, 3-2.0/10, h.Temperature[0], 1e-12)
	require.Equal(t, 1.0, h.Temperature[9])
	require.Equal(t, 1.0, h.Temperature[19])
	require.False(t, math.IsInf(h.MapPosterior, -1))
}

func TestCloneIsIndependent(t *testing.T) {
	model, syn := syntheticModel(t, 10, false)
	clone := model.Clone()
	require.NoError(t, model.SetPartition(syn.Truth))
	require.Equal(t, 0, clone.NumClusters())
	require.Empty(t, clone.Partition())
	require.NotEqual(t, model.LogLikelihood(), clone.LogLikelihood())
}
