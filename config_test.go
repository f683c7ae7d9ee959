/*
 *  config_test.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/tfbayes"
)

func TestLoadOptions(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "options.yaml")
	content := `
process_prior: poppe
lambda: 0.02
tfbs_length: 8
both_strands: true
background_alpha:
  - [2, 1, 1, 2]
baselines:
  - name: weak
    pseudocount: 0.5
  - name: strong
    pseudocount: 2
population: 4
seed: 7
`
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	opts, err := tfbayes.LoadOptions(filename)
	require.NoError(t, err)
	require.Equal(t, "poppe", opts.ProcessPrior)
	require.Equal(t, 0.02, opts.Lambda)
	require.Equal(t, 8, opts.TFBSLength)
	require.True(t, opts.BothStrands)
	require.Equal(t, [][tfbayes.AlphabetSize]float64{{2, 1, 1, 2}}, opts.BackgroundAlpha)
	require.Len(t, opts.Baselines, 2)
	require.Equal(t, tfbayes.BaselineTag("strong"), opts.Baselines[1].Name)
	require.Equal(t, 4, opts.Population)
	require.Equal(t, uint64(7), opts.Seed)
	// untouched keys keep their defaults
	require.Equal(t, tfbayes.DefaultAlpha, opts.Alpha)
	require.Equal(t, 100, opts.Burnin)
}

func TestOptionsSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "options.yaml")
	opts := tfbayes.DefaultOptions()
	opts.Baselines[0].Alpha = tfbayes.UniformAlpha(opts.TFBSLength, 0.3)
	require.NoError(t, opts.Save(filename))
	loaded, err := tfbayes.LoadOptions(filename)
	require.NoError(t, err)
	require.Equal(t, opts, loaded)
}

func TestValidateOptions(t *testing.T) {
	for name, mutate := range map[string]func(*tfbayes.Options){
		"lambda":      func(o *tfbayes.Options) { o.Lambda = 1 },
		"length":      func(o *tfbayes.Options) { o.TFBSLength = 0 },
		"discount":    func(o *tfbayes.Options) { o.Discount = -0.1 },
		"background":  func(o *tfbayes.Options) { o.BackgroundAlpha = nil },
		"baseline":    func(o *tfbayes.Options) { o.Baselines = nil },
		"duplicate":   func(o *tfbayes.Options) { o.Baselines = append(o.Baselines, o.Baselines[0]) },
		"population":  func(o *tfbayes.Options) { o.Population = 0 },
		"temperature": func(o *tfbayes.Options) { o.InitialTemperature = 0.5 },
	} {
		opts := tfbayes.DefaultOptions()
		mutate(opts)
		err := opts.Validate()
		require.True(t, errors.Is(err, tfbayes.ErrInvalidOptions), name)
	}
	require.NoError(t, tfbayes.DefaultOptions().Validate())
}

func TestModelOptionErrors(t *testing.T) {
	data := testData()
	opts := tfbayes.DefaultOptions()
	opts.BackgroundModel = "markov-chain"
	_, err := tfbayes.NewTFBSModel(data, opts)
	require.True(t, errors.Is(err, tfbayes.ErrUnknownBackground))

	opts = tfbayes.DefaultOptions()
	opts.ProcessPrior = "indian buffet"
	_, err = tfbayes.NewTFBSModel(data, opts)
	require.True(t, errors.Is(err, tfbayes.ErrUnknownPrior))

	opts = tfbayes.DefaultOptions()
	opts.Baselines[0].Alpha = tfbayes.UniformAlpha(3, 1)
	_, err = tfbayes.NewTFBSModel(data, opts)
	require.True(t, errors.Is(err, tfbayes.ErrInvalidOptions))

	_, err = tfbayes.NewTFBSModel(tfbayes.NewTFBSData(nil, nil), tfbayes.DefaultOptions())
	require.True(t, errors.Is(err, tfbayes.ErrEmptyData))
}

func TestPartitionCommand(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "in.partition")
	require.NoError(t, os.WriteFile(filename, []byte("m:4:{ (0,1):4 ,(2,3):4! }\n"), 0o644))
	root := tfbayes.NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"partition", filename})
	require.NoError(t, root.Execute())
	require.Equal(t, "m:4:{(0,1):4, (2,3):4!}", strings.TrimSpace(out.String()))
}

func TestSampleCommand(t *testing.T) {
	dir := t.TempDir()
	fastafile := filepath.Join(dir, "planted.fa")
	root := tfbayes.NewRootCommand()
	root.SetArgs([]string{"synthetic", fastafile, "--sequences", "4", "--length", "40"})
	require.NoError(t, root.Execute())
	truth, err := tfbayes.ReadPartitions(filepath.Join(dir, "planted.partition"))
	require.NoError(t, err)
	require.Len(t, truth, 1)
	require.Equal(t, 4, truth[0].Len())

	root = tfbayes.NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sample", fastafile, "--burnin", "2", "--samples", "2",
		"--population", "2", "--npy"})
	require.NoError(t, root.Execute())
	require.Equal(t, 8, strings.Count(out.String(), "\n"))

	prefix := filepath.Join(dir, "planted")
	for _, name := range []string{".result", ".likelihood.npy", ".posterior.npy", ".partition"} {
		_, err := os.Stat(prefix + name)
		require.NoError(t, err, name)
	}
}
