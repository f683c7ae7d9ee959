/*
 *  cli.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

// banner prints the separate steps
func banner(message string) {
	message = "* " + message + " *"
	log.Noticef(strings.Repeat("*", len(message)))
	log.Noticef(message)
	log.Noticef(strings.Repeat("*", len(message)))
}

// Execute builds the command tree and runs it on os.Args
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand assembles all subcommands
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "tfbayes",
		Short:   "Bayesian discovery of transcription factor binding sites",
		Version: Version,
		Long: `
tfbayes clusters binding sites in DNA sequences with a Dirichlet process
mixture, sampled by collapsed Gibbs sweeps under a Pitman-Yor, uniform or
Poppe process prior.
`,
		SilenceUsage: true,
	}
	root.AddCommand(newSampleCommand(), newSyntheticCommand(), newGaussianCommand(), newPartitionCommand())
	return root
}

func newSampleCommand() *cobra.Command {
	opts := DefaultOptions()
	var config, output string
	var npy bool
	cmd := &cobra.Command{
		Use:   "sample fastafile",
		Short: "Sample binding site partitions from a FASTA file",
		Long: `
	tfbayes sample fastafile [options]

Sample function:
Every position is either background or the start of a binding site. Sites
are clustered by a Dirichlet process mixture of product Dirichlet motifs and
resampled by collapsed Gibbs sweeps. The history and MAP partitions are
written to <output>.result.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if config != "" {
				loaded, err := LoadOptions(config)
				if err != nil {
					return err
				}
				overrideOptions(cmd, loaded, opts)
				opts = loaded
			}
			fastafile := args[0]
			if output == "" {
				output = RemoveExt(fastafile)
			}
			banner("Sample " + fastafile)
			data, err := LoadFasta(fastafile)
			if err != nil {
				return err
			}
			model, err := NewTFBSModel(data, opts)
			if err != nil {
				return err
			}
			return runPopulation(cmd, model, opts, output, npy)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&config, "config", "", "YAML options file, flags given explicitly take precedence")
	flags.StringVar(&opts.ProcessPrior, "prior", opts.ProcessPrior, "Process prior: pitman-yor, uniform or poppe")
	flags.Float64Var(&opts.Alpha, "alpha", opts.Alpha, "Concentration of the process prior")
	flags.Float64Var(&opts.Discount, "discount", opts.Discount, "Pitman-Yor discount")
	flags.Float64Var(&opts.Lambda, "lambda", opts.Lambda, "Prior probability of a site starting at a position")
	flags.IntVar(&opts.TFBSLength, "tfbs-length", opts.TFBSLength, "Binding site length")
	flags.BoolVar(&opts.BothStrands, "both-strands", opts.BothStrands, "Also sample sites on the reverse strand")
	addSamplerFlags(cmd, opts)
	flags.StringVar(&output, "output", "", "Output prefix, defaults to the input file name without extension")
	flags.BoolVar(&npy, "npy", false, "Export likelihood and posterior traces as .npy")
	return cmd
}

// addSamplerFlags registers the flags shared by all sampling commands
func addSamplerFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.Flags()
	flags.IntVar(&opts.Burnin, "burnin", opts.Burnin, "Number of burn-in sweeps")
	flags.IntVar(&opts.Samples, "samples", opts.Samples, "Number of sampling sweeps")
	flags.IntVar(&opts.Population, "population", opts.Population, "Number of independent samplers")
	flags.Uint64Var(&opts.Seed, "seed", opts.Seed, "Random seed")
	flags.Float64Var(&opts.InitialTemperature, "temperature", opts.InitialTemperature, "Initial burn-in temperature")
}

// overrideOptions copies every explicitly set flag onto the loaded options
func overrideOptions(cmd *cobra.Command, loaded, flagged *Options) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("prior", func() { loaded.ProcessPrior = flagged.ProcessPrior })
	set("alpha", func() { loaded.Alpha = flagged.Alpha })
	set("discount", func() { loaded.Discount = flagged.Discount })
	set("lambda", func() { loaded.Lambda = flagged.Lambda })
	set("tfbs-length", func() { loaded.TFBSLength = flagged.TFBSLength })
	set("both-strands", func() { loaded.BothStrands = flagged.BothStrands })
	set("burnin", func() { loaded.Burnin = flagged.Burnin })
	set("samples", func() { loaded.Samples = flagged.Samples })
	set("population", func() { loaded.Population = flagged.Population })
	set("seed", func() { loaded.Seed = flagged.Seed })
	set("temperature", func() { loaded.InitialTemperature = flagged.InitialTemperature })
}

// runPopulation samples the model and writes the results
func runPopulation(cmd *cobra.Command, model Mixture, opts *Options, output string, npy bool) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	population := NewPopulation(model, model.Indexer(), opts.Population, opts.Seed)
	population.Configure(opts.InitialTemperature, opts.SavePartitions)
	population.SetOutput(cmd.OutOrStdout())
	if err := population.Run(ctx, opts.Burnin, opts.Samples); err != nil {
		return err
	}

	histories := population.History()
	if err := histories.Save(output + ".result"); err != nil {
		return err
	}
	if npy {
		if err := histories.SaveNpy(output); err != nil {
			return err
		}
	}
	summary := population.Summary()
	log.Noticef("PSRF of the likelihood: %.4f", summary.PSRF)
	for i, a := range summary.Agreement {
		log.Noticef("Sampler %d agrees with sampler 0 on %.1f%% of the MAP sites", i, a*100)
	}
	return nil
}

func newSyntheticCommand() *cobra.Command {
	opts := DefaultSyntheticOptions()
	var seed uint64
	var truth string
	cmd := &cobra.Command{
		Use:   "synthetic fastafile",
		Short: "Generate sequences with planted motifs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Sequences < 1 || opts.Length < 1 || opts.MotifLength < 1 || opts.MotifAlpha <= 0 {
				return fmt.Errorf("%w: sequences, length, motif length and motif alpha must be positive", ErrInvalidOptions)
			}
			banner("Synthetic " + args[0])
			rng := rand.New(rand.NewPCG(seed, 0))
			syn := GenerateTFBSData(rng, opts)
			if err := syn.WriteFasta(args[0]); err != nil {
				return err
			}
			if truth == "" {
				truth = RemoveExt(args[0]) + ".partition"
			}
			if err := SavePartitions(truth, syn.Truth); err != nil {
				return err
			}
			log.Noticef("Planted partition written to `%s`", truth)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.Sequences, "sequences", opts.Sequences, "Number of sequences")
	flags.IntVar(&opts.Length, "length", opts.Length, "Length of every sequence")
	flags.IntVar(&opts.Motifs, "motifs", opts.Motifs, "Number of planted motifs")
	flags.IntVar(&opts.MotifLength, "motif-length", opts.MotifLength, "Length of the motifs")
	flags.IntVar(&opts.SitesPerSequence, "sites", opts.SitesPerSequence, "Planted sites per sequence")
	flags.Float64Var(&opts.MotifAlpha, "motif-alpha", opts.MotifAlpha, "Dirichlet concentration of motif columns")
	flags.Uint64Var(&seed, "seed", 42, "Random seed")
	flags.StringVar(&truth, "truth", "", "Output file of the planted partition")
	return cmd
}

func newGaussianCommand() *cobra.Command {
	opts := DefaultOptions()
	gen := DefaultGaussianSyntheticOptions()
	var output string
	var npy bool
	cmd := &cobra.Command{
		Use:   "gaussian",
		Short: "Cluster synthetic bivariate Gaussian data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			banner("Gaussian mixture")
			prior, err := NewProcessPrior(opts.ProcessPrior, opts.Alpha, opts.Discount)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(opts.Seed, 0))
			data := GenerateGaussianData(rng, gen)
			s2 := gen.Sigma * gen.Sigma
			v0 := gen.Spread * gen.Spread
			baseline := NewBivariateGaussian([2][2]float64{{s2, 0}, {0, s2}}, [2]float64{0, 0},
				[2][2]float64{{v0, 0}, {0, v0}}, data)
			model, err := NewGaussianMixture(data, prior, baseline, opts.Record)
			if err != nil {
				return err
			}
			return runPopulation(cmd, model, opts, output, npy)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.ProcessPrior, "prior", opts.ProcessPrior, "Process prior: pitman-yor, uniform or poppe")
	flags.Float64Var(&opts.Alpha, "alpha", 1, "Concentration of the process prior")
	flags.Float64Var(&opts.Discount, "discount", opts.Discount, "Pitman-Yor discount")
	flags.IntVar(&gen.Points, "points", gen.Points, "Number of points")
	flags.Float64Var(&gen.Alpha, "crp-alpha", gen.Alpha, "Concentration used to generate the clusters")
	flags.Float64Var(&gen.Spread, "spread", gen.Spread, "Standard deviation of the cluster means")
	flags.Float64Var(&gen.Sigma, "sigma", gen.Sigma, "Standard deviation within clusters")
	addSamplerFlags(cmd, opts)
	flags.StringVar(&output, "output", "gaussian", "Output prefix")
	flags.BoolVar(&npy, "npy", false, "Export likelihood and posterior traces as .npy")
	return cmd
}

func newPartitionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "partition partitionfile",
		Short: "Parse partitions and print them in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partitions, err := ReadPartitions(args[0])
			if err != nil {
				return err
			}
			for _, p := range partitions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", p)
			}
			log.Noticef("%d partitions normalized", len(partitions))
			return nil
		},
	}
}
