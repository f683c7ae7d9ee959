/*
 *  config.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/xopen"
	"gopkg.in/yaml.v3"
)

// BaselineOptions describes one foreground prior family. Alpha gives one
// pseudo-count row per site column, when empty every entry is Pseudocount.
type BaselineOptions struct {
	Name        BaselineTag            `yaml:"name"`
	Alpha       [][AlphabetSize]float64 `yaml:"alpha,omitempty"`
	Pseudocount float64                `yaml:"pseudocount"`
}

// Options configures the model and the sampler
type Options struct {
	ProcessPrior    string                  `yaml:"process_prior"`
	Alpha           float64                 `yaml:"alpha"`
	Discount        float64                 `yaml:"discount"`
	Lambda          float64                 `yaml:"lambda"`
	TFBSLength      int                     `yaml:"tfbs_length"`
	BackgroundModel string                  `yaml:"background_model"`
	BackgroundAlpha [][AlphabetSize]float64 `yaml:"background_alpha"`
	Baselines       []BaselineOptions       `yaml:"baselines"`
	BothStrands     bool                    `yaml:"both_strands"`
	Record          bool                    `yaml:"record"`

	Burnin             int     `yaml:"burnin"`
	Samples            int     `yaml:"samples"`
	Population         int     `yaml:"population"`
	Seed               uint64  `yaml:"seed"`
	InitialTemperature float64 `yaml:"initial_temperature"`
	SavePartitions     bool    `yaml:"save_partitions"`
}

// DefaultOptions returns a Pitman-Yor model with one background and one
// baseline
func DefaultOptions() *Options {
	return &Options{
		ProcessPrior:    "pitman-yor",
		Alpha:           DefaultAlpha,
		Discount:        DefaultDiscount,
		Lambda:          DefaultLambda,
		TFBSLength:      DefaultTFBSLength,
		BackgroundModel: "independence-dirichlet",
		BackgroundAlpha: [][AlphabetSize]float64{
			{DefaultBackgroundAlpha, DefaultBackgroundAlpha, DefaultBackgroundAlpha, DefaultBackgroundAlpha},
		},
		Baselines: []BaselineOptions{
			{Name: DefaultBaselineTag, Pseudocount: DefaultBaselineAlpha},
		},
		Burnin:             100,
		Samples:            100,
		Population:         1,
		Seed:               42,
		InitialTemperature: 1,
		SavePartitions:     true,
	}
}

// LoadOptions reads a YAML file on top of the defaults
func LoadOptions(filename string) (*Options, error) {
	opts := DefaultOptions()
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	if err := yaml.NewDecoder(fh).Decode(opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidOptions, filename, err)
	}
	log.Noticef("Load options from `%s`", filename)
	return opts, opts.Validate()
}

// Save writes the options as YAML
func (r *Options) Save(filename string) error {
	fw, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(fw)
	if err := enc.Encode(r); err != nil {
		fw.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

// Validate checks every option against its domain
func (r *Options) Validate() error {
	switch {
	case r.TFBSLength < 1:
		return fmt.Errorf("%w: tfbs_length must be positive, got %d", ErrInvalidOptions, r.TFBSLength)
	case r.Lambda <= 0 || r.Lambda >= 1:
		return fmt.Errorf("%w: lambda must be in (0, 1), got %g", ErrInvalidOptions, r.Lambda)
	case r.Alpha <= 0:
		return fmt.Errorf("%w: alpha must be positive, got %g", ErrInvalidOptions, r.Alpha)
	case r.Discount < 0 || r.Discount >= 1:
		return fmt.Errorf("%w: discount must be in [0, 1), got %g", ErrInvalidOptions, r.Discount)
	case len(r.BackgroundAlpha) == 0:
		return fmt.Errorf("%w: at least one background is required", ErrInvalidOptions)
	case len(r.Baselines) == 0:
		return fmt.Errorf("%w: at least one baseline is required", ErrInvalidOptions)
	case r.Burnin < 0 || r.Samples < 0:
		return fmt.Errorf("%w: burnin and samples must not be negative", ErrInvalidOptions)
	case r.Population < 1:
		return fmt.Errorf("%w: population must be positive, got %d", ErrInvalidOptions, r.Population)
	case r.InitialTemperature < 1:
		return fmt.Errorf("%w: initial_temperature must be at least 1, got %g", ErrInvalidOptions, r.InitialTemperature)
	}
	for _, alpha := range r.BackgroundAlpha {
		for _, a := range alpha {
			if a <= 0 {
				return fmt.Errorf("%w: background pseudo-counts must be positive", ErrInvalidOptions)
			}
		}
	}
	names := map[BaselineTag]bool{}
	for _, b := range r.Baselines {
		if b.Name == "" || names[b.Name] {
			return fmt.Errorf("%w: baseline names must be unique and non-empty", ErrInvalidOptions)
		}
		names[b.Name] = true
		if b.Alpha == nil && b.Pseudocount <= 0 {
			return fmt.Errorf("%w: baseline `%s` needs alpha or a positive pseudocount", ErrInvalidOptions, b.Name)
		}
	}
	return nil
}
