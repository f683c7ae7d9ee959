/*
 *  history.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kshedden/gonpy"
	"github.com/shenwei356/xopen"
)

// SamplingHistory is the append-only trace of one sampler, one row per sweep
type SamplingHistory struct {
	Components   []int
	Switches     []float64
	Likelihood   []float64
	Posterior    []float64
	Temperature  []float64
	Partitions   []Partition
	MapPartition Partition
	MapPosterior float64
}

// NewSamplingHistory makes an empty trace
func NewSamplingHistory() *SamplingHistory {
	return &SamplingHistory{MapPosterior: math.Inf(-1)}
}

// Len is the number of recorded sweeps
func (r *SamplingHistory) Len() int {
	return len(r.Likelihood)
}

// Append records the diagnostics of one sweep
func (r *SamplingHistory) Append(components int, switches, likelihood, posterior, temperature float64) {
	r.Components = append(r.Components, components)
	r.Switches = append(r.Switches, switches)
	r.Likelihood = append(r.Likelihood, likelihood)
	r.Posterior = append(r.Posterior, posterior)
	r.Temperature = append(r.Temperature, temperature)
}

// Observe keeps the partition if its posterior beats the best one so far
func (r *SamplingHistory) Observe(p Partition, posterior float64, keep bool) {
	if keep {
		r.Partitions = append(r.Partitions, p)
	}
	if posterior > r.MapPosterior {
		r.MapPosterior = posterior
		r.MapPartition = p
	}
}

// Clone copies the trace so that a reader never races the sampler
func (r *SamplingHistory) Clone() *SamplingHistory {
	return &SamplingHistory{
		Components:   append([]int(nil), r.Components...),
		Switches:     append([]float64(nil), r.Switches...),
		Likelihood:   append([]float64(nil), r.Likelihood...),
		Posterior:    append([]float64(nil), r.Posterior...),
		Temperature:  append([]float64(nil), r.Temperature...),
		Partitions:   append([]Partition(nil), r.Partitions...),
		MapPartition: r.MapPartition,
		MapPosterior: r.MapPosterior,
	}
}

// Histories holds the traces of all replicas of a population
type Histories []*SamplingHistory

// WriteTo outputs the [Result] key-block format, one row per replica
func (r Histories) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	sb.WriteString("[Result]\n")
	writeBlock(&sb, "components", r, func(h *SamplingHistory) string { return joinInts(h.Components) })
	writeBlock(&sb, "switches", r, func(h *SamplingHistory) string { return joinFloats(h.Switches) })
	writeBlock(&sb, "likelihood", r, func(h *SamplingHistory) string { return joinFloats(h.Likelihood) })
	writeBlock(&sb, "posterior", r, func(h *SamplingHistory) string { return joinFloats(h.Posterior) })
	writeBlock(&sb, "temperature", r, func(h *SamplingHistory) string { return joinFloats(h.Temperature) })
	sb.WriteString("partitions =\n")
	for _, h := range r {
		for _, p := range h.Partitions {
			fmt.Fprintf(&sb, "\t%s\n", p)
		}
	}
	writeBlock(&sb, "map_partition", r, func(h *SamplingHistory) string { return h.MapPartition.String() })
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// Save writes the result file, gzipped if the name ends in .gz
func (r Histories) Save(filename string) error {
	fw, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fw)
	if _, err := r.WriteTo(w); err != nil {
		fw.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		fw.Close()
		return err
	}
	log.Noticef("Results written to `%s`", filename)
	return fw.Close()
}

// SaveNpy exports the likelihood and posterior traces as replica x sweep
// matrices in prefix.likelihood.npy and prefix.posterior.npy
func (r Histories) SaveNpy(prefix string) error {
	if err := r.saveMatrix(prefix+".likelihood.npy", func(h *SamplingHistory) []float64 { return h.Likelihood }); err != nil {
		return err
	}
	return r.saveMatrix(prefix+".posterior.npy", func(h *SamplingHistory) []float64 { return h.Posterior })
}

func (r Histories) saveMatrix(filename string, trace func(*SamplingHistory) []float64) error {
	rows, cols := len(r), 0
	for _, h := range r {
		if h.Len() > cols {
			cols = h.Len()
		}
	}
	data := make([]float64, rows*cols)
	for i, h := range r {
		row := data[i*cols : (i+1)*cols]
		values := trace(h)
		copy(row, values)
		for j := len(values); j < cols; j++ {
			row[j] = math.NaN()
		}
	}
	w, err := gonpy.NewFileWriter(filename)
	if err != nil {
		return err
	}
	w.Shape = []int{rows, cols}
	if err := w.WriteFloat64(data); err != nil {
		return err
	}
	log.Noticef("Trace matrix (%d x %d) written to `%s`", rows, cols, filename)
	return nil
}

// LoadNpy reads a matrix written by SaveNpy
func LoadNpy(filename string) ([][]float64, error) {
	rd, err := gonpy.NewFileReader(filename)
	if err != nil {
		return nil, err
	}
	data, err := rd.GetFloat64()
	if err != nil {
		return nil, err
	}
	if len(rd.Shape) != 2 {
		return nil, fmt.Errorf("expected a matrix in `%s`, got shape %v", filename, rd.Shape)
	}
	rows, cols := rd.Shape[0], rd.Shape[1]
	M := Make2DSliceFloat64(rows, cols)
	for i := range M {
		copy(M[i], data[i*cols:(i+1)*cols])
	}
	return M, nil
}

func writeBlock(sb *strings.Builder, key string, histories Histories, row func(*SamplingHistory) string) {
	fmt.Fprintf(sb, "%s =\n", key)
	for _, h := range histories {
		fmt.Fprintf(sb, "\t%s\n", row(h))
	}
}

func joinInts(a []int) string {
	atoms := make([]string, len(a))
	for i, v := range a {
		atoms[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(atoms, " ")
}

func joinFloats(a []float64) string {
	atoms := make([]string, len(a))
	for i, v := range a {
		atoms[i] = fmt.Sprintf("%f", v)
	}
	return strings.Join(atoms, " ")
}
