/*
 *  data.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"fmt"
	"io"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// SequenceData stores one value per position of every sequence
type SequenceData[T any] [][]T

// NewSequenceData allocates SequenceData with the given sequence sizes, every
// position is set to init
func NewSequenceData[T any](sizes []int, init T) SequenceData[T] {
	d := make(SequenceData[T], len(sizes))
	for i, n := range sizes {
		d[i] = make([]T, n)
		for j := range d[i] {
			d[i][j] = init
		}
	}
	return d
}

// Get returns the value at index
func (r SequenceData[T]) Get(i Index) T {
	return r[i.Seq][i.Pos]
}

// Set stores the value at index
func (r SequenceData[T]) Set(i Index, v T) {
	r[i.Seq][i.Pos] = v
}

// Clone copies the values into fresh storage
func (r SequenceData[T]) Clone() SequenceData[T] {
	d := make(SequenceData[T], len(r))
	for i, s := range r {
		d[i] = append([]T(nil), s...)
	}
	return d
}

// Code holds nucleotide counts at one position. A plain sequence has a single
// 1 in the column of its base, an alignment column may hold several counts
// and a masked position is all zeros.
type Code [AlphabetSize]float64

// Complement swaps A<->T and C<->G
func (r Code) Complement() Code {
	return Code{r[3], r[2], r[1], r[0]}
}

// Total is the number of observations at this position
func (r Code) Total() float64 {
	return r[0] + r[1] + r[2] + r[3]
}

// TFBSData holds the coded sequences, shared read-only by all samplers
type TFBSData struct {
	Names []string
	codes SequenceData[Code]
}

// NewTFBSData codes the given nucleotide strings, characters outside ACGT
// are masked
func NewTFBSData(names, sequences []string) *TFBSData {
	p := &TFBSData{Names: names}
	p.codes = make(SequenceData[Code], len(sequences))
	for i, s := range sequences {
		p.codes[i] = encode([]byte(s))
	}
	if len(p.Names) < len(sequences) {
		for i := len(p.Names); i < len(sequences); i++ {
			p.Names = append(p.Names, fmt.Sprintf("seq%d", i))
		}
	}
	return p
}

// NewTFBSDataFromCodes wraps precomputed codes, e.g. alignment columns
func NewTFBSDataFromCodes(names []string, codes SequenceData[Code]) *TFBSData {
	return &TFBSData{Names: names, codes: codes}
}

// LoadFasta reads all records of a FASTA file into TFBSData
func LoadFasta(fastafile string) (*TFBSData, error) {
	log.Noticef("Parse fastafile `%s`", fastafile)
	seq.ValidateSeq = false
	reader, err := fastx.NewDefaultReader(fastafile)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fastafile, err)
	}

	var names, sequences []string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fastafile, err)
		}
		name := strings.Fields(string(rec.Name))
		if len(name) == 0 {
			name = []string{fmt.Sprintf("seq%d", len(names))}
		}
		names = append(names, name[0])
		sequences = append(sequences, string(rec.Seq.Seq))
	}
	if len(sequences) == 0 {
		return nil, fmt.Errorf("%w: no records in %s", ErrEmptyData, fastafile)
	}
	data := NewTFBSData(names, sequences)
	log.Noticef("Imported %d sequences (%d positions)", len(sequences), data.Elements())
	return data, nil
}

// encode converts nucleotides into codes
func encode(s []byte) []Code {
	codes := make([]Code, len(s))
	for i, c := range s {
		switch c {
		case 'A', 'a':
			codes[i][0] = 1
		case 'C', 'c':
			codes[i][1] = 1
		case 'G', 'g':
			codes[i][2] = 1
		case 'T', 't':
			codes[i][3] = 1
		}
	}
	return codes
}

// Sizes returns the length of every sequence
func (r *TFBSData) Sizes() []int {
	sizes := make([]int, len(r.codes))
	for i, s := range r.codes {
		sizes[i] = len(s)
	}
	return sizes
}

// Size returns the length of one sequence
func (r *TFBSData) Size(seq int) int {
	return len(r.codes[seq])
}

// Elements counts all positions
func (r *TFBSData) Elements() int {
	n := 0
	for _, s := range r.codes {
		n += len(s)
	}
	return n
}

// Code returns the code at index
func (r *TFBSData) Code(i Index) Code {
	return r.codes.Get(i)
}

// Masked reports positions that carry no observation
func (r *TFBSData) Masked(i Index) bool {
	return r.codes.Get(i).Total() == 0
}

// Contains checks that the range is non-empty and fully inside its sequence
func (r *TFBSData) Contains(rg Range) bool {
	return rg.Seq >= 0 && rg.Seq < len(r.codes) && rg.Pos >= 0 && rg.Length >= 1 &&
		rg.Pos+rg.Length <= len(r.codes[rg.Seq])
}

// mustContain panics on empty ranges and ranges outside the data
func (r *TFBSData) mustContain(rg Range) {
	if !r.Contains(rg) {
		panic(fmt.Sprintf("range %s out of bounds", rg))
	}
}

// Indexer builds an iteration order over every position
func (r *TFBSData) Indexer() *Indexer {
	var indices []Index
	for i, s := range r.codes {
		for j := range s {
			indices = append(indices, Index{i, j})
		}
	}
	return NewIndexer(indices, indices)
}
