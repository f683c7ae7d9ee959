/*
 *  partition.go
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
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/shenwei356/xopen"
)

// Partition text format:
//
// baseline-default:10:{(0,12):10, (3,40):10!}, baseline-default:10:{(1,7):10}
//
// Each subset is tagged by the model id and site length of its baseline,
// followed by the sites as (sequence,position):length, a trailing ! marks
// the reverse strand.

// SubsetTag identifies the baseline a subset was drawn from
type SubsetTag struct {
	ModelID BaselineTag
	Length  int
}

// String outputs model_id:length
func (r SubsetTag) String() string {
	return fmt.Sprintf("%s:%d", r.ModelID, r.Length)
}

// Subset is one cluster of sites
type Subset struct {
	Tag    SubsetTag
	Ranges []Range
}

// String outputs tag:{range, ...}
func (r Subset) String() string {
	atoms := make([]string, len(r.Ranges))
	for i, rg := range r.Ranges {
		atoms[i] = rg.String()
	}
	return r.Tag.String() + ":{" + strings.Join(atoms, ", ") + "}"
}

// Partition is a set of subsets, the background is implicit
type Partition []Subset

// String outputs the canonical form of the partition
func (r Partition) String() string {
	atoms := make([]string, len(r))
	for i, s := range r {
		atoms[i] = s.String()
	}
	return strings.Join(atoms, ", ")
}

// Len counts all ranges in the partition
func (r Partition) Len() int {
	n := 0
	for _, s := range r {
		n += len(s.Ranges)
	}
	return n
}

// Sort orders ranges within subsets and subsets by their first range
func (r Partition) Sort() {
	for _, s := range r {
		sort.Slice(s.Ranges, func(i, j int) bool { return s.Ranges[i].Less(s.Ranges[j]) })
	}
	sort.SliceStable(r, func(i, j int) bool {
		if len(r[i].Ranges) == 0 || len(r[j].Ranges) == 0 {
			return len(r[i].Ranges) > len(r[j].Ranges)
		}
		return r[i].Ranges[0].Less(r[j].Ranges[0])
	})
}

// ParsePartition reads one partition in the text format
func ParsePartition(s string) (Partition, error) {
	p := &partitionParser{src: []rune(s)}
	partition, err := p.partition()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsePartition, err)
	}
	return partition, nil
}

// ReadPartitions parses one partition per non-empty line
func ReadPartitions(filename string) ([]Partition, error) {
	fh, err := xopen.Ropen(filename)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	log.Noticef("Parse partition file `%s`", filename)
	return readPartitions(fh)
}

// SavePartitions writes one partition per line
func SavePartitions(filename string, partitions ...Partition) error {
	fw, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fw)
	for _, p := range partitions {
		if _, err := fmt.Fprintln(w, p); err != nil {
			fw.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

func readPartitions(r io.Reader) ([]Partition, error) {
	var partitions []Partition
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<28)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || row[0] == '#' {
			continue
		}
		p, err := ParsePartition(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		partitions = append(partitions, p)
	}
	return partitions, scanner.Err()
}

// partitionParser is a recursive descent parser over the runes of the input
type partitionParser struct {
	src []rune
	pos int
}

func (r *partitionParser) skipSpace() {
	for r.pos < len(r.src) && unicode.IsSpace(r.src[r.pos]) {
		r.pos++
	}
}

func (r *partitionParser) peek() rune {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

func (r *partitionParser) expect(c rune) error {
	if got := r.peek(); got != c {
		if got == 0 {
			return fmt.Errorf("expected %q at end of input", c)
		}
		return fmt.Errorf("expected %q at offset %d, got %q", c, r.pos, got)
	}
	r.pos++
	return nil
}

func (r *partitionParser) integer() (int, error) {
	r.skipSpace()
	start := r.pos
	for r.pos < len(r.src) && unicode.IsDigit(r.src[r.pos]) {
		r.pos++
	}
	if start == r.pos {
		return 0, fmt.Errorf("expected integer at offset %d", start)
	}
	return strconv.Atoi(string(r.src[start:r.pos]))
}

func (r *partitionParser) identifier() (string, error) {
	r.skipSpace()
	start := r.pos
	for r.pos < len(r.src) && !strings.ContainsRune(":{}(),!", r.src[r.pos]) &&
		!unicode.IsSpace(r.src[r.pos]) {
		r.pos++
	}
	if start == r.pos {
		return "", fmt.Errorf("expected model id at offset %d", start)
	}
	return string(r.src[start:r.pos]), nil
}

func (r *partitionParser) partition() (Partition, error) {
	partition := Partition{}
	if r.peek() == 0 {
		return partition, nil
	}
	for {
		s, err := r.subset()
		if err != nil {
			return nil, err
		}
		partition = append(partition, s)
		if r.peek() != ',' {
			break
		}
		r.pos++
	}
	if r.peek() != 0 {
		return nil, fmt.Errorf("trailing input at offset %d", r.pos)
	}
	return partition, nil
}

func (r *partitionParser) subset() (Subset, error) {
	var s Subset
	id, err := r.identifier()
	if err != nil {
		return s, err
	}
	if err := r.expect(':'); err != nil {
		return s, err
	}
	length, err := r.integer()
	if err != nil {
		return s, err
	}
	if err := r.expect(':'); err != nil {
		return s, err
	}
	if err := r.expect('{'); err != nil {
		return s, err
	}
	s.Tag = SubsetTag{ModelID: BaselineTag(id), Length: length}
	if r.peek() == '}' {
		r.pos++
		return s, nil
	}
	for {
		rg, err := r.rangeTerm()
		if err != nil {
			return s, err
		}
		s.Ranges = append(s.Ranges, rg)
		if r.peek() != ',' {
			break
		}
		r.pos++
	}
	return s, r.expect('}')
}

func (r *partitionParser) rangeTerm() (Range, error) {
	var rg Range
	var err error
	if err = r.expect('('); err != nil {
		return rg, err
	}
	if rg.Seq, err = r.integer(); err != nil {
		return rg, err
	}
	if err = r.expect(','); err != nil {
		return rg, err
	}
	if rg.Pos, err = r.integer(); err != nil {
		return rg, err
	}
	if err = r.expect(')'); err != nil {
		return rg, err
	}
	if err = r.expect(':'); err != nil {
		return rg, err
	}
	if rg.Length, err = r.integer(); err != nil {
		return rg, err
	}
	if r.peek() == '!' {
		r.pos++
		rg.Reverse = true
	}
	return rg, nil
}
