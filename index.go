/*
 *  index.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import "fmt"

// Index identifies a position in the data, a point for 1-D data has Seq = 0
type Index struct {
	Seq int
	Pos int
}

// Less orders indices by sequence first, then by position
func (r Index) Less(o Index) bool {
	if r.Seq != o.Seq {
		return r.Seq < o.Seq
	}
	return r.Pos < o.Pos
}

// String outputs the string representation of Index
func (r Index) String() string {
	return fmt.Sprintf("(%d,%d)", r.Seq, r.Pos)
}

// Range is a half-open span [Pos, Pos+Length) within one sequence. Reverse
// marks a word read from the complementary strand.
type Range struct {
	Index
	Length  int
	Reverse bool
}

// NewRange makes a forward range
func NewRange(index Index, length int) Range {
	return Range{Index: index, Length: length}
}

// Less orders ranges by start, then length, forward before reverse
func (r Range) Less(o Range) bool {
	if r.Index != o.Index {
		return r.Index.Less(o.Index)
	}
	if r.Length != o.Length {
		return r.Length < o.Length
	}
	return !r.Reverse && o.Reverse
}

// At returns the i-th index covered by the range
func (r Range) At(i int) Index {
	return Index{r.Seq, r.Pos + i}
}

// String outputs the string representation of Range
func (r Range) String() string {
	s := fmt.Sprintf("%s:%d", r.Index, r.Length)
	if r.Reverse {
		s += "!"
	}
	return s
}
