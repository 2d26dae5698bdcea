package ast

import (
	"sort"
	"strings"
)

// Range is a half-open byte span [Begin, End) in a source buffer.
type Range struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// NoRange marks an absent optional location.
var NoRange = Range{Begin: -1, End: -1}

// NewRange builds a range, swapping the bounds when given in reverse.
func NewRange(begin, end int) Range {
	if end < begin {
		begin, end = end, begin
	}
	return Range{Begin: begin, End: end}
}

// Valid reports whether the range points into a buffer.
func (r Range) Valid() bool {
	return r.Begin >= 0 && r.End >= r.Begin
}

// Len returns the number of bytes covered.
func (r Range) Len() int {
	if !r.Valid() {
		return 0
	}
	return r.End - r.Begin
}

// Empty reports a zero-length range (an insertion point).
func (r Range) Empty() bool {
	return r.Valid() && r.Begin == r.End
}

// Contains reports whether other lies entirely inside r.
func (r Range) Contains(other Range) bool {
	if !r.Valid() || !other.Valid() {
		return false
	}
	return r.Begin <= other.Begin && other.End <= r.End
}

// Join returns the smallest range covering both r and other.
func (r Range) Join(other Range) Range {
	if !r.Valid() {
		return other
	}
	if !other.Valid() {
		return r
	}
	return Range{Begin: min(r.Begin, other.Begin), End: max(r.End, other.End)}
}

// Position is a 1-based line and 0-based byte column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Source is an immutable source buffer with a line index.
type Source struct {
	Path       string
	text       string
	lineStarts []int
}

// NewSource indexes text for position lookups.
func NewSource(path, text string) *Source {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Source{Path: path, text: text, lineStarts: starts}
}

// Text returns the full buffer.
func (s *Source) Text() string {
	return s.text
}

// Slice returns the text covered by r, or "" for an invalid range.
func (s *Source) Slice(r Range) string {
	if !r.Valid() || r.End > len(s.text) {
		return ""
	}
	return s.text[r.Begin:r.End]
}

// Position converts a byte offset into a line/column pair.
func (s *Source) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.text) {
		offset = len(s.text)
	}
	line := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	}) - 1
	return Position{Line: line + 1, Column: offset - s.lineStarts[line]}
}

// Line returns the 1-based line number holding offset.
func (s *Source) Line(offset int) int {
	return s.Position(offset).Line
}

// LineCount returns the number of lines in the buffer.
func (s *Source) LineCount() int {
	return len(s.lineStarts)
}

// LineText returns the text of a 1-based line without its newline.
func (s *Source) LineText(line int) string {
	if line < 1 || line > len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[line-1]
	end := len(s.text)
	if line < len(s.lineStarts) {
		end = s.lineStarts[line] - 1
	}
	return strings.TrimSuffix(s.text[start:end], "\r")
}

// LineStart returns the offset of the first byte on the line holding offset.
func (s *Source) LineStart(offset int) int {
	pos := s.Position(offset)
	return s.lineStarts[pos.Line-1]
}
