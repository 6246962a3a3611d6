// Package span implements half-open byte ranges and the subtraction
// algebra used to compute where a name is visible.
package span

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
)

// Range is the half-open interval [From, To).
type Range struct {
	From uint32
	To   uint32
}

// New builds a range from caller-supplied offsets. Negative or
// overflowing offsets are rejected rather than wrapped.
func New(from, to int) (Range, error) {
	f, err := safecast.Conv[uint32](from)
	if err != nil {
		return Range{}, fmt.Errorf("span: from %d: %w", from, err)
	}
	t, err := safecast.Conv[uint32](to)
	if err != nil {
		return Range{}, fmt.Errorf("span: to %d: %w", to, err)
	}
	return Range{From: f, To: t}, nil
}

// Of returns the byte range covered by a node.
func Of(n *sitter.Node) Range {
	return Range{From: n.StartByte(), To: n.EndByte()}
}

// Offset converts a caller offset to a tree-sitter position.
func Offset(pos int) (uint32, error) {
	p, err := safecast.Conv[uint32](pos)
	if err != nil {
		return 0, fmt.Errorf("span: offset %d: %w", pos, err)
	}
	return p, nil
}

func (r Range) Empty() bool { return r.From >= r.To }

func (r Range) Len() uint32 {
	if r.Empty() {
		return 0
	}
	return r.To - r.From
}

// Contains reports whether pos lies inside [From, To).
func (r Range) Contains(pos uint32) bool { return pos >= r.From && pos < r.To }

// Covers reports whether other lies entirely inside r.
func (r Range) Covers(other Range) bool { return other.From >= r.From && other.To <= r.To }

// Before reports whether r ends at or before other starts.
func (r Range) Before(other Range) bool { return r.To <= other.From }

// Clip returns the intersection of r and other. The result is empty
// (From == To) when they do not overlap.
func (r Range) Clip(other Range) Range {
	from := max(r.From, other.From)
	to := min(r.To, other.To)
	if to < from {
		to = from
	}
	return Range{From: from, To: to}
}

// Subtract removes other from r and returns what remains, in order.
func (r Range) Subtract(other Range) []Range {
	c := r.Clip(other)
	if c.Empty() {
		if r.Empty() {
			return nil
		}
		return []Range{r}
	}
	out := make([]Range, 0, 2)
	if left := (Range{From: r.From, To: c.From}); !left.Empty() {
		out = append(out, left)
	}
	if right := (Range{From: c.To, To: r.To}); !right.Empty() {
		out = append(out, right)
	}
	return out
}

// SubtractAll removes every range in bs from r. The result is sorted and
// disjoint, and does not depend on the order of bs.
func SubtractAll(r Range, bs []Range) []Range {
	remaining := r.Subtract(Range{})
	for _, b := range bs {
		var next []Range
		for _, piece := range remaining {
			next = append(next, piece.Subtract(b)...)
		}
		remaining = next
		if len(remaining) == 0 {
			break
		}
	}
	return remaining
}

// SubtractFromAll removes bs from each range in rs and merges the result.
func SubtractFromAll(rs []Range, bs []Range) []Range {
	var out []Range
	for _, r := range rs {
		out = append(out, SubtractAll(r, bs)...)
	}
	return Normalize(out)
}

// Normalize sorts ranges, drops empty ones and merges overlapping or
// touching neighbours.
func Normalize(rs []Range) []Range {
	var out []Range
	for _, r := range rs {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	merged := out[:0]
	for _, r := range out {
		if n := len(merged); n > 0 && r.From <= merged[n-1].To {
			merged[n-1].To = max(merged[n-1].To, r.To)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.From, r.To) }
