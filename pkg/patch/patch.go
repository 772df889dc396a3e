// Package patch applies positional text edits to a byte buffer.
//
// Offsets in an Edit refer to the buffer passed to Apply, not to any
// intermediate state; Apply sorts edits by ascending offset and tracks the
// cumulative length delta so later edits land where they were measured.
package patch

import (
	"fmt"
	"sort"
)

// Edit replaces Length bytes at Offset with Replacement.
type Edit struct {
	Offset      int
	Length      int
	Replacement string
}

// Apply returns a copy of buf with all edits applied. Edits are applied in
// ascending-offset order; overlapping edits are rejected. An empty edit set
// returns the buffer unchanged.
func Apply(buf []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return buf, nil
	}

	ordered := make([]Edit, len(edits))
	copy(ordered, edits)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Offset < ordered[j].Offset })

	out := make([]byte, len(buf))
	copy(out, buf)

	delta := 0
	prevEnd := -1
	for _, e := range ordered {
		if e.Offset < 0 || e.Length < 0 || e.Offset+e.Length > len(buf) {
			return nil, fmt.Errorf("edit out of range: offset=%d length=%d buffer=%d", e.Offset, e.Length, len(buf))
		}
		if e.Offset < prevEnd {
			return nil, fmt.Errorf("overlapping edit at offset %d", e.Offset)
		}
		prevEnd = e.Offset + e.Length

		start := e.Offset + delta
		end := start + e.Length
		next := make([]byte, 0, len(out)-e.Length+len(e.Replacement))
		next = append(next, out[:start]...)
		next = append(next, e.Replacement...)
		next = append(next, out[end:]...)
		out = next

		delta += len(e.Replacement) - e.Length
	}
	return out, nil
}
