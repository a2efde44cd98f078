package queue

import "github.com/ehrlich-b/go-ndlog/internal/constants"

// History is a fixed-size ring of the most recently consumed entries,
// kept purely for post-mortem reporting on divergence. It holds value
// copies with Buf stripped; it never extends the
// lifetime of a pooled buffer and never participates in any invariant
// check.
type History struct {
	entries [constants.HistorySize]Entry
	next    int
	count   int
}

// NewHistory returns an empty History ring.
func NewHistory() *History {
	return &History{}
}

// Record appends a copy of e to the ring, evicting the oldest entry
// once full.
func (h *History) Record(e *Entry) {
	h.entries[h.next] = e.Copy()
	h.next = (h.next + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
}

// Recent returns the recorded entries oldest-first, most recent last.
func (h *History) Recent() []Entry {
	out := make([]Entry, 0, h.count)
	start := h.next - h.count
	for i := 0; i < h.count; i++ {
		idx := (start + i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out
}
