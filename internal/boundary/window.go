package boundary

import "strings"

// Window is a fixed-capacity FIFO of cue texts. Pushing into a full window
// evicts the oldest entry.
type Window struct {
	buf  []string
	head int
	n    int
}

// NewWindow returns an empty window. Capacities below one are raised to one.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]string, capacity)}
}

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Len returns the number of buffered entries.
func (w *Window) Len() int { return w.n }

// Push appends s, evicting the oldest entry when full.
func (w *Window) Push(s string) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = s
		w.n++
		return
	}
	w.buf[w.head] = s
	w.head = (w.head + 1) % len(w.buf)
}

// Reset empties the window without reallocating.
func (w *Window) Reset() {
	for i := range w.buf {
		w.buf[i] = ""
	}
	w.head, w.n = 0, 0
}

// Items returns the buffered entries, oldest first.
func (w *Window) Items() []string {
	out := make([]string, w.n)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Join concatenates the entries oldest first.
func (w *Window) Join(sep string) string {
	return strings.Join(w.Items(), sep)
}
