package pitch

// Window accumulates samples into a fixed-size analysis buffer.
// The backing array is allocated once and reused for every window.
type Window struct {
	buf []float32
	n   int
}

// NewWindow creates an empty window holding size samples.
func NewWindow(size int) *Window {
	if size <= 0 {
		panic("pitch: window size must be positive")
	}
	return &Window{buf: make([]float32, size)}
}

// Fill copies as many samples from chunk as fit and returns how many were consumed.
func (w *Window) Fill(chunk []float32) int {
	n := copy(w.buf[w.n:], chunk)
	w.n += n
	return n
}

// Full reports whether the window holds Size samples.
func (w *Window) Full() bool {
	return w.n == len(w.buf)
}

// Len returns the number of buffered samples.
func (w *Window) Len() int {
	return w.n
}

// Size returns the window capacity.
func (w *Window) Size() int {
	return len(w.buf)
}

// Samples returns the buffered samples. The slice aliases the window and is
// only valid until the next Fill, Reset or Retain.
func (w *Window) Samples() []float32 {
	return w.buf[:w.n]
}

// Reset discards all buffered samples.
func (w *Window) Reset() {
	w.n = 0
}

// Retain keeps the last k buffered samples as the start of the next window.
func (w *Window) Retain(k int) {
	if k <= 0 {
		w.n = 0
		return
	}
	if k >= w.n {
		return
	}
	copy(w.buf, w.buf[w.n-k:w.n])
	w.n = k
}
