package dynamo

import "fmt"

// History is the state buffer: n unknowns at depth time levels. Column 0
// holds the current values and higher columns hold progressively older ones.
// Each column is stored contiguously.
type History struct {
	n     int
	depth int
	data  []float64
}

func NewHistory(n, depth int) *History {
	if n < 0 || depth < 1 {
		panic(fmt.Sprintf("dynamo: invalid history shape %dx%d", n, depth))
	}
	return &History{n: n, depth: depth, data: make([]float64, n*depth)}
}

// NewHistoryFrom returns a buffer with every column set to u0.
func NewHistoryFrom(u0 State, depth int) *History {
	h := NewHistory(len(u0), depth)
	for k := 0; k < depth; k++ {
		copy(h.Column(k), u0)
	}
	return h
}

func (h *History) Len() int   { return h.n }
func (h *History) Depth() int { return h.depth }

// HistoryValues is the number of columns older than the current one.
func (h *History) HistoryValues() int { return h.depth - 1 }

func (h *History) Value(i, k int) float64 {
	return h.data[h.index(i, k)]
}

func (h *History) Set(i, k int, v float64) {
	h.data[h.index(i, k)] = v
}

// Column returns a view of time level k.
func (h *History) Column(k int) State {
	if k < 0 || k >= h.depth {
		panic(fmt.Sprintf("dynamo: history column %d out of range [0,%d)", k, h.depth))
	}
	return State(h.data[k*h.n : (k+1)*h.n : (k+1)*h.n])
}

// Shift ages every column by one and drops the oldest. Column 0 keeps its
// values until the caller overwrites it.
func (h *History) Shift() {
	if h.depth < 2 {
		return
	}
	copy(h.data[h.n:], h.data[:len(h.data)-h.n])
}

func (h *History) Clone() *History {
	c := &History{n: h.n, depth: h.depth, data: make([]float64, len(h.data))}
	copy(c.data, h.data)
	return c
}

func (h *History) CopyFrom(other *History) error {
	if other.n != h.n || other.depth != h.depth {
		return fmt.Errorf("%w: history %dx%d vs %dx%d", ErrDimensionMismatch, h.n, h.depth, other.n, other.depth)
	}
	copy(h.data, other.data)
	return nil
}

// Commit shifts the buffer and writes next into column k.
func (h *History) Commit(k int, next State) {
	h.Shift()
	copy(h.Column(k), next)
}

func (h *History) index(i, k int) int {
	if i < 0 || i >= h.n || k < 0 || k >= h.depth {
		panic(fmt.Sprintf("dynamo: history index (%d,%d) out of range %dx%d", i, k, h.n, h.depth))
	}
	return k*h.n + i
}
