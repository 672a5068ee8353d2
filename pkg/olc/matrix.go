package olc

import "fmt"

// TriMatrix stores a symmetric n×n matrix as its upper triangle
// (diagonal included). At(i, j) and At(j, i) address the same cell.
type TriMatrix[T any] struct {
	n      int
	offset []int
	cells  []T
}

// NewTriMatrix allocates an n×n symmetric matrix.
func NewTriMatrix[T any](n int) *TriMatrix[T] {
	m := &TriMatrix[T]{n: n, offset: make([]int, n)}
	idx := 0
	for i := 0; i < n; i++ {
		m.offset[i] = idx - i
		idx += n - i
	}
	m.cells = make([]T, idx)
	return m
}

// Len returns the matrix dimension.
func (m *TriMatrix[T]) Len() int { return m.n }

func (m *TriMatrix[T]) index(i, j int) int {
	if i < 0 || j < 0 || i >= m.n || j >= m.n {
		panic(fmt.Sprintf("olc: matrix index (%d,%d) out of range [0,%d)", i, j, m.n))
	}
	if i > j {
		i, j = j, i
	}
	return m.offset[i] + j
}

// At returns the value at (i, j).
func (m *TriMatrix[T]) At(i, j int) T {
	return m.cells[m.index(i, j)]
}

// Set stores v at (i, j), and so also at (j, i).
func (m *TriMatrix[T]) Set(i, j int, v T) {
	m.cells[m.index(i, j)] = v
}
