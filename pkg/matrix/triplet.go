package matrix

import (
	"fmt"
	"slices"
)

// Triplets is an append-only arena of (row, col, value) entries. Duplicate
// positions are summed when converting to CSR.
type Triplets struct {
	size int
	rows []int
	cols []int
	vals []float64
}

func NewTriplets(size, capacity int) *Triplets {
	return &Triplets{
		size: size,
		rows: make([]int, 0, capacity),
		cols: make([]int, 0, capacity),
		vals: make([]float64, 0, capacity),
	}
}

func (t *Triplets) Size() int { return t.size }

func (t *Triplets) Len() int { return len(t.vals) }

func (t *Triplets) Append(row, col int, value float64) {
	if row < 0 || col < 0 || row >= t.size || col >= t.size {
		panic(fmt.Sprintf("matrix: triplet (%d,%d) outside %dx%d", row, col, t.size, t.size))
	}
	t.rows = append(t.rows, row)
	t.cols = append(t.cols, col)
	t.vals = append(t.vals, value)
}

// ToCSR compresses the arena. Entries are summed per position and exact
// zeros are dropped; the arena itself is left untouched.
func (t *Triplets) ToCSR() *CSR {
	order := make([]int, len(t.vals))
	for i := range order {
		order[i] = i
	}
	// Stable so that duplicates are summed in append order.
	slices.SortStableFunc(order, func(a, b int) int {
		if t.rows[a] != t.rows[b] {
			return t.rows[a] - t.rows[b]
		}
		return t.cols[a] - t.cols[b]
	})

	m := &CSR{
		N:      t.size,
		RowPtr: make([]int, t.size+1),
	}

	for k := 0; k < len(order); {
		r, c := t.rows[order[k]], t.cols[order[k]]
		sum := 0.0
		for ; k < len(order) && t.rows[order[k]] == r && t.cols[order[k]] == c; k++ {
			sum += t.vals[order[k]]
		}
		if sum == 0 {
			continue
		}
		m.ColIdx = append(m.ColIdx, c)
		m.Val = append(m.Val, sum)
		m.RowPtr[r+1]++
	}

	for i := 0; i < t.size; i++ {
		m.RowPtr[i+1] += m.RowPtr[i]
	}

	return m
}

// Assembler collects a matrix and its right-hand side.
type Assembler struct {
	A   *Triplets
	RHS []float64
}

var _ DeviceMatrix = (*Assembler)(nil)

func NewAssembler(size int) *Assembler {
	return &Assembler{
		A:   NewTriplets(size, 8*size),
		RHS: make([]float64, size),
	}
}

func (s *Assembler) AddElement(i, j int, value float64) {
	s.A.Append(i, j, value)
}

func (s *Assembler) AddRHS(i int, value float64) {
	s.RHS[i] += value
}

// Build returns the compressed matrix and the right-hand side.
func (s *Assembler) Build() (*CSR, []float64) {
	return s.A.ToCSR(), s.RHS
}
