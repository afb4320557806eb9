package tfidf

import "math"

// Matrix is a sparse document-term weight matrix in compressed sparse row
// form. Row i's nonzeros live in ColIdx[RowPtr[i]:RowPtr[i+1]] and
// Val[RowPtr[i]:RowPtr[i+1]], with column ids sorted ascending within each
// row. All fields are exported for serialization; a built Matrix is
// read-only and safe for concurrent use.
type Matrix struct {
	Rows   int
	Cols   int
	RowPtr []int
	ColIdx []int
	Val    []float64
}

// NNZ returns the number of stored nonzero weights.
func (m *Matrix) NNZ() int {
	return len(m.Val)
}

// Row expands row i into a dense vector of length Cols.
func (m *Matrix) Row(i int) []float64 {
	dense := make([]float64, m.Cols)
	if i < 0 || i >= m.Rows {
		return dense
	}
	for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
		dense[m.ColIdx[k]] = m.Val[k]
	}
	return dense
}

// RowNorm returns the L2 norm of row i.
func (m *Matrix) RowNorm(i int) float64 {
	if i < 0 || i >= m.Rows {
		return 0
	}
	var sum float64
	for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
		sum += m.Val[k] * m.Val[k]
	}
	return math.Sqrt(sum)
}

// Similarities computes the dot product of a dense query vector against
// every row. With unit-length non-negative rows and a unit-length query,
// each dot product is the cosine similarity in [0, 1]. The query vector
// must have length Cols.
func (m *Matrix) Similarities(query []float64) []float64 {
	sims := make([]float64, m.Rows)
	if len(query) != m.Cols {
		return sims
	}
	for i := 0; i < m.Rows; i++ {
		var dot float64
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			dot += m.Val[k] * query[m.ColIdx[k]]
		}
		sims[i] = dot
	}
	return sims
}
