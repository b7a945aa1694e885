package utils

type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

// Gather returns V[I[i]] for each entry of the index
func (I Index) Gather(V []float64) (r []float64) {
	r = make([]float64, len(I))
	for i, ind := range I {
		r[i] = V[ind]
	}
	return
}
