package weather

import (
	"errors"
	"math"
)

// ridge keeps the normal equations solvable when a regressor is constant,
// e.g. a trailing precipitation average that is zero everywhere.
const ridge = 1e-6

var errSingular = errors.New("regression system is singular")

// linearModel is an ordinary least-squares fit y = coef · x.
type linearModel struct {
	coef []float64
}

// fitLinear solves (XᵀX + λI)β = Xᵀy. The first column of every row is
// expected to be the constant 1 and is not regularized.
func fitLinear(rows [][]float64, y []float64) (*linearModel, error) {
	if len(rows) == 0 || len(rows) != len(y) {
		return nil, errSingular
	}
	k := len(rows[0])

	// Augmented matrix [XᵀX | Xᵀy].
	a := make([][]float64, k)
	for i := range a {
		a[i] = make([]float64, k+1)
	}
	for r, x := range rows {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				a[i][j] += x[i] * x[j]
			}
			a[i][k] += x[i] * y[r]
		}
	}
	for i := 1; i < k; i++ {
		a[i][i] += ridge
	}

	coef, err := solve(a)
	if err != nil {
		return nil, err
	}
	return &linearModel{coef: coef}, nil
}

func (m *linearModel) predict(x []float64) float64 {
	var y float64
	for i, c := range m.coef {
		y += c * x[i]
	}
	return y
}

// solve runs Gaussian elimination with partial pivoting on an augmented k×(k+1) matrix.
func solve(a [][]float64) ([]float64, error) {
	k := len(a)
	for col := 0; col < k; col++ {
		pivot := col
		for r := col + 1; r < k; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errSingular
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < k; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= k; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	x := make([]float64, k)
	for i := k - 1; i >= 0; i-- {
		s := a[i][k]
		for j := i + 1; j < k; j++ {
			s -= a[i][j] * x[j]
		}
		x[i] = s / a[i][i]
	}
	return x, nil
}
