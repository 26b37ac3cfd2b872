package test

import (
	_ "embed"
	"math"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/svdlab/internal/signal"
	"github.com/yyyoichi/svdlab/internal/svd"
	"gonum.org/v1/gonum/mat"
)

//go:embed svd_test_cases.json
var svdTestCasesJSON []byte

type testcase struct {
	Name  string `json:"name"`
	Input struct {
		Data []float64 `json:"data"`
		Rows int       `json:"rows"`
		Cols int       `json:"cols"`
	} `json:"input"`
	Expected struct {
		SingularValues []float64 `json:"singular_values"`
	} `json:"expected"`
}

func loadCases(t *testing.T) []testcase {
	t.Helper()
	var test []testcase
	require.NoError(t, sonic.Unmarshal(svdTestCasesJSON, &test))
	require.NotEmpty(t, test)
	return test
}

func (tc testcase) matrix() *mat.Dense {
	return mat.NewDense(tc.Input.Rows, tc.Input.Cols, append([]float64(nil), tc.Input.Data...))
}

// robust floating-point comparison for singular values
func assertSingularEqual(t *testing.T, expected, actual float64, index int) bool {
	const relativeEpsilon = 1e-10
	const absoluteDelta = 1e-12
	const smallValueThreshold = 1e-10

	if math.Abs(expected) < smallValueThreshold {
		return assert.InDelta(t, expected, actual, absoluteDelta, "σ[%d] (small value) expected=%e, got=%e", index, expected, actual)
	}
	return assert.InEpsilon(t, expected, actual, relativeEpsilon, "σ[%d] expected=%e, got=%e", index, expected, actual)
}

func TestSVD_Values(t *testing.T) {
	for _, tt := range loadCases(t) {
		t.Run(tt.Name, func(t *testing.T) {
			expected := tt.Expected.SingularValues
			a := tt.matrix()

			s, err := svd.Values(a)
			require.NoError(t, err)
			require.Len(t, s, len(expected))
			for i := range expected {
				assertSingularEqual(t, expected[i], s[i], i)
			}

			for _, method := range []svd.Method{svd.Full, svd.Thin} {
				dec, err := svd.New(method).Exec(a)
				require.NoError(t, err, method)
				require.Len(t, dec.S, len(expected), method)
				for i := range expected {
					assertSingularEqual(t, expected[i], dec.S[i], i)
				}
			}
		})
	}
}

func TestSVD_RoundTrip(t *testing.T) {
	for _, tt := range loadCases(t) {
		k := min(tt.Input.Rows, tt.Input.Cols)
		decomposers := map[string]*svd.Decomposer{
			"full":       svd.New(svd.Full),
			"thin":       svd.New(svd.Thin),
			"truncated":  svd.New(svd.Truncated, svd.WithRank(k)),
			"randomized": svd.New(svd.Randomized, svd.WithRank(k), svd.WithSource(signal.NewSource(7))),
		}
		for name, d := range decomposers {
			t.Run(tt.Name+"/"+name, func(t *testing.T) {
				original := tt.matrix()
				a := tt.matrix()
				dec, err := d.Exec(a)
				require.NoError(t, err)

				// the input is never modified
				assert.True(t, mat.Equal(original, a))

				// a full-rank reconstruction is the matrix itself
				back, err := dec.Reconstruct(k)
				require.NoError(t, err)
				assert.True(t, mat.EqualApprox(original, back, 1e-10), "got\n%v", mat.Formatted(back))
			})
		}
	}
}

func TestSVD_Truncation(t *testing.T) {
	// rank-1 truncation of diag(5, 3, 1) keeps only the leading entry and
	// leaves an error of sqrt(3² + 1²)
	a := mat.NewDense(3, 3, []float64{5, 0, 0, 0, 3, 0, 0, 0, 1})
	dec, err := svd.New(svd.Truncated, svd.WithRank(1)).Exec(a)
	require.NoError(t, err)
	require.Len(t, dec.S, 1)

	a1, err := dec.Reconstruct(1)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(mat.NewDense(3, 3, []float64{5, 0, 0, 0, 0, 0, 0, 0, 0}), a1, 1e-12))

	var diff mat.Dense
	diff.Sub(a, a1)
	assert.InDelta(t, math.Sqrt(10), mat.Norm(&diff, 2), 1e-12)

	_, err = dec.Reconstruct(2)
	assert.ErrorIs(t, err, svd.ErrRankOutOfRange)
}
