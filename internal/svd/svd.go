package svd

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrFactorize      = errors.New("cannot factorize")
	ErrRankOutOfRange = errors.New("rank out of range")
	ErrRankTooLarge   = errors.New("rank exceeds min(m, n)")
	ErrUnknownMethod  = errors.New("unknown svd method")
)

type Method int

const (
	Full Method = iota
	Thin
	Truncated
	Randomized
)

func (m Method) String() string {
	switch m {
	case Full:
		return "full"
	case Thin:
		return "thin"
	case Truncated:
		return "truncated"
	case Randomized:
		return "randomized"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return Full, nil
	case "thin", "":
		return Thin, nil
	case "truncated", "sparse":
		return Truncated, nil
	case "randomized", "random":
		return Randomized, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

type Decomposer struct {
	method     Method
	k          int
	oversample int
	powerIter  int
	src        rand.Source
}

type Option func(*Decomposer)

// WithRank sets the number of components kept by the truncated and
// randomized methods. Full and thin decompositions ignore it.
func WithRank(k int) Option {
	return func(d *Decomposer) { d.k = k }
}

func WithOversample(p int) Option {
	return func(d *Decomposer) { d.oversample = p }
}

func WithPowerIter(q int) Option {
	return func(d *Decomposer) { d.powerIter = q }
}

func WithSource(src rand.Source) Option {
	return func(d *Decomposer) { d.src = src }
}

func New(method Method, opts ...Option) *Decomposer {
	d := &Decomposer{method: method, oversample: 10, powerIter: 2}
	for _, opt := range opts {
		opt(d)
	}
	if d.src == nil {
		d.src = rand.NewPCG(1, 2)
	}
	return d
}

func (d *Decomposer) Method() Method { return d.method }

// Exec factorizes a. The returned decomposition owns copies of the factors,
// a is never modified.
func (d *Decomposer) Exec(a mat.Matrix) (*Decomposition, error) {
	m, n := a.Dims()
	switch d.method {
	case Full:
		return factorize(a, mat.SVDFull, d.method)
	case Thin:
		return factorize(a, mat.SVDThin, d.method)
	case Truncated:
		if err := checkRank(d.k, m, n); err != nil {
			return nil, err
		}
		dec, err := factorize(a, mat.SVDThin, d.method)
		if err != nil {
			return nil, err
		}
		return dec.truncate(d.k), nil
	case Randomized:
		if err := checkRank(d.k, m, n); err != nil {
			return nil, err
		}
		return randomized(a, d.k, d.oversample, d.powerIter, d.src)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, d.method)
}

func checkRank(k, m, n int) error {
	if k < 1 {
		return fmt.Errorf("%w: k=%d", ErrRankOutOfRange, k)
	}
	if k > min(m, n) {
		return fmt.Errorf("%w: k=%d, min(m, n)=%d", ErrRankTooLarge, k, min(m, n))
	}
	return nil
}

func factorize(a mat.Matrix, kind mat.SVDKind, method Method) (*Decomposition, error) {
	var result mat.SVD
	if ok := result.Factorize(a, kind); !ok {
		return nil, ErrFactorize
	}
	m, n := a.Dims()
	dec := &Decomposition{m: m, n: n, method: method}
	dec.S = result.Values(nil)

	// Full U (m×m) and V (n×n) carry columns past min(m, n) that no
	// singular value scales. They are kept; reconstruction only reads the
	// leading k columns.
	dec.U, dec.V = new(mat.Dense), new(mat.Dense)
	result.UTo(dec.U)
	result.VTo(dec.V)
	return dec, nil
}

// Values returns the singular values of a without computing the singular
// vectors.
func Values(a mat.Matrix) ([]float64, error) {
	var result mat.SVD
	if ok := result.Factorize(a, mat.SVDNone); !ok {
		return nil, ErrFactorize
	}
	return result.Values(nil), nil
}
