// Package reduce provides PCA dimensionality reduction for embedding vectors.
//
// The reducer is fit once over the current population and then reused for
// projection, so existing coordinates stay put between refits. Refitting is a
// store-wide event driven by the caller, not something the reducer does on its
// own.
package reduce

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned by Project before any successful Fit.
var ErrNotFitted = errors.New("reducer is not fitted")

// ErrInsufficientData is returned by Fit when the sample has fewer vectors
// than the requested number of components.
var ErrInsufficientData = errors.New("insufficient data to fit reducer")

// PCA projects full-dimensional embeddings onto their principal components.
//
// Basis convention: components are ordered by decreasing singular value, and
// each axis is sign-flipped so that its largest-magnitude loading is positive.
// Given the same ordered sample and target dimension, Fit always produces the
// same basis, which keeps projected coordinates reproducible across runs.
type PCA struct {
	mean   []float64
	axes   [][]float64 // [outDim][inDim], decreasing variance
	inDim  int
	outDim int
	fitted bool
}

// NewPCA returns an unfitted reducer.
func NewPCA() *PCA {
	return &PCA{}
}

// Fitted reports whether a basis has been derived from data.
func (p *PCA) Fitted() bool {
	return p.fitted
}

// OutputDim returns the target dimension of the current basis, or 0 when unfitted.
func (p *PCA) OutputDim() int {
	if !p.fitted {
		return 0
	}
	return p.outDim
}

// Fit derives a k-component basis from the given sample. The previous basis,
// if any, is kept untouched on failure.
//
// A projection to k dimensions needs at least k samples; fewer returns
// ErrInsufficientData and the caller is expected to fall back to a partial
// projection (see the store).
func (p *PCA) Fit(vectors [][]float32, k int) error {
	if k <= 0 {
		return fmt.Errorf("invalid component count %d", k)
	}
	n := len(vectors)
	if n < k {
		return fmt.Errorf("%w: %d vector(s) for %d components", ErrInsufficientData, n, k)
	}
	d := len(vectors[0])
	if k > d {
		return fmt.Errorf("%w: %d components exceed input dimension %d", ErrInsufficientData, k, d)
	}

	data := make([]float64, n*d)
	for i, v := range vectors {
		if len(v) != d {
			return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), d)
		}
		for j, x := range v {
			data[i*d+j] = float64(x)
		}
	}
	x := mat.NewDense(n, d, data)

	mean := make([]float64, d)
	for j := 0; j < d; j++ {
		mean[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			x.Set(i, j, x.At(i, j)-mean[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return fmt.Errorf("svd factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)

	axes := make([][]float64, k)
	for c := 0; c < k; c++ {
		axis := mat.Col(nil, c, &v)
		fixAxisSign(axis)
		axes[c] = axis
	}

	p.mean = mean
	p.axes = axes
	p.inDim = d
	p.outDim = k
	p.fitted = true
	return nil
}

// Project applies the current basis to v and returns its reduced coordinates.
func (p *PCA) Project(v []float32) ([]float64, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	if len(v) != p.inDim {
		return nil, fmt.Errorf("vector has dimension %d, basis expects %d", len(v), p.inDim)
	}
	out := make([]float64, p.outDim)
	for c, axis := range p.axes {
		var sum float64
		for i, x := range v {
			sum += (float64(x) - p.mean[i]) * axis[i]
		}
		out[c] = sum
	}
	return out, nil
}

// FitTransform refits the basis on vectors and returns the reduced vector for
// every input, in the same order.
func (p *PCA) FitTransform(vectors [][]float32, k int) ([][]float64, error) {
	if err := p.Fit(vectors, k); err != nil {
		return nil, err
	}
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		reduced, err := p.Project(v)
		if err != nil {
			return nil, err
		}
		out[i] = reduced
	}
	return out, nil
}

// fixAxisSign negates the axis in place when its largest-magnitude loading is
// negative, so a basis is unique up to the documented convention.
func fixAxisSign(axis []float64) {
	maxIdx := 0
	for i, v := range axis {
		if abs(v) > abs(axis[maxIdx]) {
			maxIdx = i
		}
	}
	if axis[maxIdx] < 0 {
		for i := range axis {
			axis[i] = -axis[i]
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
