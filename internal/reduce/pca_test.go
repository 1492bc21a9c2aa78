package reduce

import (
	"errors"
	"math"
	"testing"
)

// sample spread mostly along the first coordinate, a little along the second,
// none along the third.
var sample = [][]float32{
	{10, 1, 0},
	{-10, -1, 0},
	{8, 0.5, 0},
	{-8, -0.5, 0},
}

func TestPCA_ProjectBeforeFit(t *testing.T) {
	p := NewPCA()
	if _, err := p.Project([]float32{1, 2, 3}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
	if p.Fitted() {
		t.Error("new reducer should not be fitted")
	}
	if p.OutputDim() != 0 {
		t.Errorf("OutputDim=%d before fit", p.OutputDim())
	}
}

func TestPCA_InsufficientData(t *testing.T) {
	p := NewPCA()
	err := p.Fit([][]float32{{1, 2, 3}, {4, 5, 6}}, 3)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if p.Fitted() {
		t.Error("failed fit must leave reducer unfitted")
	}
}

func TestPCA_ComponentsExceedInputDim(t *testing.T) {
	p := NewPCA()
	vecs := [][]float32{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	if err := p.Fit(vecs, 3); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for k > d, got %v", err)
	}
}

func TestPCA_FitAndProject(t *testing.T) {
	p := NewPCA()
	if err := p.Fit(sample, 2); err != nil {
		t.Fatal(err)
	}
	if !p.Fitted() || p.OutputDim() != 2 {
		t.Fatalf("Fitted=%v OutputDim=%d", p.Fitted(), p.OutputDim())
	}

	out, err := p.Project(sample[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("projected length %d, want 2", len(out))
	}
	// The first component carries the dominant spread, so the first
	// coordinate must dominate for a point far along that direction.
	if math.Abs(out[0]) <= math.Abs(out[1]) {
		t.Errorf("first component should dominate: %v", out)
	}
}

func TestPCA_SignConvention(t *testing.T) {
	p := NewPCA()
	if err := p.Fit(sample, 1); err != nil {
		t.Fatal(err)
	}
	// Largest-magnitude loading of each axis is made positive, so the
	// dominant direction (+x here) projects a +x point to a positive value.
	out, err := p.Project([]float32{10, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] <= 0 {
		t.Errorf("sign convention violated: projected %v", out)
	}
}

func TestPCA_Deterministic(t *testing.T) {
	a, b := NewPCA(), NewPCA()
	ra, err := a.FitTransform(sample, 2)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.FitTransform(sample, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ra {
		for j := range ra[i] {
			if math.Abs(ra[i][j]-rb[i][j]) > 1e-12 {
				t.Fatalf("refit not deterministic at [%d][%d]: %v vs %v", i, j, ra[i][j], rb[i][j])
			}
		}
	}
}

func TestPCA_FitTransformOrder(t *testing.T) {
	p := NewPCA()
	reduced, err := p.FitTransform(sample, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(reduced) != len(sample) {
		t.Fatalf("got %d outputs for %d inputs", len(reduced), len(sample))
	}
	// Each output row must equal the projection of the input at the same index.
	for i, v := range sample {
		direct, err := p.Project(v)
		if err != nil {
			t.Fatal(err)
		}
		for j := range direct {
			if math.Abs(direct[j]-reduced[i][j]) > 1e-12 {
				t.Errorf("row %d: FitTransform=%v Project=%v", i, reduced[i], direct)
			}
		}
	}
}

func TestPCA_FailedRefitKeepsBasis(t *testing.T) {
	p := NewPCA()
	if err := p.Fit(sample, 2); err != nil {
		t.Fatal(err)
	}
	before, _ := p.Project(sample[1])
	if err := p.Fit(sample[:1], 2); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	after, err := p.Project(sample[1])
	if err != nil {
		t.Fatal(err)
	}
	for j := range before {
		if before[j] != after[j] {
			t.Fatal("failed refit must not disturb the existing basis")
		}
	}
}

func TestPCA_MeanProjectsToOrigin(t *testing.T) {
	p := NewPCA()
	vecs := [][]float32{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	if err := p.Fit(vecs, 2); err != nil {
		t.Fatal(err)
	}
	out, err := p.Project([]float32{2.0 / 3, 2.0 / 3, 2.0 / 3})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range out {
		if math.Abs(c) > 1e-6 {
			t.Errorf("mean should project to origin, got %v", out)
		}
	}
}
