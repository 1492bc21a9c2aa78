package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	e := NewMockEmbedder(32)
	emb, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if len(emb) != 32 {
		t.Fatalf("dimension %d, want 32", len(emb))
	}
	var sum float64
	for _, v := range emb {
		sum += float64(v * v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-4 {
		t.Errorf("norm %v, want 1", math.Sqrt(sum))
	}
}

func TestMockEmbedder_SharedWordsCloser(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	base, _ := e.Embed(ctx, "cat sat mat")
	near, _ := e.Embed(ctx, "cat sat hat")
	far, _ := e.Embed(ctx, "quantum flux drive")

	dot := func(a, b []float32) float64 {
		var s float64
		for i := range a {
			s += float64(a[i]) * float64(b[i])
		}
		return s
	}
	if dot(base, near) <= dot(base, far) {
		t.Error("texts sharing words should be more similar than unrelated texts")
	}
}

func TestMockEmbedder_DefaultDimensions(t *testing.T) {
	e := NewMockEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("Dimensions=%d, want 384", e.Dimensions())
	}
	if e.ModelName() != "mock" {
		t.Errorf("ModelName=%q", e.ModelName())
	}
}

func TestEmbedBatch(t *testing.T) {
	e := NewMockEmbedder(8)
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d embeddings", len(out))
	}
	single, _ := e.Embed(context.Background(), "b")
	for i := range single {
		if out[1][i] != single[i] {
			t.Fatal("batch embedding differs from single embedding")
		}
	}
}
