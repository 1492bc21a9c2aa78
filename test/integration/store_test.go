// Package integration exercises the store, reducer, and keyword index together.
package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/bburrier/vector-database-exploration/internal/embedding"
	"github.com/bburrier/vector-database-exploration/internal/keyword"
	"github.com/bburrier/vector-database-exploration/internal/store"
)

func TestIntegration_InsertSearchReduce(t *testing.T) {
	kwIndex, err := keyword.NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()

	embedder := embedding.NewMockEmbedder(64)
	defer embedder.Close()

	st := store.New(embedder, 3, store.WithKeywordIndex(kwIndex))
	ctx := context.Background()

	texts := []string{
		"machine learning algorithms learn from data",
		"semantic search uses embeddings to find similar content",
		"the cat sat on the mat",
		"neural networks are trained with gradient descent",
	}
	for _, text := range texts {
		if _, err := st.Insert(ctx, text, nil); err != nil {
			t.Fatal(err)
		}
	}

	// Population of 4 exceeds the 3 target components, so the basis is fitted
	// and every stored point carries three coordinates.
	stats := st.Stats()
	if !stats.PCAFitted {
		t.Error("reducer should be fitted with 4 records at dimension 3")
	}
	for _, rec := range st.List() {
		if len(rec.Reduced) != 3 {
			t.Errorf("record %s has %d coordinates, want 3", rec.ID, len(rec.Reduced))
		}
	}

	hits, err := st.Search(ctx, "machine learning", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Record.Text != texts[0] {
		t.Errorf("top hit %q, want %q", hits[0].Record.Text, texts[0])
	}

	// The keyword index tracks the same population.
	kwHits, err := kwIndex.Search("cat", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(kwHits) != 1 {
		t.Errorf("keyword hits = %d, want 1", len(kwHits))
	}
}

func TestIntegration_DimensionSwitch(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	defer embedder.Close()

	st := store.New(embedder, 3)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := st.Insert(ctx, fmt.Sprintf("snippet number %d about topic %d", i, i%5), nil); err != nil {
			t.Fatal(err)
		}
	}

	if err := st.ChangeDimension(20); err != nil {
		t.Fatal(err)
	}
	for _, rec := range st.List() {
		if len(rec.Reduced) != 20 {
			t.Fatalf("record %s has %d coordinates after switch, want 20", rec.ID, len(rec.Reduced))
		}
	}

	// Switching back re-reduces everything to 3.
	if err := st.ChangeDimension(3); err != nil {
		t.Fatal(err)
	}
	for _, rec := range st.List() {
		if len(rec.Reduced) != 3 {
			t.Fatalf("record %s has %d coordinates after switch back, want 3", rec.ID, len(rec.Reduced))
		}
	}
}
