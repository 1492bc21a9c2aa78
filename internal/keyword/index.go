// Package keyword provides an in-memory Bleve index over stored snippet texts.
//
// It complements the semantic search path: exact word matches rank snippets
// the embedding space may place far apart. The index lives in memory only and
// is rebuilt by the store as records come and go.
package keyword

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// Result is a single keyword hit.
type Result struct {
	ID    string
	Score float64
}

// Index wraps a memory-only Bleve index keyed by record ID.
type Index struct {
	index bleve.Index
}

type indexedDoc struct {
	Text string `json:"text"`
}

// NewIndex creates an empty in-memory index. The standard analyzer (lowercase
// + tokenize, no stemming) is used so queries match exact words.
func NewIndex() (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &Index{index: index}, nil
}

// Add indexes text under id, replacing any previous entry for id.
func (x *Index) Add(id, text string) error {
	return x.index.Index(id, indexedDoc{Text: text})
}

// Delete removes id from the index. Deleting an unknown id is a no-op.
func (x *Index) Delete(id string) error {
	return x.index.Delete(id)
}

// Search runs a match query over the indexed texts and returns up to limit
// hits, best first.
func (x *Index) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}
