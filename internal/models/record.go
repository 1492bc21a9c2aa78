// Package models defines core data structures for vector records and API payloads.
package models

import "time"

// Record types. Query vectors are transient and never persisted in the store.
const (
	TypeDocument = "document"
	TypeQuery    = "query"
)

// VectorRecord is a stored text snippet with its embedding.
//
// Full holds the original embedding and is immutable once created. Reduced
// holds the projected coordinates for visualization and is recomputed whenever
// the store refits its reducer, so its length always equals the store's
// current target dimension.
type VectorRecord struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Full      []float32              `json:"-"`
	Reduced   []float64              `json:"vector"`
	Type      string                 `json:"type"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"timestamp"`

	// Seq is the insertion sequence number, used as the stable tie-break
	// for equal similarity scores.
	Seq uint64 `json:"-"`
}

// Clone returns a copy of the record with its own vector slices, so callers
// holding a snapshot never observe a later reprojection.
func (r *VectorRecord) Clone() *VectorRecord {
	c := *r
	c.Full = append([]float32(nil), r.Full...)
	c.Reduced = append([]float64(nil), r.Reduced...)
	if r.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// SearchHit pairs a record with its similarity score for a query.
type SearchHit struct {
	Record     *VectorRecord
	Similarity float64
}

// Stats is a read-only snapshot of the store.
type Stats struct {
	TotalVectors      int    `json:"total_vectors"`
	Dimension         int    `json:"dimension"`
	OriginalDimension int    `json:"original_dimension"`
	ModelName         string `json:"model_name"`
	PCAFitted         bool   `json:"pca_fitted"`
}
