package models

// InsertRequest is the input for adding a vector.
type InsertRequest struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// InsertResponse is returned after a successful insert.
type InsertResponse struct {
	Success  bool                   `json:"success"`
	ID       string                 `json:"id"`
	Vector   []float64              `json:"vector"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// SearchRequest is the input for a similarity search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResultItem is a single similarity hit as exposed over the API.
// Vector carries the reduced coordinates, matching what the list endpoint exposes.
type SearchResultItem struct {
	ID         string                 `json:"id"`
	Similarity float64                `json:"similarity"`
	Text       string                 `json:"text"`
	Type       string                 `json:"type"`
	Timestamp  string                 `json:"timestamp"`
	Vector     []float64              `json:"vector"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// SearchResponse is the response for a similarity search.
type SearchResponse struct {
	Query   string             `json:"query"`
	Results []SearchResultItem `json:"results"`
	Count   int                `json:"count"`
}

// EmbeddingRequest is the input for the embed-only endpoint.
type EmbeddingRequest struct {
	Text string `json:"text"`
}

// EmbeddingResponse carries the projected position of a transient query vector.
type EmbeddingResponse struct {
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

// TextSearchRequest is the input for the keyword (non-semantic) search endpoint.
type TextSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// TextSearchResultItem is a single keyword hit.
type TextSearchResultItem struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// TextSearchResponse is the response for a keyword search.
type TextSearchResponse struct {
	Query   string                 `json:"query"`
	Results []TextSearchResultItem `json:"results"`
	Count   int                    `json:"count"`
}

// ChangeDimensionRequest is the input for switching the target dimension.
type ChangeDimensionRequest struct {
	Dimension int `json:"dimension"`
}
