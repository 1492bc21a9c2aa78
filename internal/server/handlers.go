package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bburrier/vector-database-exploration/internal/models"
	"github.com/bburrier/vector-database-exploration/internal/reduce"
	"github.com/bburrier/vector-database-exploration/internal/store"
)

const defaultTopK = 5

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"system":    "Vector Database API",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"vector_db": s.store.Stats(),
	})
}

func (s *Server) handleListVectors(w http.ResponseWriter, r *http.Request) {
	records := s.store.List()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"vectors": records,
		"count":   len(records),
	})
}

func (s *Server) handleAddVector(w http.ResponseWriter, r *http.Request) {
	var req models.InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.store.Insert(r.Context(), req.Text, req.Metadata)
	if err != nil {
		if errors.Is(err, store.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("insert failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("vector added", zap.String("id", rec.ID))
	s.respondJSON(w, http.StatusCreated, models.InsertResponse{
		Success:  true,
		ID:       rec.ID,
		Vector:   rec.Reduced,
		Text:     rec.Text,
		Metadata: rec.Metadata,
	})
}

func (s *Server) handleGetVector(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.store.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "vector not found")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteVector(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Delete(id) {
		s.respondError(w, http.StatusNotFound, "vector not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "vector deleted",
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	hits, err := s.store.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		if errors.Is(err, store.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results := make([]models.SearchResultItem, len(hits))
	for i, h := range hits {
		results[i] = models.SearchResultItem{
			ID:         h.Record.ID,
			Similarity: h.Similarity,
			Text:       h.Record.Text,
			Type:       h.Record.Type,
			Timestamp:  h.Record.CreatedAt.Format(time.RFC3339Nano),
			Vector:     h.Record.Reduced,
			Metadata:   h.Record.Metadata,
		}
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) handleTextSearch(w http.ResponseWriter, r *http.Request) {
	if s.keywords == nil {
		s.respondError(w, http.StatusNotImplemented, "keyword search not enabled")
		return
	}
	var req models.TextSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	hits, err := s.keywords.Search(req.Query, req.Limit)
	if err != nil {
		s.logger.Error("keyword search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results := make([]models.TextSearchResultItem, 0, len(hits))
	for _, h := range hits {
		rec, ok := s.store.Get(h.ID)
		if !ok {
			continue
		}
		results = append(results, models.TextSearchResultItem{
			ID:    h.ID,
			Text:  rec.Text,
			Score: h.Score,
		})
	}
	s.respondJSON(w, http.StatusOK, models.TextSearchResponse{
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) handleEmbedding(w http.ResponseWriter, r *http.Request) {
	var req models.EmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	coords, err := s.store.EmbedProjection(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, store.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("embedding failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbeddingResponse{
		Text:      req.Text,
		Embedding: coords,
		Dimension: len(coords),
	})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Regenerate()
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "all embeddings regenerated",
		"count":   count,
	})
}

func (s *Server) handleChangeDimension(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeDimensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Dimension != 3 && req.Dimension != 20 {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "dimension must be 3 or 20",
		})
		return
	}
	if err := s.store.ChangeDimension(req.Dimension); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, reduce.ErrInsufficientData) {
			status = http.StatusBadRequest
		}
		s.respondJSON(w, status, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"dimension": req.Dimension,
		"count":     len(s.store.List()),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
