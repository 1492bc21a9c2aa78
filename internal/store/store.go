// Package store implements the in-memory vector store: the authoritative
// record collection, the reducer lifecycle, and similarity search.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bburrier/vector-database-exploration/internal/embedding"
	"github.com/bburrier/vector-database-exploration/internal/keyword"
	"github.com/bburrier/vector-database-exploration/internal/models"
	"github.com/bburrier/vector-database-exploration/internal/reduce"
	"github.com/bburrier/vector-database-exploration/internal/vector"
)

// MetadataSourceKey marks records ingested from a corpus file; the value is
// the file path and is used to upsert when the file changes.
const MetadataSourceKey = "source"

// DefaultScale is the factor applied to reduced coordinates so points are
// visible in the 3D view without the frontend rescaling them.
const DefaultScale = 10.0

// Store owns all vector records and the PCA reducer. Every operation runs to
// completion under the store lock, so readers never observe a half-applied
// reprojection. Mutations are fail-atomic: new projections are computed to
// the side and swapped in only on success.
//
// Projection policy:
//   - Insert refits the reducer over the whole population (an explicit
//     O(population x dimension) batch recomputation) and reprojects every
//     record, so all coordinates come from the same basis.
//   - While the population is smaller than the target dimension the reducer
//     cannot be refitted. A previously fitted basis keeps being applied, so
//     all served coordinates stay in that basis's space; before any fit,
//     records get a deterministic identity partial projection (the first k
//     coordinates of the full vector) so coordinates are always present.
//   - Delete does NOT refit: the basis stays valid for a shrunk population
//     and existing points do not move when a record is removed.
type Store struct {
	mu sync.RWMutex

	embedder embedding.Embedder
	reducer  *reduce.PCA
	keywords *keyword.Index
	logger   *zap.Logger

	records []*models.VectorRecord
	byID    map[string]*models.VectorRecord
	issued  map[string]struct{} // every id ever assigned; ids are never reused
	seq     uint64

	targetDim int
	scale     float64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger (zap.NewNop by default).
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKeywordIndex attaches a keyword index kept in sync with the records.
func WithKeywordIndex(x *keyword.Index) Option {
	return func(s *Store) { s.keywords = x }
}

// WithScale overrides the visualization scale factor.
func WithScale(scale float64) Option {
	return func(s *Store) { s.scale = scale }
}

// New creates an empty store projecting to targetDim dimensions.
func New(embedder embedding.Embedder, targetDim int, opts ...Option) *Store {
	s := &Store{
		embedder:  embedder,
		reducer:   reduce.NewPCA(),
		logger:    zap.NewNop(),
		byID:      make(map[string]*models.VectorRecord),
		issued:    make(map[string]struct{}),
		targetDim: targetDim,
		scale:     DefaultScale,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert embeds text and appends a new record. The reducer is refit over the
// full population and every existing record's reduced coordinates are
// recomputed, so prior coordinates may change.
func (s *Store) Insert(ctx context.Context, text string, metadata map[string]interface{}) (*models.VectorRecord, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	full, err := s.embedder.Embed(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	population := make([][]float32, 0, len(s.records)+1)
	for _, r := range s.records {
		population = append(population, r.Full)
	}
	population = append(population, full)

	reduced, err := s.projectAllLocked(population, s.targetDim)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	rec := &models.VectorRecord{
		ID:        s.newIDLocked(),
		Text:      trimmed,
		Full:      append([]float32(nil), full...),
		Reduced:   reduced[len(reduced)-1],
		Type:      models.TypeDocument,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
		Seq:       s.seq,
	}
	s.seq++

	for i, r := range s.records {
		r.Reduced = reduced[i]
	}
	s.records = append(s.records, rec)
	s.byID[rec.ID] = rec

	if s.keywords != nil {
		if err := s.keywords.Add(rec.ID, rec.Text); err != nil {
			s.logger.Warn("keyword index add failed", zap.String("id", rec.ID), zap.Error(err))
		}
	}
	s.logger.Debug("vector inserted",
		zap.String("id", rec.ID),
		zap.Int("population", len(s.records)),
		zap.Bool("pca_fitted", s.reducer.Fitted()),
	)
	return rec.Clone(), nil
}

// Delete removes the record with id and reports whether one was removed.
// Deleting an unknown id is not an error. The reducer is not refit, so the
// remaining records keep their coordinates.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

func (s *Store) deleteLocked(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	if s.keywords != nil {
		if err := s.keywords.Delete(id); err != nil {
			s.logger.Warn("keyword index delete failed", zap.String("id", id), zap.Error(err))
		}
	}
	s.logger.Debug("vector deleted", zap.String("id", id), zap.Int("population", len(s.records)))
	return true
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (*models.VectorRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// List returns copies of all records in insertion order.
func (s *Store) List() []*models.VectorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VectorRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Search embeds query and ranks all records by cosine similarity against
// their full-dimensional vectors. Results are ordered by descending score;
// ties break toward the earlier insertion. topK is clamped to the population
// size, and an empty store yields empty results.
//
// The query vector is transient and never stored.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]models.SearchHit, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	qvec, err := s.embedder.Embed(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]models.SearchHit, len(s.records))
	for i, r := range s.records {
		hits[i] = models.SearchHit{
			Record:     r,
			Similarity: vector.CosineSimilarity(qvec, r.Full),
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Record.Seq < hits[j].Record.Seq
	})

	if topK < 0 {
		topK = 0
	}
	if topK > len(hits) {
		topK = len(hits)
	}
	out := make([]models.SearchHit, topK)
	for i := 0; i < topK; i++ {
		out[i] = models.SearchHit{
			Record:     hits[i].Record.Clone(),
			Similarity: hits[i].Similarity,
		}
	}
	return out, nil
}

// EmbedProjection returns the projected position of text under the current
// basis without storing anything. Used by callers that want a query's
// coordinates in the visualization space.
func (s *Store) EmbedProjection(ctx context.Context, text string) ([]float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	full, err := s.embedder.Embed(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reducer.Fitted() {
		reduced, err := s.reducer.Project(full)
		if err != nil {
			return nil, err
		}
		return s.scaleRound(reduced), nil
	}
	return s.scaleRound(truncateProjection(full, s.targetDim)), nil
}

// ChangeDimension switches the target dimension and refits the reducer over
// the full population. When the population is too small for the new dimension
// the store is left unchanged at the previous dimension and
// reduce.ErrInsufficientData is returned.
func (s *Store) ChangeDimension(newDim int) error {
	if newDim <= 0 {
		return fmt.Errorf("invalid dimension %d", newDim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if newDim == s.targetDim {
		return nil
	}
	if len(s.records) < newDim {
		return fmt.Errorf("%w: %d vector(s) stored, %d needed", reduce.ErrInsufficientData, len(s.records), newDim)
	}
	if err := s.refitLocked(newDim); err != nil {
		return err
	}
	s.targetDim = newDim
	s.logger.Info("dimension changed", zap.Int("dimension", newDim), zap.Int("population", len(s.records)))
	return nil
}

// Regenerate refits the reducer at the current target dimension and
// recomputes every record's reduced coordinates. Returns the number of
// records reprojected.
func (s *Store) Regenerate() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) < s.targetDim {
		return 0, fmt.Errorf("%w: %d vector(s) stored, %d needed", reduce.ErrInsufficientData, len(s.records), s.targetDim)
	}
	if err := s.refitLocked(s.targetDim); err != nil {
		return 0, err
	}
	return len(s.records), nil
}

// Stats returns a read-only snapshot. It never fails.
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Stats{
		TotalVectors:      len(s.records),
		Dimension:         s.targetDim,
		OriginalDimension: s.embedder.Dimensions(),
		ModelName:         s.embedder.ModelName(),
		PCAFitted:         s.reducer.Fitted(),
	}
}

// Dimension returns the current target dimension.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targetDim
}

// UpsertSource inserts text tagged with a source path, replacing any record
// previously ingested from the same path. Used by the corpus watcher.
func (s *Store) UpsertSource(ctx context.Context, source, text string) (*models.VectorRecord, error) {
	s.DeleteBySource(source)
	return s.Insert(ctx, text, map[string]interface{}{MetadataSourceKey: source})
}

// DeleteBySource removes the record ingested from the given source path, if any.
func (s *Store) DeleteBySource(source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if v, ok := r.Metadata[MetadataSourceKey]; ok && v == source {
			return s.deleteLocked(r.ID)
		}
	}
	return false
}

// refitLocked refits at dim over the whole population and swaps in the new
// coordinates. Nothing is applied on failure.
func (s *Store) refitLocked(dim int) error {
	population := make([][]float32, len(s.records))
	for i, r := range s.records {
		population[i] = r.Full
	}
	reduced, err := s.reducer.FitTransform(population, dim)
	if err != nil {
		return err
	}
	for i, r := range s.records {
		r.Reduced = s.scaleRound(reduced[i])
	}
	return nil
}

// projectAllLocked returns scaled reduced coordinates for every vector in
// fulls, refitting the reducer when the population is large enough. When the
// population is too small to refit, a previously fitted basis is reused (the
// same no-refit policy as delete, so coordinates stay in the reducer's space);
// only a never-fitted reducer falls back to the identity partial projection.
func (s *Store) projectAllLocked(fulls [][]float32, dim int) ([][]float64, error) {
	reduced, err := s.reducer.FitTransform(fulls, dim)
	if err == nil {
		out := make([][]float64, len(reduced))
		for i, v := range reduced {
			out[i] = s.scaleRound(v)
		}
		return out, nil
	}
	if !errors.Is(err, reduce.ErrInsufficientData) {
		return nil, err
	}
	out := make([][]float64, len(fulls))
	if s.reducer.Fitted() {
		for i, v := range fulls {
			p, err := s.reducer.Project(v)
			if err != nil {
				return nil, err
			}
			out[i] = s.scaleRound(p)
		}
		return out, nil
	}
	for i, v := range fulls {
		out[i] = s.scaleRound(truncateProjection(v, dim))
	}
	return out, nil
}

// newIDLocked issues a fresh doc id, skipping anything ever issued before so
// ids stay unique across the store's lifetime, deletions included.
func (s *Store) newIDLocked() string {
	for {
		id := "doc_" + uuid.New().String()[:8]
		if _, used := s.issued[id]; !used {
			s.issued[id] = struct{}{}
			return id
		}
	}
}

// scaleRound applies the visualization scale and rounds to 4 decimals.
func (s *Store) scaleRound(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Round(x*s.scale*10000) / 10000
	}
	return out
}

// truncateProjection is the deterministic fallback while the reducer is
// under-fitted: the first dim coordinates of the full vector, zero-padded if
// the full vector is shorter.
func truncateProjection(full []float32, dim int) []float64 {
	out := make([]float64, dim)
	for i := 0; i < dim && i < len(full); i++ {
		out[i] = float64(full[i])
	}
	return out
}
