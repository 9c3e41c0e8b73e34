package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Options configures a VolatileStore.
type Options struct {
	// Embedder, when set, derives embeddings for records saved without one
	// and for GetRelevant queries given without a vector.
	Embedder core.Embedder
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// WithEmbedder sets the embedder used for records and queries lacking vectors.
func WithEmbedder(e core.Embedder) func(o *Options) {
	return func(o *Options) { o.Embedder = e }
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

type collection struct {
	records map[string]*core.MemoryRecord
	dim     int // embedding length shared by the collection, 0 until the first embedding
}

// VolatileStore is a process-local core.MemoryStore. Nothing survives the
// process.
//
// Concurrency: protected by RWMutex.
// Ranking: cosine similarity for vector queries, TextRelevance otherwise;
// results below minScore are dropped, the rest sorted by descending score
// (ties by id) and truncated to limit. Returned records are copies.
type VolatileStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	embedder    core.Embedder
	logger      logging.Logger
}

var _ core.MemoryStore = (*VolatileStore)(nil)

// NewVolatileStore creates an empty store.
func NewVolatileStore(optFns ...func(o *Options)) *VolatileStore {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &VolatileStore{
		collections: make(map[string]*collection),
		embedder:    opts.Embedder,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// CreateCollection creates name if it does not exist yet.
func (s *VolatileStore) CreateCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = &collection{records: make(map[string]*core.MemoryRecord)}
	}
	return nil
}

// DoesCollectionExist reports whether name exists.
func (s *VolatileStore) DoesCollectionExist(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// GetCollections returns all collection names, sorted.
func (s *VolatileStore) GetCollections(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := lo.Keys(s.collections)
	sort.Strings(names)
	return names, nil
}

// RemoveCollection deletes name with all its records.
func (s *VolatileStore) RemoveCollection(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return false, nil
	}
	delete(s.collections, name)
	return true, nil
}

// SaveInformation creates or overwrites the record collection/id. When no
// embedding is given and an Embedder is configured, the text is embedded.
// An embedding whose length differs from the collection's returns
// core.ErrDimensionMismatch, one with NaN or Inf components returns
// core.ErrInvalidEmbedding; both leave the store untouched.
func (s *VolatileStore) SaveInformation(ctx context.Context, collectionName, id, text string, metadata map[string]any, embedding []float64) (bool, error) {
	if id == "" {
		return false, errors.New("memory: record id must not be empty")
	}

	if len(embedding) == 0 && s.embedder != nil && strings.TrimSpace(text) != "" {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return false, errors.Wrapf(err, "memory: embed record %s/%s", collectionName, id)
		}
		embedding = vec
	}

	if !IsFinite(embedding) {
		return false, errors.Wrapf(core.ErrInvalidEmbedding, "record %s/%s", collectionName, id)
	}

	rec := &core.MemoryRecord{
		Collection: collectionName,
		ID:         id,
		Text:       text,
		Metadata:   lo.Assign(metadata),
		UpdatedAt:  core.Now(),
	}
	if len(embedding) > 0 {
		rec.Embedding = append([]float64(nil), embedding...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionName]
	if !ok {
		c = &collection{records: make(map[string]*core.MemoryRecord)}
		s.collections[collectionName] = c
	}

	if n := len(rec.Embedding); n > 0 {
		if c.dim != 0 && n != c.dim && !c.onlyEmbedded(id) {
			return false, errors.Wrapf(core.ErrDimensionMismatch, "collection %s expects %d, got %d", collectionName, c.dim, n)
		}
		c.dim = n
	}

	c.records[id] = rec
	c.refreshDim()

	s.logger.Debug("memory.save", "collection", collectionName, "id", id, "embedded", len(rec.Embedding) > 0)
	return true, nil
}

// GetInformation returns a copy of the record, or nil when absent.
func (s *VolatileStore) GetInformation(_ context.Context, collectionName, id string) (*core.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionName]
	if !ok {
		return nil, nil
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// RemoveInformation deletes a record and reports whether it existed.
func (s *VolatileStore) RemoveInformation(_ context.Context, collectionName, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collectionName]
	if !ok {
		return false, nil
	}
	if _, ok := c.records[id]; !ok {
		return false, nil
	}
	delete(c.records, id)
	c.refreshDim()
	return true, nil
}

// GetInformationCount returns the number of records in collectionName.
func (s *VolatileStore) GetInformationCount(_ context.Context, collectionName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionName]
	if !ok {
		return 0, nil
	}
	return len(c.records), nil
}

// SearchByVector ranks embedded records by cosine similarity to query.
// Records without an embedding, or with a different dimension, are skipped.
func (s *VolatileStore) SearchByVector(_ context.Context, collectionName string, query []float64, limit int, minScore float64) ([]core.SearchResult, error) {
	if limit <= 0 || len(query) == 0 {
		return []core.SearchResult{}, nil
	}
	if !IsFinite(query) {
		return nil, errors.Wrap(core.ErrInvalidEmbedding, "query vector")
	}

	return s.rank(collectionName, limit, minScore, func(rec *core.MemoryRecord) (float64, bool) {
		if len(rec.Embedding) != len(query) {
			return 0, false
		}
		return CosineSimilarity(query, rec.Embedding), true
	}), nil
}

// GetRelevant ranks records against queryText. It uses queryVector when
// given, else an embedding of queryText from the configured Embedder, else
// TextRelevance. Text matches with no term overlap are never returned.
func (s *VolatileStore) GetRelevant(ctx context.Context, collectionName, queryText string, limit int, minScore float64, queryVector []float64) ([]core.SearchResult, error) {
	if limit <= 0 {
		return []core.SearchResult{}, nil
	}

	if len(queryVector) == 0 && s.embedder != nil && strings.TrimSpace(queryText) != "" && s.hasEmbeddings(collectionName) {
		vec, err := s.embedder.Embed(ctx, queryText)
		if err != nil {
			return nil, errors.Wrap(err, "memory: embed query")
		}
		queryVector = vec
	}

	if len(queryVector) > 0 {
		return s.SearchByVector(ctx, collectionName, queryVector, limit, minScore)
	}

	return s.rank(collectionName, limit, minScore, func(rec *core.MemoryRecord) (float64, bool) {
		score := TextRelevance(queryText, rec.Text)
		return score, score > 0
	}), nil
}

func (s *VolatileStore) hasEmbeddings(collectionName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionName]
	return ok && c.dim > 0
}

// rank scores every record of the collection with score (records for which
// it reports false are skipped) and applies threshold, ordering and limit.
func (s *VolatileStore) rank(collectionName string, limit int, minScore float64, score func(*core.MemoryRecord) (float64, bool)) []core.SearchResult {
	s.mu.RLock()
	c, ok := s.collections[collectionName]
	if !ok {
		s.mu.RUnlock()
		return []core.SearchResult{}
	}

	results := make([]core.SearchResult, 0, len(c.records))
	for _, rec := range c.records {
		sc, ok := score(rec)
		// a NaN score fails every comparison and must not pass the threshold
		if !ok || !(sc >= minScore) {
			continue
		}
		results = append(results, core.SearchResult{Record: rec.Clone(), Score: sc})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.ID < results[j].Record.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// onlyEmbedded reports whether id is the sole embedded record, in which case
// overwriting it may change the collection's dimension.
func (c *collection) onlyEmbedded(id string) bool {
	for rid, rec := range c.records {
		if rid != id && len(rec.Embedding) > 0 {
			return false
		}
	}
	return true
}

func (c *collection) refreshDim() {
	for _, rec := range c.records {
		if len(rec.Embedding) > 0 {
			c.dim = len(rec.Embedding)
			return
		}
	}
	c.dim = 0
}

// Clear drops every collection.
func (s *VolatileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*collection)
}

// LastUpdated returns the newest UpdatedAt in collectionName (zero when
// empty or missing).
func (s *VolatileStore) LastUpdated(collectionName string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last time.Time
	if c, ok := s.collections[collectionName]; ok {
		for _, rec := range c.records {
			if rec.UpdatedAt.After(last) {
				last = rec.UpdatedAt
			}
		}
	}
	return last
}
