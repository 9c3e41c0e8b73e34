package core

import (
	"context"
	"time"
)

// MemoryRecord is a single entry of a memory collection.
type MemoryRecord struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Embedding  []float64      `json:"embedding,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r *MemoryRecord) Clone() *MemoryRecord {
	c := *r
	if r.Metadata != nil {
		c.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	if r.Embedding != nil {
		c.Embedding = append([]float64(nil), r.Embedding...)
	}
	return &c
}

// MemoryStore is a collection-partitioned record store supporting exact-key
// lookup and relevance-ranked retrieval. The kernel and functions only ever
// depend on this contract, so a volatile implementation can be swapped for
// any other without code changes.
//
// Lookups against a missing collection are not errors: Get returns nil,
// counts return 0 and searches return an empty slice.
type MemoryStore interface {
	CreateCollection(ctx context.Context, name string) error
	DoesCollectionExist(ctx context.Context, name string) (bool, error)
	GetCollections(ctx context.Context) ([]string, error)
	RemoveCollection(ctx context.Context, name string) (bool, error)

	// SaveInformation creates or overwrites (same id) a record. The
	// collection is created on demand.
	SaveInformation(ctx context.Context, collection, id, text string, metadata map[string]any, embedding []float64) (bool, error)
	GetInformation(ctx context.Context, collection, id string) (*MemoryRecord, error)
	RemoveInformation(ctx context.Context, collection, id string) (bool, error)
	GetInformationCount(ctx context.Context, collection string) (int, error)

	// SearchByVector ranks records by cosine similarity to query. Results
	// scoring below minScore are dropped; at most limit are returned.
	SearchByVector(ctx context.Context, collection string, query []float64, limit int, minScore float64) ([]SearchResult, error)

	// GetRelevant ranks records against queryText, using queryVector when
	// given (or derivable) and a textual relevance heuristic otherwise.
	GetRelevant(ctx context.Context, collection, queryText string, limit int, minScore float64, queryVector []float64) ([]SearchResult, error)
}
