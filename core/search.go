package core

// SearchResult represents a retrieved memory record with its relevance score
// in the metric of the search that produced it (cosine similarity or text
// relevance).
type SearchResult struct {
	Record *MemoryRecord
	Score  float64
}

// ID is a shorthand for Record.ID.
func (r SearchResult) ID() string { return r.Record.ID }

// Text is a shorthand for Record.Text.
func (r SearchResult) Text() string { return r.Record.Text }
