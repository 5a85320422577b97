package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Document is one indexed text unit: a flattened patient record keyed by
// patient identifier. Documents are immutable once indexed.
type Document struct {
	ID      string
	Content string
}

// Result is one ranked search hit.
type Result struct {
	Document Document
	Score    float64
}

// Searcher answers relevance queries over an indexed corpus.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// Store is an in-memory cosine-similarity index. Indexing embeds every
// document once; queries embed the query text and rank by similarity.
type Store struct {
	embedder Embedder
	mu       sync.RWMutex
	docs     []Document
	vectors  [][]float32
}

// NewStore creates an empty index backed by the given embedder.
func NewStore(embedder Embedder) *Store {
	return &Store{embedder: embedder}
}

// Index embeds and adds documents to the index.
func (s *Store) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Len returns the number of indexed documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search returns the k documents most similar to query, most relevant first.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qv := vectors[0]

	s.mu.RLock()
	results := make([]Result, 0, len(s.docs))
	for i, d := range s.docs {
		results = append(results, Result{Document: d, Score: cosine(qv, s.vectors[i])})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k > len(results) {
		k = len(results)
	}

	out := make([]Document, k)
	for i := 0; i < k; i++ {
		out[i] = results[i].Document
	}
	return out, nil
}

// cosine returns the cosine similarity of two vectors, 0 when either has no
// magnitude or the dimensions disagree.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
