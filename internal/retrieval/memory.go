package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is a brute-force cosine-similarity store. It fits the
// catalog's size comfortably and needs no external service.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// Name reports the backend label used in metrics.
func (s *MemoryStore) Name() string { return "memory" }

// Upsert implements Store.
func (s *MemoryStore) Upsert(_ context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	return nil
}

// Search implements Store with an exhaustive cosine scan.
func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]Node, 0, len(s.docs))
	for _, doc := range s.docs {
		nodes = append(nodes, Node{
			Content:  doc.Content,
			Score:    cosine(vector, doc.Embedding),
			Metadata: doc.Metadata,
		})
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Score > nodes[j].Score })
	if k > 0 && len(nodes) > k {
		nodes = nodes[:k]
	}
	return nodes, nil
}

// Len reports the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
