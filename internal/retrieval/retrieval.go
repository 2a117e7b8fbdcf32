// Package retrieval provides the semantic-search collaborator: catalog
// rows become embedded documents, queries come back as ranked passages.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fikrfree/assistant/pkg/observability"
)

// NodeMetadata carries the catalog provenance of a retrieved passage.
type NodeMetadata struct {
	ProductName string `json:"product_name,omitempty"`
	Variant     string `json:"variant,omitempty"`
	DeepLink    string `json:"deep_link,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Node is one ranked retrieval result.
type Node struct {
	Content  string       `json:"content"`
	Score    float32      `json:"score"`
	Metadata NodeMetadata `json:"metadata"`
}

// Retriever returns the k passages most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Node, error)
}

// Document is an embedded passage held by a Store.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  NodeMetadata
}

// Store persists embedded documents and serves similarity search.
type Store interface {
	// Name labels the backend in metrics.
	Name() string
	Upsert(ctx context.Context, docs []Document) error
	Search(ctx context.Context, vector []float32, k int) ([]Node, error)
	Close() error
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorRetriever composes an embedder and a store into a Retriever.
type VectorRetriever struct {
	embedder Embedder
	store    Store
}

// NewVectorRetriever wires an embedder to a store.
func NewVectorRetriever(embedder Embedder, store Store) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, store: store}
}

// Retrieve embeds the query and runs a similarity search.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]Node, error) {
	ctx, span := observability.StartSpan(ctx, "retrieval.retrieve",
		trace.WithAttributes(
			attribute.String("store.name", r.store.Name()),
			attribute.Int("retrieval.k", k),
		),
	)
	defer span.End()

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}
	start := time.Now()
	nodes, err := r.store.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	observability.RecordRetrieval(r.store.Name(), time.Since(start))
	span.SetAttributes(attribute.Int("retrieval.hits", len(nodes)))
	return nodes, nil
}

// IndexDocuments embeds and stores a batch of documents.
func (r *VectorRetriever) IndexDocuments(ctx context.Context, docs []Document) error {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embed documents: got %d vectors for %d texts", len(vectors), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}
	return r.store.Upsert(ctx, docs)
}
