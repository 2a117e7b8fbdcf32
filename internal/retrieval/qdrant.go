package retrieval

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore implements Store against a Qdrant collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
}

// QdrantOptions configures the Qdrant connection.
type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	// VectorSize is the embedding dimension, needed to create the
	// collection when it does not exist yet.
	VectorSize uint64
}

// NewQdrantStore connects to Qdrant and ensures the collection exists.
func NewQdrantStore(ctx context.Context, opts QdrantOptions) (*QdrantStore, error) {
	if opts.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client:     client,
		collection: opts.Collection,
		vectorSize: opts.VectorSize,
	}
	if err := store.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Name reports the backend label used in metrics.
func (s *QdrantStore) Name() string { return "qdrant" }

// Upsert implements Store.
func (s *QdrantStore) Upsert(ctx context.Context, docs []Document) error {
	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":      doc.Content,
				"product_name": doc.Metadata.ProductName,
				"variant":      doc.Metadata.Variant,
				"deep_link":    doc.Metadata.DeepLink,
				"source":       doc.Metadata.Source,
			}),
		}
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Search implements Store.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int) ([]Node, error) {
	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	nodes := make([]Node, 0, len(points))
	for _, point := range points {
		node := Node{Score: point.Score}
		for key, value := range point.Payload {
			str := value.GetStringValue()
			switch key {
			case "content":
				node.Content = str
			case "product_name":
				node.Metadata.ProductName = str
			case "variant":
				node.Metadata.Variant = str
			case "deep_link":
				node.Metadata.DeepLink = str
			case "source":
				node.Metadata.Source = str
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Close implements Store.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
