package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Payload field names used for chunk metadata in the Qdrant collection.
// owner_id and document_id carry keyword indexes so the equality filters
// used by Search and DeleteByDocument are exact-match and indexed.
const (
	fieldText       = "text"
	fieldOwnerID    = "owner_id"
	fieldDocumentID = "document_id"
	fieldChunkID    = "chunk_id"
	fieldChunkIndex = "chunk_index"
)

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection and
// its metadata indexes exist (creating them if necessary), and returns a
// ready-to-use VectorStore.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the Qdrant collection and its keyword payload
// indexes if they do not already exist. Index creation is idempotent, so it
// runs unconditionally — a second process racing the first converges to the
// same collection state.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.cfg.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
		}
	}

	for _, field := range []string{fieldOwnerID, fieldDocumentID} {
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.cfg.Collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("qdrant: failed to create %s index on %q: %w", field, s.cfg.Collection, err)
		}
	}

	return nil
}

// Upsert stores a batch of chunks with their embeddings. Point IDs are
// derived deterministically from the chunk ID, so re-ingesting a document
// overwrites its previous chunks instead of duplicating them.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("qdrant: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, ch := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointUUID(ch.ID)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldText:       ch.Text,
				fieldOwnerID:    ch.OwnerID,
				fieldDocumentID: ch.DocumentID,
				fieldChunkID:    ch.ID,
				fieldChunkIndex: int64(ch.Index),
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Search performs a cosine similarity search restricted to the given owner's
// chunks and returns at most topK results in Qdrant's relevance order.
func (s *QdrantStore) Search(ctx context.Context, queryEmbedding []float32, ownerID string, topK int) ([]Chunk, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("qdrant: search requires an owner id")
	}

	limit := uint64(topK) //nolint:gosec // topK is a small positive result count
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          &limit,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldOwnerID, ownerID),
			},
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	chunks := make([]Chunk, 0, len(results))
	for _, r := range results {
		ch := Chunk{Score: r.Score}
		if p := r.Payload; p != nil {
			if v, ok := p[fieldText]; ok {
				ch.Text = v.GetStringValue()
			}
			if v, ok := p[fieldOwnerID]; ok {
				ch.OwnerID = v.GetStringValue()
			}
			if v, ok := p[fieldDocumentID]; ok {
				ch.DocumentID = v.GetStringValue()
			}
			if v, ok := p[fieldChunkID]; ok {
				ch.ID = v.GetStringValue()
			}
			if v, ok := p[fieldChunkIndex]; ok {
				ch.Index = int(v.GetIntegerValue())
			}
		}
		chunks = append(chunks, ch)
	}

	return chunks, nil
}

// DeleteByDocument removes every chunk belonging to the given document using
// a metadata-filtered delete. The owner filter is included so a document ID
// collision across owners can never purge another owner's chunks.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, ownerID, documentID string) error {
	if ownerID == "" || documentID == "" {
		return fmt.Errorf("qdrant: delete requires owner and document ids")
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldOwnerID, ownerID),
				qdrant.NewMatch(fieldDocumentID, documentID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete for document %q failed: %w", documentID, err)
	}

	return nil
}

// Ping calls the Qdrant HealthCheck RPC. Used by the server's readiness probe.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointUUID derives a deterministic UUID (v5, SHA-1 based) from a chunk ID.
// Qdrant point IDs must be UUIDs or unsigned integers; the composite
// "{documentID}-chunk-{index}" format is neither, so it is carried in the
// payload and hashed into the point ID.
func pointUUID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}
