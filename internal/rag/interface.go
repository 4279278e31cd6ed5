// Package rag defines the interfaces for the retrieval side of docfold:
// vector storage, text embedding, and owner-scoped chunk retrieval.
// Concrete implementations (Qdrant, etc.) satisfy these interfaces so the
// answer and ingestion layers never depend on a specific backend.
package rag

import (
	"context"
)

// Chunk is a bounded-length slice of a document's text — the unit of storage
// and retrieval in the vector collection. Chunks are immutable once created.
type Chunk struct {
	// ID is the deterministic chunk identifier: "{documentID}-chunk-{index}".
	ID string

	// Text is the raw chunk content.
	Text string

	// OwnerID identifies the user the parent document belongs to.
	// Every retrieval is filtered to a single owner; a chunk without an
	// owner is unreachable.
	OwnerID string

	// DocumentID identifies the parent document.
	DocumentID string

	// Index is the zero-based position of this chunk within its document.
	Index int

	// Score is the similarity score assigned during retrieval.
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores a batch of chunks with their pre-computed embeddings.
	// The embeddings slice must be parallel to chunks — embeddings[i] is the
	// vector for chunks[i].
	Upsert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error

	// Search performs a similarity search restricted to chunks owned by
	// ownerID and returns at most topK results in the backend's relevance
	// order. No re-ranking is applied.
	Search(ctx context.Context, queryEmbedding []float32, ownerID string, topK int) ([]Chunk, error)

	// DeleteByDocument removes every chunk belonging to the given document.
	// Called when a document is deleted so no orphaned chunks remain.
	DeleteByDocument(ctx context.Context, ownerID, documentID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the high-level interface used by the answer layer to fetch an
// owner's most relevant chunks for a question. It combines embedding and
// vector search. Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve returns the topK most relevant chunks owned by ownerID.
	Retrieve(ctx context.Context, ownerID, query string, topK int) ([]Chunk, error)
}
