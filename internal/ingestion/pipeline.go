// Package ingestion implements the document ingestion pipeline: split a
// document's extracted text into fixed-size chunks, attach owner and document
// metadata, embed the batch, and upsert it into the vector store in a single
// write. The pipeline is invoked by the upload handler and the `docfold
// ingest` CLI command.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/rag"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per chunk.
	// Defaults to DefaultChunkSize (1000) if zero.
	ChunkSize int
}

// Pipeline orchestrates the chunk → embed → upsert flow for one document.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	return &Pipeline{embedder: embedder, store: store, cfg: cfg}, nil
}

// Ingest chunks text, assigns each chunk the composite ID
// "{documentID}-chunk-{index}", attaches owner and document metadata, and
// submits the whole batch as one write to the vector store.
//
// Empty text succeeds trivially: no chunks are produced and no external call
// is made. Failures are returned as a typed *Error whose Kind identifies the
// failing stage; nothing is retried. Returns the number of chunks written.
func (p *Pipeline) Ingest(ctx context.Context, ownerID, documentID, text string) (int, error) {
	if ownerID == "" {
		return 0, &Error{Kind: KindConfig, DocumentID: documentID, Err: fmt.Errorf("owner id is required")}
	}
	if documentID == "" {
		return 0, &Error{Kind: KindConfig, DocumentID: documentID, Err: fmt.Errorf("document id is required")}
	}

	parts := Split(text, p.cfg.ChunkSize)
	if len(parts) == 0 {
		logging.FromContext(ctx).Debug("ingestion: empty document, nothing to store",
			slog.String("document_id", documentID),
		)
		return 0, nil
	}

	chunks := make([]rag.Chunk, 0, len(parts))
	texts := make([]string, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, rag.Chunk{
			ID:         ChunkID(documentID, i),
			Text:       part,
			OwnerID:    ownerID,
			DocumentID: documentID,
			Index:      i,
		})
		texts = append(texts, part)
	}

	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, &Error{Kind: KindEmbed, DocumentID: documentID, Err: err}
	}

	if err := p.store.Upsert(ctx, chunks, embeddings); err != nil {
		return 0, &Error{Kind: KindStore, DocumentID: documentID, Err: err}
	}

	logging.FromContext(ctx).Info("ingestion: document stored",
		slog.String("document_id", documentID),
		slog.Int("chunks", len(chunks)),
	)

	return len(chunks), nil
}

// ChunkID returns the deterministic composite identifier for the index-th
// chunk of a document: "{documentID}-chunk-{index}".
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s-chunk-%d", documentID, index)
}
