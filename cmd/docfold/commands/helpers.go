package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/docfold/docfold/internal/embedder"
	"github.com/docfold/docfold/internal/rag"
	"github.com/docfold/docfold/internal/store"
)

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable parsed as int, or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable parsed as bool, or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// buildEmbedder validates the embedding configuration and constructs the
// embedder selected by EMBEDDING_PROVIDER.
func buildEmbedder(log *slog.Logger) (rag.Embedder, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	return embedder.NewFromEnv()
}

// buildVectorStore connects to Qdrant using QDRANT_* environment variables.
// The vector size is derived from the active embedding backend so the
// collection schema always matches the embedder's output; DefaultDimensions
// resolves the EMBEDDING_DIMENSIONS override itself.
func buildVectorStore(ctx context.Context) (*rag.QdrantStore, error) {
	dims := embedder.DefaultDimensions(embedder.Backend())

	cfg := &rag.QdrantConfig{
		Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnvOrDefault("QDRANT_COLLECTION", "docfold"),
		VectorSize: uint64(dims),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     getEnvBool("QDRANT_TLS", false),
	}

	qs, err := rag.NewQdrantStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return qs, nil
}

// buildRegistry opens the document registry at DOCFOLD_DB, falling back to
// the default path under ~/.docfold.
func buildRegistry() (*store.SQLiteRegistry, error) {
	dbPath := os.Getenv("DOCFOLD_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}
