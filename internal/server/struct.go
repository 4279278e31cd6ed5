package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docfold/docfold/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8085).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps the size of a single document upload.
	// Defaults to 32 MiB if zero.
	MaxUploadBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server's Prometheus metrics. If nil a fresh
	// registry with the standard Go and process collectors is created.
	MetricsRegistry *prometheus.Registry
}

// ingestor chunks, embeds, and stores one document's text.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type ingestor interface {
	Ingest(ctx context.Context, ownerID, documentID, text string) (int, error)
}

// answerer resolves an owner's question against their ingested documents,
// or against caller-supplied texts when retrieval is bypassed.
// *answer.Answerer satisfies it; tests inject a fake.
type answerer interface {
	Answer(ctx context.Context, ownerID, question string) (string, error)
	AnswerWithDocuments(ctx context.Context, ownerID, question string, docs []string) (string, error)
}

// extractor converts non-text document bytes into plain text.
// *extract.Extractor satisfies it; tests inject a fake. A nil extractor
// restricts uploads to plain-text media types.
type extractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (string, error)
}

// chunkPurger removes a document's chunks from the vector store.
// *rag.QdrantStore satisfies it; tests inject a fake.
type chunkPurger interface {
	DeleteByDocument(ctx context.Context, ownerID, documentID string) error
}

// Dependencies bundles the backend components the server exposes over HTTP.
type Dependencies struct {
	// Ingestor runs the chunk/embed/store pipeline for uploads.
	Ingestor ingestor
	// Answerer resolves chat questions.
	Answerer answerer
	// Extractor converts binary uploads to text. Optional.
	Extractor extractor
	// Purger removes a deleted document's chunks from the vector store.
	Purger chunkPurger
	// Registry is the document catalog and chat history store.
	Registry store.Registry
}

// Server is the HTTP server exposing the docfold document and chat API.
type Server struct {
	// deps holds the backend components behind the handlers.
	deps *Dependencies
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// OwnerID identifies the tenant asking the question.
	OwnerID string `json:"ownerId"`
	// Question is the natural-language question.
	Question string `json:"question"`
	// Documents optionally supplies the context texts directly, bypassing
	// retrieval. When present and non-empty, no vector search is performed.
	Documents []string `json:"documents,omitempty"`
}

// chatResponse is the JSON response for POST /api/chat.
type chatResponse struct {
	// Answer is the model's raw answer text.
	Answer string `json:"answer"`
}

// documentResponse is the JSON representation of a registry entry, returned
// by the upload and list endpoints.
type documentResponse struct {
	// ID uniquely identifies the document.
	ID string `json:"id"`
	// Name is the original filename or caller-supplied title.
	Name string `json:"name"`
	// MediaType is the document's MIME type.
	MediaType string `json:"mediaType"`
	// Status is the ingestion state: pending, ingested, or failed.
	Status string `json:"status"`
	// ChunkCount is the number of chunks produced by ingestion.
	ChunkCount int `json:"chunkCount"`
	// CreatedAt is when the document was registered (RFC 3339).
	CreatedAt string `json:"createdAt"`
}

// listDocumentsResponse is the JSON response for GET /api/documents.
type listDocumentsResponse struct {
	// Documents is the owner's catalog, newest first.
	Documents []documentResponse `json:"documents"`
}

// errorResponse is the JSON error body used by all handlers.
type errorResponse struct {
	// Error is the human-readable failure reason.
	Error string `json:"error"`
}
