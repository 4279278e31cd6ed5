package server

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docfold/docfold/internal/store"
)

// okHandler is a trivial downstream handler used by middleware tests.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// fakeIngestor implements ingestor, recording the last call.
type fakeIngestor struct {
	chunkCount int
	err        error
	ownerID    string
	documentID string
	text       string
	calls      int
}

func (f *fakeIngestor) Ingest(_ context.Context, ownerID, documentID, text string) (int, error) {
	f.calls++
	f.ownerID = ownerID
	f.documentID = documentID
	f.text = text
	if f.err != nil {
		return 0, f.err
	}
	return f.chunkCount, nil
}

// fakeAnswerer implements answerer with a canned reply.
type fakeAnswerer struct {
	reply    string
	err      error
	ownerID  string
	question string
	docs     []string
	calls    int
}

func (f *fakeAnswerer) Answer(_ context.Context, ownerID, question string) (string, error) {
	f.calls++
	f.ownerID = ownerID
	f.question = question
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAnswerer) AnswerWithDocuments(_ context.Context, ownerID, question string, docs []string) (string, error) {
	f.calls++
	f.ownerID = ownerID
	f.question = question
	f.docs = docs
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeExtractor implements extractor with a canned transcription.
type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// fakePurger implements chunkPurger, recording the last call.
type fakePurger struct {
	err        error
	ownerID    string
	documentID string
	calls      int
}

func (f *fakePurger) DeleteByDocument(_ context.Context, ownerID, documentID string) error {
	f.calls++
	f.ownerID = ownerID
	f.documentID = documentID
	return f.err
}

// testDeps builds a Dependencies bundle backed by fakes and an in-memory
// registry. Individual fields can be swapped before newTestServer.
func testDeps(t *testing.T) *Dependencies {
	t.Helper()
	reg, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory registry: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return &Dependencies{
		Ingestor:  &fakeIngestor{chunkCount: 1},
		Answerer:  &fakeAnswerer{reply: "ok"},
		Extractor: &fakeExtractor{text: "extracted"},
		Purger:    &fakePurger{},
		Registry:  reg,
	}
}

// newTestServer constructs a Server over the given deps with a hermetic
// metrics registry.
func newTestServer(t *testing.T, deps *Dependencies, cfg *Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Logger = slog.Default()
	cfg.MetricsRegistry = prometheus.NewRegistry()
	s, err := New(deps, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}
