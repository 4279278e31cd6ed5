package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/docfold/docfold/internal/rag"
)

// fakeEmbedder implements rag.Embedder, returning a fixed-size vector per text.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

// fakeStore implements rag.VectorStore, capturing the upserted batch.
type fakeStore struct {
	err        error
	upserts    int
	chunks     []rag.Chunk
	embeddings [][]float32
}

func (f *fakeStore) Upsert(_ context.Context, chunks []rag.Chunk, embeddings [][]float32) error {
	f.upserts++
	if f.err != nil {
		return f.err
	}
	f.chunks = chunks
	f.embeddings = embeddings
	return nil
}

func (f *fakeStore) Search(context.Context, []float32, string, int) ([]rag.Chunk, error) {
	return nil, nil
}
func (f *fakeStore) DeleteByDocument(context.Context, string, string) error { return nil }
func (f *fakeStore) Close() error                                           { return nil }

func newTestPipeline(t *testing.T, emb *fakeEmbedder, store *fakeStore, chunkSize int) *Pipeline {
	t.Helper()
	p, err := NewPipeline(emb, store, &Config{ChunkSize: chunkSize})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestIngest_BatchShape(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 1000)

	text := strings.Repeat("x", 2500)
	n, err := p.Ingest(context.Background(), "alice", "doc1", text)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n != 3 {
		t.Errorf("want 3 chunks written, got %d", n)
	}
	if store.upserts != 1 {
		t.Errorf("want exactly one batched upsert, got %d", store.upserts)
	}
	if len(store.chunks) != 3 || len(store.embeddings) != 3 {
		t.Fatalf("want parallel batches of 3, got %d chunks / %d embeddings",
			len(store.chunks), len(store.embeddings))
	}

	for i, ch := range store.chunks {
		wantID := fmt.Sprintf("doc1-chunk-%d", i)
		if ch.ID != wantID {
			t.Errorf("chunk %d: want id %q, got %q", i, wantID, ch.ID)
		}
		if ch.OwnerID != "alice" || ch.DocumentID != "doc1" {
			t.Errorf("chunk %d: metadata not attached: %+v", i, ch)
		}
		if ch.Index != i {
			t.Errorf("chunk %d: want index %d, got %d", i, i, ch.Index)
		}
	}
	if len(store.chunks[0].Text) != 1000 || len(store.chunks[2].Text) != 500 {
		t.Errorf("unexpected chunk lengths: %d, %d, %d",
			len(store.chunks[0].Text), len(store.chunks[1].Text), len(store.chunks[2].Text))
	}
}

func TestIngest_EmptyTextSkipsExternalCalls(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 1000)

	n, err := p.Ingest(context.Background(), "alice", "doc1", "")
	if err != nil {
		t.Fatalf("ingest of empty text must succeed, got %v", err)
	}
	if n != 0 {
		t.Errorf("want 0 chunks, got %d", n)
	}
	if emb.calls != 0 {
		t.Errorf("embedder must not be called for empty text, got %d calls", emb.calls)
	}
	if store.upserts != 0 {
		t.Errorf("store must not be called for empty text, got %d upserts", store.upserts)
	}
}

func TestIngest_MissingIdentifiers(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &fakeEmbedder{}, &fakeStore{}, 1000)

	_, err := p.Ingest(context.Background(), "", "doc1", "text")
	if KindOf(err) != KindConfig {
		t.Errorf("missing owner: want KindConfig, got %v (%v)", KindOf(err), err)
	}

	_, err = p.Ingest(context.Background(), "alice", "", "text")
	if KindOf(err) != KindConfig {
		t.Errorf("missing document: want KindConfig, got %v (%v)", KindOf(err), err)
	}
}

func TestIngest_ErrorKinds(t *testing.T) {
	t.Parallel()

	embErr := errors.New("embedding backend down")
	p := newTestPipeline(t, &fakeEmbedder{err: embErr}, &fakeStore{}, 1000)
	_, err := p.Ingest(context.Background(), "alice", "doc1", "text")
	if KindOf(err) != KindEmbed {
		t.Errorf("want KindEmbed, got %v", KindOf(err))
	}
	if !errors.Is(err, embErr) {
		t.Errorf("want wrapped cause, got %v", err)
	}

	storeErr := errors.New("qdrant unreachable")
	p = newTestPipeline(t, &fakeEmbedder{}, &fakeStore{err: storeErr}, 1000)
	_, err = p.Ingest(context.Background(), "alice", "doc1", "text")
	if KindOf(err) != KindStore {
		t.Errorf("want KindStore, got %v", KindOf(err))
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("want wrapped cause, got %v", err)
	}
}
