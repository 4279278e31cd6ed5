package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docfold/docfold/internal/ingestion"
	"github.com/docfold/docfold/internal/store"
)

// multipartUpload builds a multipart/form-data request body for
// POST /api/documents.
func multipartUpload(t *testing.T, ownerID, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if ownerID != "" {
		if err := mw.WriteField("owner_id", ownerID); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleDocumentUpload_TextFile(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	fi := &fakeIngestor{chunkCount: 3}
	fe := &fakeExtractor{}
	deps.Ingestor = fi
	deps.Extractor = fe
	s := newTestServer(t, deps, nil)

	body, contentType := multipartUpload(t, "alice", "notes.txt", []byte("some document text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleDocumentUpload(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp documentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(store.StatusIngested) || resp.ChunkCount != 3 {
		t.Errorf("want ingested/3, got %s/%d", resp.Status, resp.ChunkCount)
	}
	if resp.MediaType != "text/plain" {
		t.Errorf("want inferred text/plain, got %q", resp.MediaType)
	}

	if fe.calls != 0 {
		t.Error("text uploads must not invoke extraction")
	}
	if fi.ownerID != "alice" || fi.text != "some document text" {
		t.Errorf("ingestor received %q/%q", fi.ownerID, fi.text)
	}
	if fi.documentID != resp.ID {
		t.Errorf("ingested document id %q does not match response id %q", fi.documentID, resp.ID)
	}

	doc, err := deps.Registry.Get(context.Background(), "alice", resp.ID)
	if err != nil {
		t.Fatalf("registry get: %v", err)
	}
	if doc.Status != store.StatusIngested || doc.ChunkCount != 3 {
		t.Errorf("registry entry: want ingested/3, got %s/%d", doc.Status, doc.ChunkCount)
	}
}

func TestHandleDocumentUpload_BinaryFileUsesExtractor(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	fi := &fakeIngestor{chunkCount: 2}
	fe := &fakeExtractor{text: "transcribed pdf text"}
	deps.Ingestor = fi
	deps.Extractor = fe
	s := newTestServer(t, deps, nil)

	body, contentType := multipartUpload(t, "alice", "report.pdf", []byte("%PDF-1.7"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleDocumentUpload(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if fe.calls != 1 {
		t.Errorf("want one extraction call, got %d", fe.calls)
	}
	if fi.text != "transcribed pdf text" {
		t.Errorf("ingestor must receive extracted text, got %q", fi.text)
	}
}

func TestHandleDocumentUpload_MissingOwner(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testDeps(t), nil)

	body, contentType := multipartUpload(t, "", "notes.txt", []byte("text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleDocumentUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleDocumentUpload_MissingFile(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testDeps(t), nil)

	body, contentType := multipartUpload(t, "alice", "", nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleDocumentUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleDocumentUpload_BinaryWithoutExtractor(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	deps.Extractor = nil
	s := newTestServer(t, deps, nil)

	body, contentType := multipartUpload(t, "alice", "report.pdf", []byte("%PDF-1.7"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleDocumentUpload(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", w.Code)
	}
}

func TestHandleDocumentUpload_IngestFailureMarksFailed(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	deps.Ingestor = &fakeIngestor{err: &ingestion.Error{
		Kind: ingestion.KindStore,
		Err:  errors.New("qdrant down"),
	}}
	s := newTestServer(t, deps, nil)

	body, contentType := multipartUpload(t, "alice", "notes.txt", []byte("text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleDocumentUpload(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for store failure, got %d", w.Code)
	}

	docs, err := deps.Registry.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].Status != store.StatusFailed {
		t.Errorf("document must be marked failed, got %+v", docs)
	}
}

func TestHandleDocumentUpload_MediaTypeOverride(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	fe := &fakeExtractor{text: "scanned text"}
	deps.Extractor = fe
	s := newTestServer(t, deps, nil)

	body, contentType := multipartUpload(t, "alice", "scan.bin", []byte{0xFF, 0xD8},
		map[string]string{"media_type": "image/jpeg"})
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleDocumentUpload(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp documentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MediaType != "image/jpeg" {
		t.Errorf("explicit media_type must win over inference, got %q", resp.MediaType)
	}
	if fe.calls != 1 {
		t.Error("image upload must be extracted")
	}
}

func TestHandleDocumentList(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	s := newTestServer(t, deps, nil)
	ctx := context.Background()

	for _, id := range []string{"doc-a", "doc-b"} {
		if err := deps.Registry.Create(ctx, &store.Document{
			ID: id, OwnerID: "alice", Name: id + ".txt", MediaType: "text/plain",
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := deps.Registry.Create(ctx, &store.Document{
		ID: "doc-bob", OwnerID: "bob", Name: "b.txt", MediaType: "text/plain",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/documents?owner=alice", nil)
	w := httptest.NewRecorder()

	s.handleDocumentList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp listDocumentsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Documents) != 2 {
		t.Errorf("want alice's 2 documents, got %d", len(resp.Documents))
	}
	for _, d := range resp.Documents {
		if d.ID == "doc-bob" {
			t.Error("cross-owner document leaked into listing")
		}
	}
}

func TestHandleDocumentList_MissingOwner(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testDeps(t), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	w := httptest.NewRecorder()

	s.handleDocumentList(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleDocumentDelete_PurgesChunks(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	fp := &fakePurger{}
	deps.Purger = fp
	s := newTestServer(t, deps, nil)
	ctx := context.Background()

	if err := deps.Registry.Create(ctx, &store.Document{
		ID: "doc-1", OwnerID: "alice", Name: "a.txt", MediaType: "text/plain",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1?owner=alice", nil)
	req.SetPathValue("id", "doc-1")
	w := httptest.NewRecorder()

	s.handleDocumentDelete(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if fp.calls != 1 || fp.ownerID != "alice" || fp.documentID != "doc-1" {
		t.Errorf("purger not invoked correctly: %+v", fp)
	}
	if _, err := deps.Registry.Get(ctx, "alice", "doc-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("registry entry should be gone, got %v", err)
	}
}

func TestHandleDocumentDelete_NotFound(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	fp := &fakePurger{}
	deps.Purger = fp
	s := newTestServer(t, deps, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/nope?owner=alice", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()

	s.handleDocumentDelete(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if fp.calls != 0 {
		t.Error("purger must not run for unknown documents")
	}
}

func TestHandleDocumentDelete_PurgeFailureKeepsRegistryEntry(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	deps.Purger = &fakePurger{err: errors.New("qdrant down")}
	s := newTestServer(t, deps, nil)
	ctx := context.Background()

	if err := deps.Registry.Create(ctx, &store.Document{
		ID: "doc-1", OwnerID: "alice", Name: "a.txt", MediaType: "text/plain",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1?owner=alice", nil)
	req.SetPathValue("id", "doc-1")
	w := httptest.NewRecorder()

	s.handleDocumentDelete(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if _, err := deps.Registry.Get(ctx, "alice", "doc-1"); err != nil {
		t.Errorf("registry entry must survive a failed purge, got %v", err)
	}
}
