package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// openTestRegistry opens an in-memory SQLiteRegistry for use in tests.
func openTestRegistry(t *testing.T) *SQLiteRegistry {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory registry: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Registry_CreateAndGet(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	doc := &Document{
		ID:        "doc-1",
		OwnerID:   "alice",
		Name:      "report.pdf",
		MediaType: "application/pdf",
	}
	if err := s.Create(ctx, doc); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, "alice", "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "report.pdf" || got.MediaType != "application/pdf" {
		t.Errorf("unexpected document: %+v", got)
	}
	if got.Status != StatusPending {
		t.Errorf("new document should default to pending, got %q", got.Status)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should be populated")
	}
}

func Test_Registry_GetIsOwnerScoped(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	if err := s.Create(ctx, &Document{ID: "doc-1", OwnerID: "alice", Name: "a.txt", MediaType: "text/plain"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Get(ctx, "bob", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner get must return ErrNotFound, got %v", err)
	}
}

func Test_Registry_SetStatus(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	if err := s.Create(ctx, &Document{ID: "doc-1", OwnerID: "alice", Name: "a.txt", MediaType: "text/plain"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetStatus(ctx, "alice", "doc-1", StatusIngested, 7); err != nil {
		t.Fatalf("set status: %v", err)
	}

	got, err := s.Get(ctx, "alice", "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusIngested || got.ChunkCount != 7 {
		t.Errorf("want ingested/7, got %s/%d", got.Status, got.ChunkCount)
	}

	if err := s.SetStatus(ctx, "alice", "missing", StatusFailed, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("set status on missing document: want ErrNotFound, got %v", err)
	}
}

func Test_Registry_ListByOwnerNewestFirst(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := range 3 {
		doc := &Document{
			ID:        fmt.Sprintf("doc-%d", i),
			OwnerID:   "alice",
			Name:      fmt.Sprintf("file-%d.txt", i),
			MediaType: "text/plain",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Create(ctx, doc); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if err := s.Create(ctx, &Document{ID: "doc-bob", OwnerID: "bob", Name: "b.txt", MediaType: "text/plain"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	docs, err := s.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("want 3 documents, got %d", len(docs))
	}
	if docs[0].ID != "doc-2" || docs[2].ID != "doc-0" {
		t.Errorf("want newest first, got order %s, %s, %s", docs[0].ID, docs[1].ID, docs[2].ID)
	}
}

func Test_Registry_Delete(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	if err := s.Create(ctx, &Document{ID: "doc-1", OwnerID: "alice", Name: "a.txt", MediaType: "text/plain"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(ctx, "bob", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner delete must return ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "alice", "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "alice", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted document should be gone, got %v", err)
	}
}

func Test_Registry_AppendAndRecentMessages(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "alice", RoleUser, "what is the total?"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	if err := s.AppendMessage(ctx, "alice", RoleAssistant, "the total is 42"); err != nil {
		t.Fatalf("append assistant: %v", err)
	}

	msgs, err := s.RecentMessages(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "what is the total?" {
		t.Errorf("msg[0]: want user question, got %s/%s", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "the total is 42" {
		t.Errorf("msg[1]: want assistant answer, got %s/%s", msgs[1].Role, msgs[1].Content)
	}
}

func Test_Registry_MessagesOwnerIsolation(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "alice", RoleUser, "from alice"); err != nil {
		t.Fatalf("append alice: %v", err)
	}
	if err := s.AppendMessage(ctx, "bob", RoleUser, "from bob"); err != nil {
		t.Fatalf("append bob: %v", err)
	}

	msgs, err := s.RecentMessages(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent alice: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "from alice" {
		t.Errorf("owner isolation failed: got %v", msgs)
	}
}

func Test_Registry_RecentMessagesLimit(t *testing.T) {
	t.Parallel()
	s := openTestRegistry(t)
	ctx := context.Background()

	for i := range 6 {
		if err := s.AppendMessage(ctx, "alice", RoleUser, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := s.RecentMessages(ctx, "alice", 4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 4 {
		t.Errorf("want 4 messages, got %d", len(msgs))
	}
}
