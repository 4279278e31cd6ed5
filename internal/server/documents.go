package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docfold/docfold/internal/extract"
	"github.com/docfold/docfold/internal/ingestion"
	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/store"
)

// handleDocumentUpload handles POST /api/documents. The request is
// multipart/form-data with an "owner_id" field and a "file" part. An optional
// "media_type" field overrides the type inferred from the filename.
//
// The document is registered, converted to text (extraction for binary
// formats, passthrough for text), and ingested synchronously. The response
// reflects the final registry state.
func (s *Server) handleDocumentUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	ownerID := r.FormValue("owner_id")
	if ownerID == "" {
		s.metrics.ingestDocumentsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	mediaType := r.FormValue("media_type")
	if mediaType == "" {
		mediaType = extract.InferMediaType(header.Filename)
	}
	if !isTextMedia(mediaType) && s.deps.Extractor == nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnsupportedMediaType, "binary uploads require an extraction model")
		return
	}

	doc := &store.Document{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      header.Filename,
		MediaType: mediaType,
	}
	if err := s.deps.Registry.Create(r.Context(), doc); err != nil {
		log.Error("upload: registry create failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not register document")
		return
	}

	text := string(data)
	if !isTextMedia(mediaType) {
		text, err = s.deps.Extractor.Extract(r.Context(), data, mediaType)
		if err != nil {
			s.failDocument(r, doc, "extraction failed", err)
			writeError(w, http.StatusBadGateway, "document extraction failed")
			return
		}
	}

	chunkCount, err := s.deps.Ingestor.Ingest(r.Context(), ownerID, doc.ID, text)
	if err != nil {
		s.failDocument(r, doc, "ingestion failed", err)
		status := http.StatusBadGateway
		if ingestion.KindOf(err) == ingestion.KindConfig {
			status = http.StatusBadRequest
		}
		writeError(w, status, "document ingestion failed")
		return
	}

	if err := s.deps.Registry.SetStatus(r.Context(), ownerID, doc.ID, store.StatusIngested, chunkCount); err != nil {
		log.Error("upload: status update failed", slog.Any("error", err))
	}
	doc.Status = store.StatusIngested
	doc.ChunkCount = chunkCount

	s.metrics.ingestDocumentsTotal.WithLabelValues("ingested").Inc()
	s.metrics.ingestChunksTotal.Add(float64(chunkCount))

	log.Info("upload: document ingested",
		slog.String("document_id", doc.ID),
		slog.String("owner_id", ownerID),
		slog.String("media_type", mediaType),
		slog.Int("chunks", chunkCount),
	)
	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

// failDocument marks a registered document failed and records the metric.
func (s *Server) failDocument(r *http.Request, doc *store.Document, msg string, cause error) {
	log := logging.FromContext(r.Context())
	log.Error("upload: "+msg,
		slog.String("document_id", doc.ID),
		slog.Any("error", cause),
	)
	if err := s.deps.Registry.SetStatus(r.Context(), doc.OwnerID, doc.ID, store.StatusFailed, 0); err != nil {
		log.Error("upload: status update failed", slog.Any("error", err))
	}
	s.metrics.ingestDocumentsTotal.WithLabelValues("failed").Inc()
}

// handleDocumentList handles GET /api/documents?owner=<id>.
func (s *Server) handleDocumentList(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner query parameter is required")
		return
	}

	docs, err := s.deps.Registry.ListByOwner(r.Context(), ownerID)
	if err != nil {
		logging.FromContext(r.Context()).Error("list: registry query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not list documents")
		return
	}

	resp := listDocumentsResponse{Documents: make([]documentResponse, 0, len(docs))}
	for i := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(&docs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDocumentDelete handles DELETE /api/documents/{id}?owner=<id>.
// The document's chunks are purged from the vector store before the registry
// entry is removed, so a failed purge leaves the document visible.
func (s *Server) handleDocumentDelete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	documentID := r.PathValue("id")
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner query parameter is required")
		return
	}

	if _, err := s.deps.Registry.Get(r.Context(), ownerID, documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		log.Error("delete: registry lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not look up document")
		return
	}

	if s.deps.Purger != nil {
		if err := s.deps.Purger.DeleteByDocument(r.Context(), ownerID, documentID); err != nil {
			log.Error("delete: chunk purge failed",
				slog.String("document_id", documentID),
				slog.Any("error", err),
			)
			writeError(w, http.StatusBadGateway, "could not purge document chunks")
			return
		}
	}

	if err := s.deps.Registry.Delete(r.Context(), ownerID, documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		log.Error("delete: registry delete failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not delete document")
		return
	}

	log.Info("delete: document removed",
		slog.String("document_id", documentID),
		slog.String("owner_id", ownerID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// isTextMedia reports whether the media type can be ingested without
// extraction.
func isTextMedia(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/json", "application/xml":
		return true
	}
	return false
}

// toDocumentResponse converts a registry entry to its JSON representation.
func toDocumentResponse(doc *store.Document) documentResponse {
	return documentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		MediaType:  doc.MediaType,
		Status:     string(doc.Status),
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
	}
}
