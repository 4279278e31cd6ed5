package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/docfold/docfold/internal/answer"
	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/store"
)

// handleChat handles POST /api/chat. It answers the owner's question from
// their ingested documents and persists both turns to the chat history.
// History persistence is best-effort: a registry failure is logged but never
// fails the request.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "ownerId is required")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	var result string
	var err error
	if len(req.Documents) > 0 {
		result, err = s.deps.Answerer.AnswerWithDocuments(r.Context(), req.OwnerID, req.Question, req.Documents)
	} else {
		result, err = s.deps.Answerer.Answer(r.Context(), req.OwnerID, req.Question)
	}
	if err != nil {
		s.metrics.chatRequestsTotal.WithLabelValues("error").Inc()
		s.metrics.chatDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.Error("chat: answer failed",
			slog.String("owner_id", req.OwnerID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusBadGateway, "could not answer question")
		return
	}

	outcome := "ok"
	if result == answer.NoContextAnswer {
		outcome = "no_context"
	}
	s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err := s.deps.Registry.AppendMessage(r.Context(), req.OwnerID, store.RoleUser, req.Question); err != nil {
		log.Warn("chat: could not persist question", slog.Any("error", err))
	}
	if err := s.deps.Registry.AppendMessage(r.Context(), req.OwnerID, store.RoleAssistant, result); err != nil {
		log.Warn("chat: could not persist answer", slog.Any("error", err))
	}

	writeJSON(w, http.StatusOK, chatResponse{Answer: result})
}
