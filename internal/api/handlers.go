package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fikrfree/assistant/internal/bot"
	"github.com/fikrfree/assistant/pkg/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// mapError translates the assistant's error taxonomy to HTTP statuses.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bot.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, bot.ErrValidation):
		writeError(w, http.StatusBadRequest, "message must be between 1 and 1000 characters")
	case errors.Is(err, bot.ErrCollaborator):
		writeError(w, http.StatusBadGateway, "processing failed, please try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.assistant.CreateSession(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

type sendMessageRequest struct {
	Message string `json:"message"`
	Stream  bool   `json:"stream"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Stream {
		s.streamMessage(w, r, sessionID, req.Message)
		return
	}

	reply, err := s.assistant.SendMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// SSE frame types.
type sseContentFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type sseCompleteFrame struct {
	Type         string `json:"type"`
	Response     string `json:"response"`
	Language     string `json:"language_detected"`
	MessageCount int    `json:"message_count"`
}

type sseErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// streamMessage drains the assistant's chunk stream into SSE frames.
// A client disconnect cancels the request context; the loop observes it
// at the next chunk and stops without emitting further frames.
func (s *Server) streamMessage(w http.ResponseWriter, r *http.Request, sessionID, message string) {
	stream, err := s.assistant.StreamMessage(r.Context(), sessionID, message)
	if err != nil {
		mapError(w, err)
		return
	}
	defer stream.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if r.Context().Err() != nil {
				// Caller disconnected; nothing more to emit.
				return
			}
			s.writeSSE(w, flusher, sseErrorFrame{Type: "error", Error: "generation failed"})
			return
		}
		if r.Context().Err() != nil {
			return
		}
		s.writeSSE(w, flusher, sseContentFrame{Type: "content", Content: chunk.Delta})
	}

	reply, err := stream.Final(r.Context())
	if err != nil {
		s.writeSSE(w, flusher, sseErrorFrame{Type: "error", Error: "generation failed"})
		return
	}
	s.writeSSE(w, flusher, sseCompleteFrame{
		Type:         "complete",
		Response:     reply.Response,
		Language:     string(reply.Language),
		MessageCount: reply.MessageCount,
	})
}

func (s *Server) writeSSE(w http.ResponseWriter, flusher http.Flusher, frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

type historyResponse struct {
	Messages []session.Message `json:"messages"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := s.assistant.History(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: messages})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.assistant.Info(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.assistant.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.assistant.Stats(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type translateRequest struct {
	Text string `json:"text"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Language    string `json:"language_detected"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	out, detected, err := s.assistant.Translate(r.Context(), req.Text)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{Translation: out, Language: string(detected)})
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if s.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback logging disabled")
		return
	}
	if err := s.feedback.Record(req.SessionID, req.Rating, req.Comment); err != nil {
		s.logger.Error().Err(err).Msg("failed to record feedback")
		writeError(w, http.StatusInternalServerError, "failed to record feedback")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"recorded": true})
}
