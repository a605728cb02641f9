package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/errutil"
)

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
}

type chatResponse struct {
	Answer     string               `json:"answer"`
	SessionID  model.SessionID      `json:"sessionId"`
	Context    []model.ContextChunk `json:"context"`
	WebResults []model.WebResult    `json:"webResults"`
}

type sessionResponse struct {
	ID          model.SessionID `json:"id"`
	Title       string          `json:"title"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	LastMessage string          `json:"lastMessage"`
}

type messageResponse struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  *model.MessageMetadata `json:"metadata,omitempty"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	reply, err := s.uc.Chat.Ask(r.Context(), req.Question, model.SessionID(req.SessionID))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	writeJSON(w, r, http.StatusOK, chatResponse{
		Answer:     reply.Answer,
		SessionID:  reply.SessionID,
		Context:    nonNil(reply.Context),
		WebResults: nonNil(reply.WebResults),
	})
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.uc.Sessions.ListSessions(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	resp := make([]sessionResponse, len(sessions))
	for i, summary := range sessions {
		resp[i] = sessionResponse{
			ID:          summary.Session.ID,
			Title:       summary.Session.Title,
			UpdatedAt:   summary.Session.UpdatedAt,
			LastMessage: summary.LastMessage,
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(chi.URLParam(r, "id"))

	msgs, err := s.uc.Sessions.Messages(r.Context(), id)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	resp := make([]messageResponse, len(msgs))
	for i, m := range msgs {
		resp[i] = messageResponse{
			Role:      m.Role.String(),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			Metadata:  m.Metadata,
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(chi.URLParam(r, "id"))

	if err := s.uc.Sessions.DeleteSession(r.Context(), id); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
