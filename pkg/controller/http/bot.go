package http

import (
	"net/http"

	"github.com/taskdesk/taskdesk/pkg/utils/errutil"
)

type botRequest struct {
	Question string `json:"question"`
}

func (s *Server) botHandler(w http.ResponseWriter, r *http.Request) {
	var req botRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	reply, err := s.uc.Bot.Ask(r.Context(), req.Question)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, http.StatusOK, reply)
}
