package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/taskdesk/taskdesk/pkg/utils/async"
	"github.com/taskdesk/taskdesk/pkg/utils/errutil"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
)

type rebuildResponse struct {
	OK       bool `json:"ok"`
	Count    int  `json:"count"`
	Accepted bool `json:"accepted,omitempty"`
}

type addEmbeddingRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

type addEmbeddingResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

// rebuildHandler runs a full rebuild. With async=true the rebuild is dispatched and 202 returned
// at once; a rebuild already in flight is reported by the background job log only.
func (s *Server) rebuildHandler(w http.ResponseWriter, r *http.Request) {
	if runAsync, _ := strconv.ParseBool(r.URL.Query().Get("async")); runAsync {
		async.Dispatch(r.Context(), "embedding-rebuild", func(ctx context.Context) error {
			n, err := s.uc.Embedding.RebuildAll(ctx)
			if err != nil {
				return err
			}
			logging.From(ctx).Info("async embedding rebuild finished", "records", n)
			return nil
		})
		writeJSON(w, r, http.StatusAccepted, rebuildResponse{OK: true, Accepted: true})
		return
	}

	n, err := s.uc.Embedding.RebuildAll(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, http.StatusOK, rebuildResponse{OK: true, Count: n})
}

func (s *Server) addEmbeddingHandler(w http.ResponseWriter, r *http.Request) {
	var req addEmbeddingRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	n, err := s.uc.Embedding.AddAdHoc(r.Context(), req.Title, req.Content)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}
	writeJSON(w, r, http.StatusOK, addEmbeddingResponse{OK: n > 0, Count: n})
}
