package errutil_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/utils/errutil"
)

func TestHandleHTTP(t *testing.T) {
	t.Run("client errors keep their message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(t.Context(), w, goerr.New("question is required"), http.StatusBadRequest)

		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		var body map[string]string
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)).Required()
		gt.Value(t, body["error"]).Equal("question is required")
	})

	t.Run("server errors hide details", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := goerr.New("dial tcp postgres://user:pass@db:5432 refused")
		errutil.HandleHTTP(t.Context(), w, err, http.StatusInternalServerError)

		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		gt.String(t, w.Body.String()).NotContains("postgres://")
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(t.Context(), w, nil, http.StatusInternalServerError)
		gt.Value(t, w.Body.Len()).Equal(0)
	})
}
