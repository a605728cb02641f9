package websearch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/service/websearch"
)

func TestShouldSearch(t *testing.T) {
	gt.Bool(t, websearch.ShouldSearch(websearch.ModeOff, "מה דעתך על זה?")).False()
	gt.Bool(t, websearch.ShouldSearch(websearch.ModeAlways, "כמה משימות יש?")).True()
	gt.Bool(t, websearch.ShouldSearch(websearch.ModeAuto, "מה דעתך על הכלי?")).True()
	gt.Bool(t, websearch.ShouldSearch(websearch.ModeAuto, "איזה מהם טוב יותר")).True()
	gt.Bool(t, websearch.ShouldSearch(websearch.ModeAuto, "כמה משימות יש?")).False()
}

func TestParseMode(t *testing.T) {
	m, err := websearch.ParseMode("AUTO")
	gt.NoError(t, err)
	gt.Value(t, m).Equal(websearch.ModeAuto)

	m, err = websearch.ParseMode("")
	gt.NoError(t, err)
	gt.Value(t, m).Equal(websearch.ModeOff)

	_, err = websearch.ParseMode("sometimes")
	gt.Value(t, err).NotNil()
}

func TestSerper(t *testing.T) {
	t.Run("sends key and query and caps results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.Header.Get("X-API-KEY")).Equal("secret")
			var req map[string]any
			gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			gt.Value(t, req["q"]).Equal("שאלה")
			gt.Value(t, req["num"]).Equal(float64(2))

			_ = json.NewEncoder(w).Encode(map[string]any{
				"organic": []map[string]string{
					{"title": "a", "link": "https://a.example", "snippet": "sa"},
					{"title": "b", "link": "https://b.example", "snippet": "sb"},
					{"title": "c", "link": "https://c.example", "snippet": "sc"},
				},
			})
		}))
		defer srv.Close()

		s := websearch.NewSerper("secret", websearch.WithEndpoint(srv.URL), websearch.WithResults(2))
		results, err := s.Search(context.Background(), "שאלה")
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(2).Required()
		gt.Value(t, results[0].URL).Equal("https://a.example")
		gt.Value(t, results[1].Snippet).Equal("sb")
	})

	t.Run("missing key returns nothing without calling out", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		results, err := websearch.NewSerper("", websearch.WithEndpoint(srv.URL)).Search(context.Background(), "q")
		gt.NoError(t, err)
		gt.Array(t, results).Length(0)
		gt.Bool(t, called).False()
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := websearch.NewSerper("k", websearch.WithEndpoint(srv.URL)).Search(context.Background(), "q")
		gt.Value(t, err).NotNil()
	})
}
