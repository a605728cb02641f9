package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/safe"
)

const (
	DefaultSerperURL = "https://google.serper.dev/search"
	DefaultResults   = 3
)

// Serper searches Google through the Serper API
type Serper struct {
	apiKey     string
	endpoint   string
	num        int
	httpClient *http.Client
}

var _ Searcher = &Serper{}

type Option func(*Serper)

func WithEndpoint(url string) Option {
	return func(s *Serper) {
		s.endpoint = url
	}
}

func WithResults(n int) Option {
	return func(s *Serper) {
		s.num = n
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Serper) {
		s.httpClient = c
	}
}

func NewSerper(apiKey string, opts ...Option) *Serper {
	s := &Serper{
		apiKey:     apiKey,
		endpoint:   DefaultSerperURL,
		num:        DefaultResults,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s *Serper) Search(ctx context.Context, query string) ([]model.WebResult, error) {
	if s.apiKey == "" {
		return nil, nil
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: s.num})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal serper request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create serper request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call serper")
	}
	defer safe.DrainClose(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New(fmt.Sprintf("serper returned status %d", resp.StatusCode))
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, goerr.Wrap(err, "failed to decode serper response")
	}

	results := make([]model.WebResult, 0, min(len(sr.Organic), s.num))
	for _, o := range sr.Organic {
		if len(results) == s.num {
			break
		}
		results = append(results, model.WebResult{
			Title:   o.Title,
			URL:     o.Link,
			Snippet: o.Snippet,
		})
	}
	return results, nil
}
