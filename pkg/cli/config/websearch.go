package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/service/websearch"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// WebSearch holds CLI flags for the external search provider
type WebSearch struct {
	mode         string
	serperAPIKey string
	results      int
}

func (x *WebSearch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "web-search-mode",
			Category:    "Web search",
			Usage:       "When to query the web (off, auto, always)",
			Value:       string(websearch.ModeOff),
			Sources:     cli.EnvVars("TASKDESK_WEB_SEARCH_MODE"),
			Destination: &x.mode,
		},
		&cli.StringFlag{
			Name:        "serper-api-key",
			Category:    "Web search",
			Usage:       "Serper API key",
			Sources:     cli.EnvVars("TASKDESK_SERPER_API_KEY"),
			Destination: &x.serperAPIKey,
		},
		&cli.IntFlag{
			Name:        "web-search-results",
			Category:    "Web search",
			Usage:       "Number of web results requested",
			Value:       websearch.DefaultResults,
			Sources:     cli.EnvVars("TASKDESK_WEB_SEARCH_RESULTS"),
			Destination: &x.results,
		},
	}
}

func (x *WebSearch) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("mode", x.mode),
		slog.Bool("serper_api_key_set", x.serperAPIKey != ""),
		slog.Int("results", x.results),
	}
}

// Configure returns the searcher and the effective mode. A mode other than off without an API
// key falls back to off.
func (x *WebSearch) Configure() (websearch.Searcher, websearch.Mode, error) {
	mode, err := websearch.ParseMode(x.mode)
	if err != nil {
		return nil, websearch.ModeOff, goerr.Wrap(err, "invalid web search configuration")
	}
	if mode == websearch.ModeOff {
		return nil, mode, nil
	}
	if x.serperAPIKey == "" {
		logging.Default().Warn("web search requested without serper-api-key, disabling", "mode", mode)
		return nil, websearch.ModeOff, nil
	}

	return websearch.NewSerper(x.serperAPIKey, websearch.WithResults(x.results)), mode, nil
}
