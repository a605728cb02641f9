package websearch

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

// Searcher runs an external web search
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.WebResult, error)
}

// Mode controls when the chat pipeline consults the web
type Mode string

const (
	ModeOff    Mode = "off"
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOff, ModeAuto, ModeAlways:
		return m, nil
	case "":
		return ModeOff, nil
	default:
		return "", goerr.New("invalid web search mode", goerr.V("mode", s))
	}
}

// opinionPhrases mark questions that ask for an opinion, a comparison or fresh information
var opinionPhrases = []string{
	"מה דעתך",
	"מה אתה חושב",
	"איך היית",
	"מומלץ",
	"השוואה",
	"טוב יותר",
	"עדכני",
	"חדש",
}

// ShouldSearch reports whether question should be sent to the web under mode
func ShouldSearch(mode Mode, question string) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeAuto:
		for _, p := range opinionPhrases {
			if strings.Contains(question, p) {
				return true
			}
		}
	}
	return false
}
