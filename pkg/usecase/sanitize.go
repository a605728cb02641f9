package usecase

import (
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

const (
	numericAnswerPrefix = "הערך הוא "
	tableAnswerPrefix   = "על בסיס המידע הקיים: "

	// RefusalAnswer is the last resort when nothing can be said in the target script
	RefusalAnswer = "לא הצלחתי לנסח תשובה בעברית על סמך המידע הקיים."
)

// EnforceLanguage guarantees that an answer is written in the target script. The first step of
// the chain that yields usable text wins; the path reports whether the raw answer survived.
func EnforceLanguage(script *text.Script, raw string, chunks []model.ContextChunk, web []model.WebResult) (string, bool) {
	clean := script.Restrict(text.StripMarkup(raw))
	if usable(script, clean) {
		return clean, true
	}

	if clean != "" && !script.Contains(clean) && text.IsNumeric(clean) {
		return numericAnswerPrefix + clean, false
	}

	for _, c := range chunks {
		if c.Source == model.SourceTable {
			return tableAnswerPrefix + text.NormalizeWhitespace(c.Content), false
		}
	}

	if fallback := script.Restrict(FallbackAnswer(chunks, web)); usable(script, fallback) {
		return fallback, false
	}

	return RefusalAnswer, false
}

func usable(script *text.Script, v string) bool {
	return script.Contains(v) && len([]rune(v)) > 1
}
