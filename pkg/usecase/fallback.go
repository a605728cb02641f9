package usecase

import (
	"strings"

	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

const (
	fallbackContextItems = 4
	fallbackContextRunes = 200
	fallbackWebItems     = 2
	fallbackWebRunes     = 160

	fallbackHeader = "מצאתי מידע קשור במערכת:"
	fallbackFooter = "אם תרצה שאנסה מודל נוסף, שלח את השאלה שוב בעוד כמה רגעים."

	// NoInformationAnswer is returned when neither internal context nor web results exist
	NoInformationAnswer = "לא מצאתי מידע רלוונטי עדיין. נסה לנסח אחרת או להוסיף פרטים."
)

// FallbackAnswer builds an extractive answer from the retrieved material without calling a
// model. It never returns an empty string.
func FallbackAnswer(chunks []model.ContextChunk, web []model.WebResult) string {
	var bullets []string
	for _, c := range chunks[:min(len(chunks), fallbackContextItems)] {
		bullets = append(bullets, "• "+c.Title+" ("+c.Source+"): "+
			text.Truncate(text.NormalizeWhitespace(c.Content), fallbackContextRunes))
	}
	for _, r := range web[:min(len(web), fallbackWebItems)] {
		bullets = append(bullets, "• "+r.Title+": "+
			text.Truncate(text.NormalizeWhitespace(r.Snippet), fallbackWebRunes))
	}

	if len(bullets) == 0 {
		return NoInformationAnswer
	}

	lines := make([]string, 0, len(bullets)+2)
	lines = append(lines, fallbackHeader)
	lines = append(lines, bullets...)
	lines = append(lines, fallbackFooter)
	return strings.Join(lines, "\n")
}
