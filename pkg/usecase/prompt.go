package usecase

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

//go:embed prompt/system.md
var systemPromptText string

//go:embed prompt/user.md
var userPromptTmpl string

var userPrompt = template.Must(template.New("user").Funcs(template.FuncMap{
	"inc":    func(i int) int { return i + 1 },
	"squash": text.NormalizeWhitespace,
}).Parse(userPromptTmpl))

// Prompt is a model-ready request
type Prompt struct {
	System string
	User   string
}

type userPromptData struct {
	Question string
	History  []*model.ChatMessage
	Context  []model.ContextChunk
	Web      []model.WebResult
}

// BuildPrompt renders the system instructions and the user request. It has no side effects;
// callers pass the history window they want rendered.
func BuildPrompt(question string, history []*model.ChatMessage, chunks []model.ContextChunk, web []model.WebResult) (*Prompt, error) {
	var buf bytes.Buffer
	data := userPromptData{
		Question: question,
		History:  history,
		Context:  chunks,
		Web:      web,
	}
	if err := userPrompt.Execute(&buf, data); err != nil {
		return nil, goerr.Wrap(err, "failed to execute user prompt template")
	}

	return &Prompt{
		System: text.NormalizeWhitespace(systemPromptText),
		User:   string(bytes.TrimSpace(buf.Bytes())),
	}, nil
}
