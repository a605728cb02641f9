package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
)

func TestCopyMessage(t *testing.T) {
	orig := &model.ChatMessage{
		ID:      model.NewMessageID(),
		Role:    types.RoleAssistant,
		Content: "תשובה",
		Metadata: &model.MessageMetadata{
			Context: []model.ContextChunk{{Title: "a", Source: "note", Content: "x"}},
		},
	}

	copied := model.CopyMessage(orig)
	copied.Metadata.Context[0].Title = "changed"
	gt.Value(t, orig.Metadata.Context[0].Title).Equal("a")
	gt.Value(t, model.CopyMessage(nil)).Nil()
}

func TestTailMessages(t *testing.T) {
	msgs := make([]*model.ChatMessage, 5)
	for i := range msgs {
		msgs[i] = &model.ChatMessage{Seq: int64(i)}
	}

	tail := model.TailMessages(msgs, 2)
	gt.Array(t, tail).Length(2)
	gt.Value(t, tail[0].Seq).Equal(int64(3))
	gt.Array(t, model.TailMessages(msgs, 0)).Length(5)
	gt.Array(t, model.TailMessages(msgs, 10)).Length(5)
}

func TestCosineScore(t *testing.T) {
	gt.Value(t, model.CosineScore(0)).Equal(1.0)
	gt.Value(t, model.CosineScore(2)).Equal(0.0)
	gt.Value(t, model.CosineScore(1)).Equal(0.5)
	gt.Value(t, model.CosineScore(-0.1)).Equal(1.0)
}
