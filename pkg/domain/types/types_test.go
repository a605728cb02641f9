package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.Role
		wantErr bool
	}{
		{name: "user", input: "user", want: types.RoleUser},
		{name: "assistant", input: "assistant", want: types.RoleAssistant},
		{name: "system is rejected", input: "system", wantErr: true},
		{name: "empty is rejected", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseRole(tt.input)
			if tt.wantErr {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestRole_Label(t *testing.T) {
	gt.Value(t, types.RoleUser.Label()).Equal("User")
	gt.Value(t, types.RoleAssistant.Label()).Equal("Assistant")
}

func TestEntityType_IsValid(t *testing.T) {
	for _, e := range types.AllEntityTypes() {
		gt.Bool(t, e.IsValid()).True()
	}
	gt.Bool(t, types.EntityType("risk").IsValid()).False()

	_, err := types.ParseEntityType("unknown")
	gt.Value(t, err).NotNil()
}
