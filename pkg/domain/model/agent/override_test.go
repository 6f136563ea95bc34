package agent_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
)

func TestOverride_EmptyListIsNotInherit(t *testing.T) {
	type holder struct {
		ToolIDs agent.Override[[]string] `json:"tool_ids"`
	}

	t.Run("explicit empty list stays set", func(t *testing.T) {
		raw, err := json.Marshal(holder{ToolIDs: agent.Set([]string{})})
		gt.NoError(t, err)
		gt.Equal(t, string(raw), `{"tool_ids":[]}`)

		var decoded holder
		gt.NoError(t, json.Unmarshal(raw, &decoded))
		v, ok := decoded.ToolIDs.Get()
		gt.True(t, ok)
		gt.A(t, v).Length(0)
	})

	t.Run("inherit encodes as null", func(t *testing.T) {
		raw, err := json.Marshal(holder{ToolIDs: agent.Inherit[[]string]()})
		gt.NoError(t, err)
		gt.Equal(t, string(raw), `{"tool_ids":null}`)

		var decoded holder
		gt.NoError(t, json.Unmarshal(raw, &decoded))
		gt.False(t, decoded.ToolIDs.IsSet())
	})

	t.Run("missing field is inherit", func(t *testing.T) {
		var decoded holder
		gt.NoError(t, json.Unmarshal([]byte(`{}`), &decoded))
		gt.False(t, decoded.ToolIDs.IsSet())
	})
}

func TestOverride_ZeroScalarIsSet(t *testing.T) {
	o := agent.Set(0.0)
	v, ok := o.Get()
	gt.True(t, ok)
	gt.Equal(t, v, 0.0)
}
