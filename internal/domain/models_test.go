package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`"10"`, "10"},
		{`10`, "10"},
		{`"ck9x2"`, "ck9x2"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.want, id)
		})
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &id))
}

func TestParticipantView_FlattensParticipant(t *testing.T) {
	view := ParticipantView{
		Participant: Participant{PlayerID: "10", InviteStatus: "CONFIRMED"},
	}

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{"playerId":"10","inviteStatus":"CONFIRMED","confirmedAt":null,"player":null}`, string(raw))
}
