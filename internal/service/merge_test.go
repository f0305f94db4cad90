package service

import (
	"testing"

	"club-gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistinctPlayerIDs(t *testing.T) {
	ids := distinctPlayerIDs([]domain.Participant{
		{PlayerID: "3"}, {PlayerID: "1"}, {PlayerID: "3"}, {PlayerID: "2"}, {PlayerID: "1"},
	})
	assert.Equal(t, []domain.ID{"3", "1", "2"}, ids)
	assert.Empty(t, distinctPlayerIDs(nil))
}

func TestSelectTeamSets(t *testing.T) {
	tests := []struct {
		name       string
		sets       []domain.TeamSet
		wantLocked domain.ID
		wantDraft  domain.ID
	}{
		{name: "empty"},
		{
			name: "first locked wins and hides drafts",
			sets: []domain.TeamSet{
				{ID: "d", Status: domain.TeamSetDraft, Version: 9},
				{ID: "l1", Status: domain.TeamSetLocked, Version: 1},
				{ID: "l2", Status: domain.TeamSetLocked, Version: 2},
			},
			wantLocked: "l1",
		},
		{
			name: "highest version without lock",
			sets: []domain.TeamSet{
				{ID: "a", Status: domain.TeamSetDraft, Version: 3},
				{ID: "b", Status: domain.TeamSetDraft, Version: 7},
				{ID: "c", Status: domain.TeamSetDraft, Version: 5},
			},
			wantDraft: "b",
		},
		{
			name: "later set wins a version tie",
			sets: []domain.TeamSet{
				{ID: "a", Status: domain.TeamSetDraft, Version: 4},
				{ID: "b", Status: domain.TeamSetDraft, Version: 4},
				{ID: "c", Status: domain.TeamSetDraft, Version: 1},
			},
			wantDraft: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locked, draft := SelectTeamSets(tt.sets)
			if tt.wantLocked == "" {
				assert.Nil(t, locked)
			} else {
				require.NotNil(t, locked)
				assert.Equal(t, tt.wantLocked, locked.ID)
			}
			if tt.wantDraft == "" {
				assert.Nil(t, draft)
			} else {
				require.NotNil(t, draft)
				assert.Equal(t, tt.wantDraft, draft.ID)
			}
		})
	}
}

func TestWithRatingSums(t *testing.T) {
	byID := indexPlayers([]domain.Player{{ID: "1", Rating: 12.5}, {ID: "2", Rating: 7}})
	set := &domain.TeamSet{ID: "s", Teams: []domain.Team{
		{ID: "a", Players: []domain.TeamPlayer{{PlayerID: "1"}, {PlayerID: "2"}}},
		{ID: "b", Players: []domain.TeamPlayer{{PlayerID: "missing"}}},
		{ID: "c"},
	}}

	out := withRatingSums(set, byID)
	require.NotNil(t, out)
	require.Len(t, out.Teams, 3)
	assert.InDelta(t, 19.5, *out.Teams[0].RatingSum, 1e-9)
	assert.InDelta(t, 0, *out.Teams[1].RatingSum, 1e-9)
	assert.InDelta(t, 0, *out.Teams[2].RatingSum, 1e-9)

	for _, team := range set.Teams {
		assert.Nil(t, team.RatingSum)
	}
	assert.Nil(t, withRatingSums(nil, byID))
}

func TestDecorateParticipants(t *testing.T) {
	byID := indexPlayers([]domain.Player{{ID: "1", Nickname: "one"}})
	views := decorateParticipants([]domain.Participant{
		{PlayerID: "1", InviteStatus: "ACCEPTED"},
		{PlayerID: "2", InviteStatus: "PENDING"},
	}, byID)

	require.Len(t, views, 2)
	require.NotNil(t, views[0].Player)
	assert.Equal(t, "one", views[0].Player.Nickname)
	assert.Equal(t, "ACCEPTED", views[0].InviteStatus)
	assert.Nil(t, views[1].Player)
}
