package service

import "club-gateway/internal/domain"

// distinctPlayerIDs returns participant player ids in first-seen order.
func distinctPlayerIDs(participants []domain.Participant) []domain.ID {
	seen := make(map[domain.ID]struct{}, len(participants))
	ids := make([]domain.ID, 0, len(participants))
	for _, p := range participants {
		if _, ok := seen[p.PlayerID]; ok {
			continue
		}
		seen[p.PlayerID] = struct{}{}
		ids = append(ids, p.PlayerID)
	}
	return ids
}

func indexPlayers(players []domain.Player) map[domain.ID]*domain.Player {
	byID := make(map[domain.ID]*domain.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}
	return byID
}

func decorateParticipants(participants []domain.Participant, byID map[domain.ID]*domain.Player) []domain.ParticipantView {
	views := make([]domain.ParticipantView, len(participants))
	for i, p := range participants {
		views[i] = domain.ParticipantView{Participant: p, Player: byID[p.PlayerID]}
	}
	return views
}

// LockedTeamSet returns the first locked set in upstream order.
func LockedTeamSet(sets []domain.TeamSet) *domain.TeamSet {
	for i := range sets {
		if sets[i].Status == domain.TeamSetLocked {
			return &sets[i]
		}
	}
	return nil
}

// SelectTeamSets picks the locked set and, only when nothing is locked, the
// set with the highest version. On equal versions the later set wins.
func SelectTeamSets(sets []domain.TeamSet) (locked, lastDraft *domain.TeamSet) {
	if locked = LockedTeamSet(sets); locked != nil {
		return locked, nil
	}
	for i := range sets {
		if lastDraft == nil || sets[i].Version >= lastDraft.Version {
			lastDraft = &sets[i]
		}
	}
	return nil, lastDraft
}

// withRatingSums returns a copy of set whose teams carry the summed rating of
// their players. Players missing from byID count as zero.
func withRatingSums(set *domain.TeamSet, byID map[domain.ID]*domain.Player) *domain.TeamSet {
	if set == nil {
		return nil
	}
	out := *set
	out.Teams = make([]domain.Team, len(set.Teams))
	for i, team := range set.Teams {
		var sum float64
		for _, tp := range team.Players {
			if p, ok := byID[tp.PlayerID]; ok {
				sum += p.Rating
			}
		}
		team.RatingSum = &sum
		out.Teams[i] = team
	}
	return &out
}
