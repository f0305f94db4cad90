package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a record identifier. Upstreams are not consistent about sending ids
// as strings or numbers, so both are accepted.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

const (
	TeamSetLocked = "LOCKED"
	TeamSetDraft  = "DRAFT"
)

type Game struct {
	ID           ID            `json:"id"`
	StartsAt     string        `json:"startsAt"`
	Location     string        `json:"location"`
	Status       string        `json:"status"`
	Participants []Participant `json:"participants"`
}

type Participant struct {
	PlayerID     ID      `json:"playerId"`
	InviteStatus string  `json:"inviteStatus"`
	ConfirmedAt  *string `json:"confirmedAt"`
}

type Player struct {
	ID              ID      `json:"id"`
	Nickname        string  `json:"nickname"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	ShirtNumber     int     `json:"shirtNumber"`
	Rating          float64 `json:"rating"`
	PositionOnField string  `json:"positionOnField"`
	DeletedAt       *string `json:"deletedAt,omitempty"`
}

type TeamSet struct {
	ID      ID     `json:"id"`
	GameID  ID     `json:"gameId"`
	Mode    string `json:"mode"`
	Status  string `json:"status"`
	Version int    `json:"version"`
	Teams   []Team `json:"teams"`
}

type Team struct {
	ID         ID           `json:"id"`
	Name       string       `json:"name"`
	OrderIndex int          `json:"orderIndex"`
	Players    []TeamPlayer `json:"players"`
	RatingSum  *float64     `json:"ratingSum,omitempty"`
}

type TeamPlayer struct {
	ID       ID `json:"id"`
	TeamID   ID `json:"teamId"`
	PlayerID ID `json:"playerId"`
}

type Result struct {
	ID     ID           `json:"id"`
	GameID ID           `json:"gameId"`
	Format string       `json:"format"`
	Lines  []ResultLine `json:"lines"`
}

type ResultLine struct {
	ID      ID  `json:"id"`
	TeamAID ID  `json:"teamAId"`
	TeamBID ID  `json:"teamBId"`
	ScoreA  int `json:"scoreA"`
	ScoreB  int `json:"scoreB"`
}

// aggregate view

type GameDetails struct {
	Game         GameSummary       `json:"game"`
	Participants []ParticipantView `json:"participants"`
	Teams        *TeamsView        `json:"teams"`
	Result       *Result           `json:"result"`
	Warnings     []Warning         `json:"warnings"`
}

type GameSummary struct {
	ID       ID     `json:"id"`
	StartsAt string `json:"startsAt"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

type ParticipantView struct {
	Participant
	Player *Player `json:"player"`
}

type TeamsView struct {
	LockedTeamSet    *TeamSet `json:"lockedTeamSet"`
	LastDraftTeamSet *TeamSet `json:"lastDraftTeamSet"`
}

const WarningPartialData = "PARTIAL_DATA"

type Warning struct {
	Service string `json:"service"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
