package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"club-gateway/internal/config"
	"club-gateway/internal/constants"
	"club-gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUpstreams(t *testing.T, mux *http.ServeMux) *Upstreams {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	env := newTestEnv(t, 5, Options{})
	return NewUpstreams(env.client, &config.Config{
		PlayerServiceURL: srv.URL,
		GameServiceURL:   srv.URL + "/",
		TeamServiceURL:   srv.URL,
		ResultServiceURL: srv.URL,
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestUpstreams_GetGame(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "g 1", r.PathValue("id"))
		writeJSON(w, http.StatusOK, `{
			"id": 7,
			"startsAt": "2025-05-01T18:00:00Z",
			"location": "Arena",
			"status": "OPEN",
			"participants": [{"playerId": 1, "inviteStatus": "ACCEPTED", "confirmedAt": null}]
		}`)
	})
	u := newTestUpstreams(t, mux)

	game, err := u.GetGame(context.Background(), "g 1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ID("7"), game.ID)
	assert.Equal(t, "Arena", game.Location)
	require.Len(t, game.Participants, 1)
	assert.Equal(t, domain.ID("1"), game.Participants[0].PlayerID)
}

func TestUpstreams_GetGameNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"Game not found"}`)
	})
	u := newTestUpstreams(t, mux)

	_, err := u.GetGame(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestUpstreams_BatchPlayers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /players/batch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, constants.ContentTypeJSON, r.Header.Get("Content-Type"))
		assert.Equal(t, "req-9", r.Header.Get("X-Request-ID"))

		var req struct {
			IDs []string `json:"ids"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"1", "2"}, req.IDs)

		writeJSON(w, http.StatusOK, `[{"id":1,"nickname":"ace","rating":40},{"id":"2","rating":35.5}]`)
	})
	u := newTestUpstreams(t, mux)

	headers := http.Header{"X-Request-Id": {"req-9"}}
	players, err := u.BatchPlayers(context.Background(), []domain.ID{"1", "2"}, headers)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, domain.ID("1"), players[0].ID)
	assert.InDelta(t, 35.5, players[1].Rating, 1e-9)
	assert.Empty(t, headers.Get("Content-Type"), "caller headers must not be mutated")
}

func TestUpstreams_ListTeamSets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games/{id}/team-sets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"ts1","gameId":"g1","status":"DRAFT","version":2,"teams":[]}]`)
	})
	u := newTestUpstreams(t, mux)

	sets, err := u.ListTeamSets(context.Background(), "g1", nil)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 2, sets[0].Version)
	assert.Equal(t, domain.TeamSetDraft, sets[0].Status)
}

func TestUpstreams_ListTeamSetsWrongShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games/{id}/team-sets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"not":"a list"}`)
	})
	u := newTestUpstreams(t, mux)

	_, err := u.ListTeamSets(context.Background(), "g1", nil)
	requireClientError(t, err, http.StatusBadGateway, CodeInvalidUpstreamPayload)
}

func TestUpstreams_GetResult(t *testing.T) {
	t.Run("recorded", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /games/{id}/results", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"id":"r1","gameId":"g1","format":"SINGLE","lines":[{"id":"l1","teamAId":"a","teamBId":"b","scoreA":3,"scoreB":1}]}`)
		})
		u := newTestUpstreams(t, mux)

		res, err := u.GetResult(context.Background(), "g1", nil)
		require.NoError(t, err)
		require.NotNil(t, res)
		require.Len(t, res.Lines, 1)
		assert.Equal(t, 3, res.Lines[0].ScoreA)
	})

	t.Run("null body", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /games/{id}/results", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `null`)
		})
		u := newTestUpstreams(t, mux)

		res, err := u.GetResult(context.Background(), "g1", nil)
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("not found", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /games/{id}/results", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, `{"message":"Result not found"}`)
		})
		u := newTestUpstreams(t, mux)

		res, err := u.GetResult(context.Background(), "g1", nil)
		assert.Nil(t, res)
		assert.True(t, IsNotFound(err))
	})
}

func TestUpstreams_Forward(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /players/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "active=true", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, string(body))
	})
	u := newTestUpstreams(t, mux)

	p, err := u.Forward(context.Background(), constants.PlayerService, http.MethodPatch, "/players/5?active=true",
		http.Header{"Content-Type": {"application/json"}}, []byte(`{"nickname":"neo"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"nickname":"neo"}`, string(p.Body))

	_, err = u.Forward(context.Background(), "billing-service", http.MethodGet, "/", nil, nil)
	assert.Error(t, err)
}
