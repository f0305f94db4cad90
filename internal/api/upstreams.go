package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"club-gateway/internal/config"
	"club-gateway/internal/constants"
	"club-gateway/internal/domain"
)

// Upstreams knows where each backing service lives and exposes the endpoints
// the gateway consumes as typed calls.
type Upstreams struct {
	client *Client
	bases  map[string]string
}

func NewUpstreams(client *Client, cfg *config.Config) *Upstreams {
	return &Upstreams{
		client: client,
		bases: map[string]string{
			constants.PlayerService: strings.TrimRight(cfg.PlayerServiceURL, "/"),
			constants.GameService:   strings.TrimRight(cfg.GameServiceURL, "/"),
			constants.TeamService:   strings.TrimRight(cfg.TeamServiceURL, "/"),
			constants.ResultService: strings.TrimRight(cfg.ResultServiceURL, "/"),
		},
	}
}

func (u *Upstreams) GetGame(ctx context.Context, gameID string, headers http.Header) (*domain.Game, error) {
	return doJSON[domain.Game](ctx, u.client, Call{
		Service: constants.GameService,
		Method:  http.MethodGet,
		URL:     u.url(constants.GameService, "/games/%s", gameID),
		Headers: headers,
	})
}

// BatchPlayers loads the players with the given ids in one request. Unknown
// ids are simply absent from the answer.
func (u *Upstreams) BatchPlayers(ctx context.Context, ids []domain.ID, headers http.Header) ([]domain.Player, error) {
	body, err := json.Marshal(struct {
		IDs []domain.ID `json:"ids"`
	}{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("marshal batch request: %w", err)
	}

	h := headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	players, err := doJSON[[]domain.Player](ctx, u.client, Call{
		Service: constants.PlayerService,
		Method:  http.MethodPost,
		URL:     u.url(constants.PlayerService, "/players/batch"),
		Headers: h,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	return *players, nil
}

func (u *Upstreams) ListTeamSets(ctx context.Context, gameID string, headers http.Header) ([]domain.TeamSet, error) {
	sets, err := doJSON[[]domain.TeamSet](ctx, u.client, Call{
		Service: constants.TeamService,
		Method:  http.MethodGet,
		URL:     u.url(constants.TeamService, "/games/%s/team-sets", gameID),
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}
	return *sets, nil
}

// GetResult returns the recorded result of a game. A game without a result
// yields an UPSTREAM_4XX 404 error (see IsNotFound), which does not count
// against the result service's breaker. An empty or null body yields nil.
func (u *Upstreams) GetResult(ctx context.Context, gameID string, headers http.Header) (*domain.Result, error) {
	p, err := u.client.Forward(ctx, Call{
		Service:    constants.ResultService,
		Method:     http.MethodGet,
		URL:        u.url(constants.ResultService, "/games/%s/results", gameID),
		Headers:    headers,
		NotFoundOK: true,
	})
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(p.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var result domain.Result
	if err := p.Decode(&result); err != nil {
		return nil, invalidPayload(constants.ResultService, err)
	}
	return &result, nil
}

// Forward relays an arbitrary request to service. pathAndQuery is appended to
// the service base URL as is.
func (u *Upstreams) Forward(ctx context.Context, service, method, pathAndQuery string, headers http.Header, body []byte) (*Payload, error) {
	base, ok := u.bases[service]
	if !ok {
		return nil, fmt.Errorf("unknown upstream service %q", service)
	}
	return u.client.Forward(ctx, Call{
		Service: service,
		Method:  method,
		URL:     base + pathAndQuery,
		Headers: headers,
		Body:    body,
	})
}

func (u *Upstreams) url(service, format string, args ...string) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(a)
	}
	return u.bases[service] + fmt.Sprintf(format, escaped...)
}

func doJSON[T any](ctx context.Context, client *Client, call Call) (*T, error) {
	p, err := client.Forward(ctx, call)
	if err != nil {
		return nil, err
	}

	var result T
	if err := p.Decode(&result); err != nil {
		return nil, invalidPayload(call.Service, err)
	}
	return &result, nil
}
