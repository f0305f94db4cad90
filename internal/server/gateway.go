package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"club-gateway/internal/api"
	"club-gateway/internal/breaker"
	"club-gateway/internal/config"
	"club-gateway/internal/constants"
	"club-gateway/internal/metrics"
	"club-gateway/internal/middleware"
	"club-gateway/internal/service"
)

type GatewayServer struct {
	details   *service.DetailsService
	upstreams *api.Upstreams
	breakers  *breaker.Registry
	metrics   *metrics.Metrics
	bodyLimit int64
}

func NewGatewayServer(
	details *service.DetailsService,
	upstreams *api.Upstreams,
	breakers *breaker.Registry,
	m *metrics.Metrics,
	cfg *config.Config,
) *GatewayServer {
	return &GatewayServer{
		details:   details,
		upstreams: upstreams,
		breakers:  breakers,
		metrics:   m,
		bodyLimit: cfg.BodyLimit,
	}
}

// Handler returns the routing table of the gateway.
func (s *GatewayServer) Handler() http.Handler {
	mux := http.NewServeMux()
	p := constants.APIPrefix

	mux.HandleFunc("GET "+p+"/games/{id}/details", s.GetGameDetails)

	mux.HandleFunc(p+"/players", s.relay(constants.PlayerService, samePath))
	mux.HandleFunc(p+"/players/", s.relay(constants.PlayerService, samePath))

	mux.HandleFunc("POST "+p+"/games", s.relay(constants.GameService, samePath))
	mux.HandleFunc("GET "+p+"/games", s.relay(constants.GameService, samePath))
	mux.HandleFunc("GET "+p+"/games/{id}", s.relay(constants.GameService, samePath))
	mux.HandleFunc("POST "+p+"/games/{id}/participants", s.relay(constants.GameService, samePath))
	mux.HandleFunc("PATCH "+p+"/games/{id}/participants/{playerId}", s.relay(constants.GameService, samePath))
	mux.HandleFunc("DELETE "+p+"/games/{id}/participants/{playerId}", s.relay(constants.GameService, samePath))
	mux.HandleFunc("POST "+p+"/games/{id}/confirm", s.relay(constants.GameService, samePath))
	mux.HandleFunc("POST "+p+"/games/{id}/cancel", s.relay(constants.GameService, samePath))
	mux.HandleFunc("POST "+p+"/games/{id}/reopen", s.relay(constants.GameService, samePath))

	mux.HandleFunc("POST "+p+"/games/{id}/teams/auto-generate", s.relay(constants.TeamService, teamSetsPath("/auto-generate")))
	mux.HandleFunc("GET "+p+"/games/{id}/teams", s.relay(constants.TeamService, teamSetsPath("")))
	mux.HandleFunc("GET "+p+"/games/{id}/teams/locked", s.GetLockedTeamSet)
	mux.HandleFunc("PATCH "+p+"/team-sets/{id}/manual", s.relay(constants.TeamService, samePath))
	mux.HandleFunc("POST "+p+"/team-sets/{id}/lock", s.relay(constants.TeamService, samePath))

	mux.HandleFunc("POST "+p+"/games/{id}/results", s.relay(constants.ResultService, samePath))
	mux.HandleFunc("GET "+p+"/games/{id}/results", s.relay(constants.ResultService, samePath))

	mux.HandleFunc("GET "+p+"/health", s.Health)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

func (s *GatewayServer) GetGameDetails(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.BuildForwardHeaders(r).Get(constants.HeaderRequestID)

	details, err := s.details.GetDetails(r.Context(), r.PathValue("id"), requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// GetLockedTeamSet answers with the locked team set of a game, or null when
// none is locked yet.
func (s *GatewayServer) GetLockedTeamSet(w http.ResponseWriter, r *http.Request) {
	sets, err := s.upstreams.ListTeamSets(r.Context(), r.PathValue("id"), middleware.BuildForwardHeaders(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.LockedTeamSet(sets))
}

func (s *GatewayServer) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"upstreams": s.breakers.Snapshot(constants.Upstreams),
	})
}

// upstreamPath maps an inbound request to the path and query sent upstream.
type upstreamPath func(r *http.Request) string

func samePath(r *http.Request) string {
	path := strings.TrimPrefix(r.URL.EscapedPath(), constants.APIPrefix)
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	return path
}

func teamSetsPath(suffix string) upstreamPath {
	return func(r *http.Request) string {
		return "/games/" + url.PathEscape(r.PathValue("id")) + "/team-sets" + suffix
	}
}

// relay forwards the request as is to upstream and mirrors the answer.
func (s *GatewayServer) relay(upstream string, path upstreamPath) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := s.readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		p, err := s.upstreams.Forward(r.Context(), upstream, r.Method, path(r), middleware.BuildForwardHeaders(r), body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writePayload(w, r, p)
	}
}

func (s *GatewayServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if s.bodyLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}
