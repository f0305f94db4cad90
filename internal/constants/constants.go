package constants

import "time"

const (
	PlayerService = "player-service"
	GameService   = "game-service"
	TeamService   = "team-service"
	ResultService = "result-service"
)

// Upstreams lists every service the gateway talks to, in a stable order.
var Upstreams = []string{PlayerService, GameService, TeamService, ResultService}

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"

	ContentTypeJSON = "application/json"
	UserAgent       = "club-gateway/1.0"
)

const (
	IdempotentAttempts    = 2
	NonIdempotentAttempts = 1
)

const (
	UpstreamMaxIdleConnsPerHost = 32
	UpstreamIdleConnTimeout     = 90 * time.Second
	UpstreamKeepAlive           = 30 * time.Second
)

const (
	ServerReadTimeout  = 15 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	APIPrefix = "/api/v1"
)
