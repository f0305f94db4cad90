package fx

import (
	"club-gateway/internal/api"
	"club-gateway/internal/breaker"
	"club-gateway/internal/config"
	"club-gateway/internal/logger"
	"club-gateway/internal/metrics"
	"club-gateway/internal/server"
	"club-gateway/internal/service"

	"go.uber.org/fx"
)

func ProvideDetailsUpstreams(u *api.Upstreams) service.Upstreams {
	return u
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(metrics.New),
	// resilience
	fx.Provide(breaker.NewRegistry),
	// api client
	fx.Provide(api.NewClient),
	fx.Provide(api.NewUpstreams),
	fx.Provide(ProvideDetailsUpstreams),
	// svc
	fx.Provide(service.NewDetailsService),
	// server
	fx.Provide(server.NewGatewayServer),
)
