package main

import (
	"context"
	"fmt"
	"net/http"

	"club-gateway/internal/config"
	"club-gateway/internal/constants"
	fxmodules "club-gateway/internal/fx"
	"club-gateway/internal/middleware"
	"club-gateway/internal/server"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	gateway *server.GatewayServer,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{constants.HeaderRequestID},
	})

	handler := middleware.RequestID(logger)(middleware.AccessLog(c.Handler(gateway.Handler())))

	// The gateway enforces BODY_LIMIT itself so oversized bodies get the JSON
	// error envelope; fasthttp only needs to let them through.
	maxBody := fasthttp.DefaultMaxRequestBodySize
	if limit := int(cfg.BodyLimit) + 1; limit > maxBody {
		maxBody = limit
	}

	srv := &fasthttp.Server{
		Handler:            fasthttpadaptor.NewFastHTTPHandler(handler),
		Name:               constants.UserAgent,
		ReadTimeout:        constants.ServerReadTimeout,
		WriteTimeout:       constants.ServerWriteTimeout,
		MaxRequestBodySize: maxBody,
	}
	addr := fmt.Sprintf(":%s", cfg.ServerPort)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", addr).Msg("server starting")
				if err := srv.ListenAndServe(addr); err != nil {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
