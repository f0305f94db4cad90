package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"club-gateway/internal/breaker"
	"club-gateway/internal/config"
	"club-gateway/internal/constants"
	"club-gateway/internal/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

var errBodyTimeout = errors.New("timed out receiving response body")

// Call is one logical request to a named upstream service.
type Call struct {
	Service string
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
	// NotFoundOK reports a 404 to the breaker as a healthy answer. The caller
	// still receives an UPSTREAM_4XX error.
	NotFoundOK bool
}

type Options struct {
	HeaderTimeout    time.Duration
	BodyTimeout      time.Duration
	MaxResponseBytes int64
}

// Client sends requests to upstream services through their circuit breakers,
// retrying idempotent calls once on server errors and transport failures.
type Client struct {
	http     *resty.Client
	breakers *breaker.Registry
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	opts     Options
}

func NewClient(cfg *config.Config, breakers *breaker.Registry, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return New(Options{
		HeaderTimeout:    cfg.HeaderTimeout,
		BodyTimeout:      cfg.BodyTimeout,
		MaxResponseBytes: cfg.MaxResponseBytes,
	}, breakers, m, logger)
}

func New(opts Options, breakers *breaker.Registry, m *metrics.Metrics, logger zerolog.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.HeaderTimeout,
			KeepAlive: constants.UpstreamKeepAlive,
		}).DialContext,
		ResponseHeaderTimeout: opts.HeaderTimeout,
		MaxIdleConnsPerHost:   constants.UpstreamMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.UpstreamIdleConnTimeout,
	}

	// Upstream cookies belong to whichever caller triggered them; keeping a jar
	// would replay them on later requests for other callers.
	rc := resty.New().
		SetCookieJar(nil).
		SetTransport(transport).
		SetLogger(restyLogger{logger: logger}).
		SetHeader("User-Agent", constants.UserAgent)

	return &Client{
		http:     rc,
		breakers: breakers,
		metrics:  m,
		logger:   logger,
		opts:     opts,
	}
}

type attemptResult struct {
	payload *Payload
	// err is a classified failure; cause an unclassified transport failure.
	err       *ClientError
	cause     error
	healthy   bool
	retryable bool
	outcome   string
}

// Forward performs call and returns the parsed body of a 2xx response. Any
// other outcome is returned as a *ClientError.
func (c *Client) Forward(ctx context.Context, call Call) (*Payload, error) {
	call.Method = strings.ToUpper(call.Method)
	attempts := constants.NonIdempotentAttempts
	if call.Method == http.MethodGet || call.Method == http.MethodHead {
		attempts = constants.IdempotentAttempts
	}

	var (
		lastErr   *ClientError
		lastCause error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		state := c.breakers.State(call.Service)
		done, err := c.breakers.Allow(call.Service)
		if err != nil {
			c.metrics.ObserveAttempt(call.Service, metrics.OutcomeRejected, 0)
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, unavailable(call.Service, err)
		}

		start := time.Now()
		res := c.do(ctx, call)
		done(c.breakerOutcome(ctx, call.Service, state, res))
		c.metrics.ObserveAttempt(call.Service, res.outcome, time.Since(start))

		c.logger.Debug().
			Str("service", call.Service).
			Str("method", call.Method).
			Str("url", call.URL).
			Int("attempt", attempt).
			Str("outcome", res.outcome).
			Dur("elapsed", time.Since(start)).
			Msg("upstream attempt")

		if res.err == nil && res.cause == nil {
			return res.payload, nil
		}
		if res.err != nil {
			lastErr = res.err
		} else {
			lastCause = res.cause
		}

		if !res.retryable || attempt == attempts || ctx.Err() != nil {
			break
		}

		c.logger.Warn().
			Str("service", call.Service).
			Str("method", call.Method).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Str("outcome", res.outcome).
			Msg("retrying upstream call")
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, unavailable(call.Service, lastCause)
}

func (c *Client) do(ctx context.Context, call Call) attemptResult {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	for key, values := range call.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if call.Body != nil {
		req.SetBody(call.Body)
	}

	resp, err := req.Execute(call.Method, call.URL)
	if err != nil {
		return attemptResult{cause: err, retryable: true, outcome: metrics.OutcomeTransportError}
	}
	body := resp.RawBody()
	defer body.Close()

	timer := time.AfterFunc(c.opts.BodyTimeout, func() { cancel(errBodyTimeout) })
	defer timer.Stop()

	// A HEAD response announces the length of a body it never sends.
	declared := resp.RawResponse.ContentLength
	if call.Method == http.MethodHead {
		declared = -1
	}
	raw, err := readLimited(body, declared, c.opts.MaxResponseBytes)
	if errors.Is(err, errTooLarge) {
		return attemptResult{
			err:     payloadTooLarge(call.Service, c.opts.MaxResponseBytes),
			outcome: metrics.OutcomePayloadTooLarge,
		}
	}
	if err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errBodyTimeout) {
			err = fmt.Errorf("%w: %w", errBodyTimeout, err)
		}
		return attemptResult{cause: err, retryable: true, outcome: metrics.OutcomeTransportError}
	}

	status := resp.StatusCode()
	payload, perr := parsePayload(status, resp.Header().Get(constants.HeaderContentType), raw)

	switch {
	case status >= 200 && status < 300:
		if perr != nil {
			return attemptResult{err: invalidPayload(call.Service, perr), outcome: metrics.OutcomeInvalidPayload}
		}
		return attemptResult{payload: payload, healthy: true, outcome: metrics.OutcomeSuccess}
	case status >= 400 && status < 500:
		return attemptResult{
			err:     upstream4xx(call.Service, status, payload.Value()),
			healthy: call.NotFoundOK && status == http.StatusNotFound,
			outcome: metrics.OutcomeUpstream4xx,
		}
	default:
		return attemptResult{
			err:       upstream5xx(call.Service, status, payload.Value()),
			retryable: true,
			outcome:   metrics.OutcomeUpstream5xx,
		}
	}
}

// breakerOutcome is the result reported for an admitted attempt. ctx is the
// caller's context; the body timeout only cancels the per-attempt child, so
// it still counts as a failure here. An attempt abandoned by the caller says
// nothing about the upstream and is not held against a closed breaker. A
// half-open trial has to resolve and keeps its real outcome.
func (c *Client) breakerOutcome(ctx context.Context, service string, admitted breaker.State, res attemptResult) bool {
	if res.healthy || res.cause == nil || ctx.Err() == nil {
		return res.healthy
	}
	if admitted != breaker.StateClosed {
		return false
	}
	c.logger.Debug().
		Str("service", service).
		Err(context.Cause(ctx)).
		Msg("caller cancelled upstream attempt")
	return true
}

type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error().Msgf(strings.TrimSpace(format), v...)
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), v...)
}
