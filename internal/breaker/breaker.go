// Package breaker keeps one circuit breaker per upstream service.
//
// Admission and outcome reporting are split: Allow is asked before a request
// goes out and the returned done func records how it went. While half-open a
// breaker admits a single trial request; everyone else is rejected until the
// trial reports back.
package breaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"club-gateway/internal/config"
	"club-gateway/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

var ErrUnavailable = errors.New("circuit breaker rejected request")

type State string

const (
	StateClosed   State = "closed"
	StateHalfOpen State = "half-open"
	StateOpen     State = "open"
	StateUnknown  State = "unknown"
)

type Settings struct {
	// FailureThreshold failures inside Window open the breaker.
	FailureThreshold uint32
	// Window is the closed-state counting period. Counts reset at fixed
	// Window intervals rather than rolling. Zero never clears counts.
	Window time.Duration
	// CoolDown is how long an open breaker rejects before allowing a trial.
	CoolDown time.Duration
}

type Registry struct {
	settings Settings
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu       sync.RWMutex
	breakers map[string]*gobreaker.TwoStepCircuitBreaker
}

func NewRegistry(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Registry {
	return New(Settings{
		FailureThreshold: cfg.BreakerFailureThreshold,
		Window:           cfg.BreakerWindow,
		CoolDown:         cfg.BreakerCoolDown,
	}, m, logger)
}

func New(settings Settings, m *metrics.Metrics, logger zerolog.Logger) *Registry {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 1
	}
	return &Registry{
		settings: settings,
		metrics:  m,
		logger:   logger,
		breakers: make(map[string]*gobreaker.TwoStepCircuitBreaker),
	}
}

// Allow admits one request to service. On success the caller must invoke done
// exactly once with the outcome of that request.
func (r *Registry) Allow(service string) (done func(success bool), err error) {
	done, err = r.get(service).Allow()
	if err != nil {
		r.logger.Warn().Str("service", service).Err(err).Msg("circuit breaker rejected request")
		return nil, fmt.Errorf("%s: %w: %w", service, ErrUnavailable, err)
	}
	return done, nil
}

func (r *Registry) State(service string) State {
	r.mu.RLock()
	cb, ok := r.breakers[service]
	r.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	return convertState(cb.State())
}

// Snapshot reports the state of every given service; unseen services are closed.
func (r *Registry) Snapshot(services []string) map[string]State {
	out := make(map[string]State, len(services))
	for _, s := range services {
		out[s] = r.State(s)
	}
	return out
}

func (r *Registry) get(service string) *gobreaker.TwoStepCircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[service]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok = r.breakers[service]; ok {
		return cb
	}

	threshold := r.settings.FailureThreshold
	cb = gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Interval:    r.settings.Window,
		Timeout:     r.settings.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.onStateChange(name, from, to)
		},
	})
	r.breakers[service] = cb
	r.metrics.SetBreakerState(service, stateValue(StateClosed))

	r.logger.Debug().Str("service", service).Msg("created circuit breaker")
	return cb
}

func (r *Registry) onStateChange(service string, from, to gobreaker.State) {
	next := convertState(to)
	r.metrics.SetBreakerState(service, stateValue(next))

	evt := r.logger.Warn()
	if next == StateClosed {
		evt = r.logger.Info()
	}
	evt.Str("service", service).
		Str("from", string(convertState(from))).
		Str("to", string(next)).
		Msg("circuit breaker state changed")
}

func convertState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateUnknown
	}
}

func stateValue(s State) float64 {
	switch s {
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return 0
	}
}
