package service

import (
	"context"
	"net/http"
	"time"

	"club-gateway/internal/api"
	"club-gateway/internal/config"
	"club-gateway/internal/constants"
	"club-gateway/internal/domain"
	"club-gateway/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Upstreams is the slice of the backing services the details view reads.
type Upstreams interface {
	GetGame(ctx context.Context, gameID string, headers http.Header) (*domain.Game, error)
	BatchPlayers(ctx context.Context, ids []domain.ID, headers http.Header) ([]domain.Player, error)
	ListTeamSets(ctx context.Context, gameID string, headers http.Header) ([]domain.TeamSet, error)
	GetResult(ctx context.Context, gameID string, headers http.Header) (*domain.Result, error)
}

type DetailsService struct {
	upstreams Upstreams
	deadline  time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewDetailsService(upstreams Upstreams, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *DetailsService {
	return &DetailsService{
		upstreams: upstreams,
		deadline:  cfg.DetailsDeadline,
		metrics:   m,
		logger:    logger,
	}
}

type settled[T any] struct {
	value T
	err   error
}

// GetDetails builds the combined view of a game. The game itself is required;
// players, team sets and the result are fetched concurrently and each one
// that fails is replaced by a warning instead of failing the whole view.
func (s *DetailsService) GetDetails(ctx context.Context, gameID, requestID string) (*domain.GameDetails, error) {
	if s.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}

	log := s.logger.With().Str("game_id", gameID).Str("request_id", requestID).Logger()
	headers := http.Header{}
	headers.Set(constants.HeaderRequestID, requestID)

	game, err := s.upstreams.GetGame(ctx, gameID, headers)
	if err != nil {
		log.Debug().Err(err).Msg("game lookup failed")
		return nil, err
	}

	ids := distinctPlayerIDs(game.Participants)

	var (
		players  settled[[]domain.Player]
		teamSets settled[[]domain.TeamSet]
		result   settled[*domain.Result]
		g        errgroup.Group
	)
	if len(ids) > 0 {
		g.Go(func() error {
			players.value, players.err = s.upstreams.BatchPlayers(ctx, ids, headers)
			return nil
		})
	}
	g.Go(func() error {
		teamSets.value, teamSets.err = s.upstreams.ListTeamSets(ctx, gameID, headers)
		return nil
	})
	g.Go(func() error {
		result.value, result.err = s.upstreams.GetResult(ctx, gameID, headers)
		return nil
	})
	_ = g.Wait()

	details := &domain.GameDetails{
		Game: domain.GameSummary{
			ID:       game.ID,
			StartsAt: game.StartsAt,
			Location: game.Location,
			Status:   game.Status,
		},
		Warnings: []domain.Warning{},
	}

	warn := func(service, message string, cause error) {
		log.Warn().Err(cause).Str("service", service).Msg(message)
		s.metrics.IncWarning(service)
		details.Warnings = append(details.Warnings, domain.Warning{
			Service: service,
			Code:    domain.WarningPartialData,
			Message: message,
		})
	}

	if players.err != nil {
		warn(constants.PlayerService, "Players info unavailable", players.err)
		players.value = nil
	}
	if teamSets.err != nil {
		warn(constants.TeamService, "Teams info unavailable", teamSets.err)
	}
	switch {
	case result.err == nil:
		details.Result = result.value
	case api.IsNotFound(result.err):
	default:
		warn(constants.ResultService, "Result info unavailable", result.err)
	}

	byID := indexPlayers(players.value)
	details.Participants = decorateParticipants(game.Participants, byID)

	if teamSets.err == nil {
		locked, lastDraft := SelectTeamSets(teamSets.value)
		details.Teams = &domain.TeamsView{
			LockedTeamSet:    withRatingSums(locked, byID),
			LastDraftTeamSet: withRatingSums(lastDraft, byID),
		}
	}

	log.Debug().
		Int("participants", len(details.Participants)).
		Int("warnings", len(details.Warnings)).
		Msg("game details assembled")

	return details, nil
}
