package service

import (
	"context"

	"steam-gamenight/internal/api"
	"steam-gamenight/internal/constants"
	"steam-gamenight/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AppDetailsCache is the storefront-metadata cache the enricher reads
// through. Get returns (nil, nil) on a miss or expired row.
type AppDetailsCache interface {
	Get(ctx context.Context, appID int, countryCode string) (*domain.AppDetails, error)
	Put(ctx context.Context, details *domain.AppDetails, countryCode string) error
}

type EnrichService struct {
	steam  SteamAPI
	cache  AppDetailsCache
	logger zerolog.Logger
}

func NewEnrichService(steam SteamAPI, cache AppDetailsCache, logger zerolog.Logger) *EnrichService {
	return &EnrichService{steam: steam, cache: cache, logger: logger}
}

// EnrichAll fans out across candidates, attaching storefront metadata and the
// live player count to each. A candidate whose metadata lookup fails is
// dropped; a failed player-count lookup degrades to 0. Output order follows
// input order so the aggregator's ranking survives, with dropped candidates
// removed rather than left as holes.
func (s *EnrichService) EnrichAll(ctx context.Context, candidates []domain.MatchCandidate, countryCode string) []domain.EnrichedGame {
	results := make([]*domain.EnrichedGame, len(candidates))

	// Plain group, not WithContext: one candidate's failure must not cancel
	// its siblings.
	g := new(errgroup.Group)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			enriched, err := s.enrichOne(ctx, candidate, countryCode)
			if err != nil {
				s.logger.Debug().Err(err).Int("appid", candidate.AppID).Msg("dropping candidate, enrichment failed")
				return nil
			}
			results[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	games := make([]domain.EnrichedGame, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			games = append(games, *r)
		}
	}
	return games
}

func (s *EnrichService) enrichOne(ctx context.Context, candidate domain.MatchCandidate, countryCode string) (*domain.EnrichedGame, error) {
	details, err := s.appDetails(ctx, candidate.AppID, countryCode)
	if err != nil {
		return nil, err
	}

	return &domain.EnrichedGame{
		AppID:            candidate.AppID,
		Name:             details.Name,
		HeaderImage:      details.HeaderImage,
		ShortDescription: details.ShortDescription,
		Developers:       details.Developers,
		Genres:           details.Genres,
		IsFree:           details.IsFree,
		PlayerCount:      s.currentPlayers(ctx, candidate.AppID),
		Owners:           candidate.Owners,
		Playtimes:        candidate.Playtimes,
	}, nil
}

// appDetails reads through the cache. Cache failures are logged and ignored
// so a broken cache only costs us storefront calls, never a request.
func (s *EnrichService) appDetails(ctx context.Context, appID int, countryCode string) (*domain.AppDetails, error) {
	cached, err := s.cache.Get(ctx, appID, countryCode)
	if err != nil {
		s.logger.Warn().Err(err).Int("appid", appID).Msg("app details cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	data, err := s.steam.GetAppDetails(apiCtx, appID, countryCode)
	if err != nil {
		return nil, err
	}

	details := &domain.AppDetails{
		AppID:            appID,
		Name:             data.Name,
		HeaderImage:      data.HeaderImage,
		ShortDescription: data.ShortDescription,
		Developers:       data.Developers,
		Genres:           genreNames(data.Genres),
		IsFree:           data.IsFree,
	}

	if err := s.cache.Put(ctx, details, countryCode); err != nil {
		s.logger.Warn().Err(err).Int("appid", appID).Msg("app details cache write failed")
	}
	return details, nil
}

// currentPlayers is best effort: an unreachable or unlisted counter reads
// as zero players.
func (s *EnrichService) currentPlayers(ctx context.Context, appID int) int {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.steam.GetCurrentPlayers(apiCtx, appID)
	if err != nil {
		s.logger.Debug().Err(err).Int("appid", appID).Msg("player count unavailable, defaulting to 0")
		return 0
	}
	if resp.Response.PlayerCount < 0 {
		return 0
	}
	return resp.Response.PlayerCount
}

func genreNames(genres []api.Genre) []string {
	if len(genres) == 0 {
		return nil
	}
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Description)
	}
	return names
}
