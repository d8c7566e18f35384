package service

import (
	"context"

	"steam-gamenight/internal/constants"
	"steam-gamenight/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type SharedGamesService struct {
	library *LibraryService
	enrich  *EnrichService
	logger  zerolog.Logger
}

func NewSharedGamesService(library *LibraryService, enrich *EnrichService, logger zerolog.Logger) *SharedGamesService {
	return &SharedGamesService{library: library, enrich: enrich, logger: logger}
}

// SharedGamesResult is the orchestrator's response: the enriched match list
// plus the counts a caller needs to judge confidence in it. RequestedCount is
// always the size of the input list; FetchedCount is how many of those
// libraries were actually readable.
type SharedGamesResult struct {
	Games          []domain.EnrichedGame
	FetchedCount   int
	RequestedCount int
}

// FindSharedGames is the end-to-end group matching operation: fetch every
// library, aggregate and rank shared ownership, then enrich the surviving
// candidates. Partial data always beats an error; the only way this fails is
// a cancelled context.
func (s *SharedGamesService) FindSharedGames(ctx context.Context, steamIDs []string, threshold float64, countryCode string) (*SharedGamesResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	logger := s.jobLogger()
	logger.Info().
		Strs("steamids", steamIDs).
		Float64("threshold", threshold).
		Str("cc", countryCode).
		Msg("finding shared games")

	agg := s.library.Aggregate(ctx, steamIDs, threshold)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SharedGamesResult{
		Games:          []domain.EnrichedGame{},
		FetchedCount:   agg.SuccessfulFetches,
		RequestedCount: len(steamIDs),
	}
	if len(agg.Candidates) == 0 {
		logger.Info().Int("fetched", agg.SuccessfulFetches).Msg("no candidates to enrich")
		return result, nil
	}

	result.Games = s.enrich.EnrichAll(ctx, agg.Candidates, countryCode)
	attachNonOwners(result.Games, steamIDs)

	logger.Info().
		Int("games", len(result.Games)).
		Int("fetched", result.FetchedCount).
		Int("requested", result.RequestedCount).
		Msg("shared games ready")
	return result, nil
}

// SearchResult is the response of the by-name search: no confidence counts,
// no ranking cap, just the store hits with the group's ownership attached.
type SearchResult struct {
	Games []domain.EnrichedGame
}

// SearchSharedGames looks a title up in the storefront and reports, for each
// hit, which of the requested players own it. The group's libraries are
// fetched once and reused across hits; a hit nobody owns still comes back,
// with every requested player as a non-owner.
func (s *SharedGamesService) SearchSharedGames(ctx context.Context, query string, steamIDs []string, countryCode string) (*SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	logger := s.jobLogger()
	logger.Info().Str("query", query).Strs("steamids", steamIDs).Msg("searching store for group")

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()
	found, err := s.library.steam.SearchStore(apiCtx, query, countryCode)
	if err != nil {
		logger.Error().Err(err).Str("query", query).Msg("store search failed")
		return nil, err
	}

	fetched := s.library.FetchLibraries(ctx, steamIDs)

	candidates := make([]domain.MatchCandidate, 0, len(found.Items))
	for _, item := range found.Items {
		candidate := domain.MatchCandidate{
			AppID:     item.ID,
			Owners:    []string{},
			Playtimes: map[string]int{},
		}
		if entry, ok := fetched.Entries[item.ID]; ok {
			candidate.Owners = entry.Owners
			candidate.Playtimes = entry.PlaytimeByOwner
			if fetched.SuccessfulFetches > 0 {
				candidate.OwnershipRatio = float64(len(entry.Owners)) / float64(fetched.SuccessfulFetches)
			}
		}
		candidates = append(candidates, candidate)
	}

	games := s.enrich.EnrichAll(ctx, candidates, countryCode)
	attachNonOwners(games, steamIDs)

	logger.Info().Int("hits", len(found.Items)).Int("games", len(games)).Msg("store search complete")
	return &SearchResult{Games: games}, nil
}

// jobLogger tags every line of one aggregation run with a short job id so
// interleaved runs can be told apart in the logs.
func (s *SharedGamesService) jobLogger() zerolog.Logger {
	jobID, err := gonanoid.New()
	if err != nil {
		return s.logger
	}
	return s.logger.With().Str("job_id", jobID).Logger()
}

// attachNonOwners fills each game's NonOwners with the requested ids that are
// not among its owners, preserving request order. Owners and NonOwners
// partition the requested list.
func attachNonOwners(games []domain.EnrichedGame, steamIDs []string) {
	for i := range games {
		owned := make(map[string]bool, len(games[i].Owners))
		for _, o := range games[i].Owners {
			owned[o] = true
		}
		nonOwners := make([]string, 0, len(steamIDs))
		for _, id := range steamIDs {
			if !owned[id] {
				nonOwners = append(nonOwners, id)
				owned[id] = true
			}
		}
		games[i].NonOwners = nonOwners
	}
}
