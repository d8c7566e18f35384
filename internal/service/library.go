package service

import (
	"context"
	"errors"
	"sort"

	"steam-gamenight/internal/api"
	"steam-gamenight/internal/config"
	"steam-gamenight/internal/constants"
	"steam-gamenight/internal/domain"

	"github.com/rs/zerolog"
)

// SteamAPI is the slice of the Steam client the services depend on.
type SteamAPI interface {
	GetPlayerSummaries(ctx context.Context, steamIDs []string) (*api.PlayerSummariesResponse, error)
	GetFriendList(ctx context.Context, steamID string) (*api.FriendListResponse, error)
	GetOwnedGames(ctx context.Context, steamID string) (*api.OwnedGamesResponse, error)
	GetCurrentPlayers(ctx context.Context, appID int) (*api.CurrentPlayersResponse, error)
	GetAppDetails(ctx context.Context, appID int, countryCode string) (*api.AppDetailsData, error)
	SearchStore(ctx context.Context, term, countryCode string) (*api.StoreSearchResponse, error)
}

var errLibraryPrivate = errors.New("library is private or empty")

type LibraryService struct {
	steam       SteamAPI
	logger      zerolog.Logger
	enrichLimit int
}

func NewLibraryService(steam SteamAPI, cfg *config.Config, logger zerolog.Logger) *LibraryService {
	return &LibraryService{steam: steam, logger: logger, enrichLimit: cfg.EnrichLimit}
}

// LibraryFetchResult is the outcome of folding every reachable library into
// one ownership map. Entries holds one record per app seen in any library;
// SuccessfulFetches is the ratio denominator.
type LibraryFetchResult struct {
	Entries           map[int]*domain.OwnershipEntry
	SuccessfulFetches int
}

// AggregateResult carries the ranked, truncated candidate list.
type AggregateResult struct {
	Candidates        []domain.MatchCandidate
	SuccessfulFetches int
}

// FetchLibraries retrieves each requested player's owned games and folds them
// into a fresh ownership map. A player whose fetch fails, or whose library is
// private, contributes nothing and does not count toward SuccessfulFetches.
// One player's failure never aborts the rest. Pacing between upstream calls
// is handled by the client's limiter.
func (s *LibraryService) FetchLibraries(ctx context.Context, steamIDs []string) *LibraryFetchResult {
	result := &LibraryFetchResult{
		Entries: make(map[int]*domain.OwnershipEntry),
	}

	for _, steamID := range steamIDs {
		games, err := s.fetchOne(ctx, steamID)
		if err != nil {
			s.logger.Warn().Err(err).Str("steamid", steamID).Msg("library fetch failed, skipping player")
			continue
		}

		result.SuccessfulFetches++
		for _, g := range games {
			entry, ok := result.Entries[g.AppID]
			if !ok {
				entry = &domain.OwnershipEntry{
					AppID:           g.AppID,
					PlaytimeByOwner: make(map[string]int),
				}
				result.Entries[g.AppID] = entry
			}
			if _, owned := entry.PlaytimeByOwner[steamID]; !owned {
				entry.Owners = append(entry.Owners, steamID)
			}
			entry.PlaytimeByOwner[steamID] = g.PlaytimeMinutes
		}
		s.logger.Debug().Str("steamid", steamID).Int("game_count", len(games)).Msg("library folded in")
	}

	return result
}

func (s *LibraryService) fetchOne(ctx context.Context, steamID string) ([]domain.OwnedGame, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.steam.GetOwnedGames(apiCtx, steamID)
	if err != nil {
		return nil, err
	}

	// A private library comes back as a 200 with no games field at all.
	if resp.Response.Games == nil {
		return nil, errLibraryPrivate
	}

	games := make([]domain.OwnedGame, 0, len(resp.Response.Games))
	for _, g := range resp.Response.Games {
		games = append(games, domain.OwnedGame{
			AppID:           g.AppID,
			PlaytimeMinutes: g.PlaytimeForever,
		})
	}
	return games, nil
}

// Aggregate runs the full match computation: fetch all libraries, compute
// per-app ownership ratios over the successful fetches, keep apps at or above
// the threshold, rank them, and truncate to the enrichment cap.
func (s *LibraryService) Aggregate(ctx context.Context, steamIDs []string, threshold float64) *AggregateResult {
	fetched := s.FetchLibraries(ctx, steamIDs)

	out := &AggregateResult{SuccessfulFetches: fetched.SuccessfulFetches}
	if fetched.SuccessfulFetches == 0 {
		// Ratio is undefined with a zero denominator.
		return out
	}

	out.Candidates = rankCandidates(fetched, threshold, s.enrichLimit)

	s.logger.Info().
		Int("requested", len(steamIDs)).
		Int("fetched", fetched.SuccessfulFetches).
		Int("tracked_apps", len(fetched.Entries)).
		Int("candidates", len(out.Candidates)).
		Float64("threshold", threshold).
		Msg("aggregation complete")
	return out
}

// rankCandidates filters map entries by ownership ratio and orders them
// descending by owner count, ties broken by ascending appid, so repeated runs
// over the same libraries produce the same list.
func rankCandidates(fetched *LibraryFetchResult, threshold float64, limit int) []domain.MatchCandidate {
	candidates := make([]domain.MatchCandidate, 0, len(fetched.Entries))
	for _, entry := range fetched.Entries {
		ratio := float64(len(entry.Owners)) / float64(fetched.SuccessfulFetches)
		if ratio < threshold {
			continue
		}
		candidates = append(candidates, domain.MatchCandidate{
			AppID:          entry.AppID,
			Owners:         entry.Owners,
			Playtimes:      entry.PlaytimeByOwner,
			OwnershipRatio: ratio,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].Owners) != len(candidates[j].Owners) {
			return len(candidates[i].Owners) > len(candidates[j].Owners)
		}
		return candidates[i].AppID < candidates[j].AppID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
