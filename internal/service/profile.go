package service

import (
	"context"
	"errors"
	"fmt"

	"steam-gamenight/internal/api"
	"steam-gamenight/internal/constants"
	"steam-gamenight/internal/domain"

	"github.com/rs/zerolog"
)

type ProfileService struct {
	steam  SteamAPI
	logger zerolog.Logger
}

func NewProfileService(steam SteamAPI, logger zerolog.Logger) *ProfileService {
	return &ProfileService{steam: steam, logger: logger}
}

// GetUser returns the upstream profile summary untouched; the frontend
// consumes the raw payload.
func (s *ProfileService) GetUser(ctx context.Context, steamID string) (*api.PlayerSummariesResponse, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	summaries, err := s.steam.GetPlayerSummaries(apiCtx, []string{steamID})
	if err != nil {
		s.logger.Error().Err(err).Str("steamid", steamID).Msg("failed to fetch player summary")
		return nil, fmt.Errorf("failed to fetch player summary: %w", err)
	}
	return summaries, nil
}

// GetFriends resolves a player's friend list into displayable entries by
// batching profile summaries for the friend ids. A private friend list reads
// as having no friends, not as an error.
func (s *ProfileService) GetFriends(ctx context.Context, steamID string) ([]domain.Friend, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	listCtx, listCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer listCancel()

	list, err := s.steam.GetFriendList(listCtx, steamID)
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.Private() {
			s.logger.Debug().Str("steamid", steamID).Msg("friend list private, returning empty")
			return []domain.Friend{}, nil
		}
		s.logger.Error().Err(err).Str("steamid", steamID).Msg("failed to fetch friend list")
		return nil, fmt.Errorf("failed to fetch friend list: %w", err)
	}

	entries := list.FriendsList.Friends
	if len(entries) == 0 {
		return []domain.Friend{}, nil
	}

	ids := make([]string, 0, len(entries))
	for _, f := range entries {
		ids = append(ids, f.SteamID)
	}

	summaries, err := s.fetchSummaries(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Str("steamid", steamID).Msg("failed to fetch friend summaries")
		return nil, fmt.Errorf("failed to fetch friend summaries: %w", err)
	}

	friends := make([]domain.Friend, 0, len(entries))
	for _, f := range entries {
		friend := domain.Friend{SteamID: f.SteamID}
		if summary, ok := summaries[f.SteamID]; ok {
			friend.PersonaName = summary.PersonaName
			friend.Avatar = summary.Avatar
		}
		friends = append(friends, friend)
	}

	s.logger.Info().Str("steamid", steamID).Int("count", len(friends)).Msg("friends resolved")
	return friends, nil
}

// fetchSummaries batches GetPlayerSummaries calls, which cap out at 100 ids
// per request.
func (s *ProfileService) fetchSummaries(ctx context.Context, steamIDs []string) (map[string]api.PlayerSummary, error) {
	summaries := make(map[string]api.PlayerSummary, len(steamIDs))

	for start := 0; start < len(steamIDs); start += constants.SummaryBatchSize {
		end := min(start+constants.SummaryBatchSize, len(steamIDs))

		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		resp, err := s.steam.GetPlayerSummaries(apiCtx, steamIDs[start:end])
		cancel()
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Response.Players {
			summaries[p.SteamID] = p
		}
	}
	return summaries, nil
}
