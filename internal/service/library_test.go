package service

import (
	"context"
	"sort"
	"testing"

	"steam-gamenight/internal/api"
	"steam-gamenight/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibraryService(steam SteamAPI, enrichLimit int) *LibraryService {
	cfg := &config.Config{EnrichLimit: enrichLimit, DefaultThreshold: 0.8}
	return NewLibraryService(steam, cfg, zerolog.Nop())
}

func ownedGame(appID, playtime int) api.OwnedGame {
	return api.OwnedGame{AppID: appID, PlaytimeForever: playtime}
}

func TestAggregateSharedOwnership(t *testing.T) {
	steam := &fakeSteam{
		owned: map[string][]api.OwnedGame{
			"A": {ownedGame(42, 120), ownedGame(7, 30)},
			"B": {ownedGame(42, 600)},
		},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A", "B"}, 0.8)

	require.Equal(t, 2, result.SuccessfulFetches)
	require.Len(t, result.Candidates, 1)

	candidate := result.Candidates[0]
	assert.Equal(t, 42, candidate.AppID)
	assert.Equal(t, 1.0, candidate.OwnershipRatio)
	assert.ElementsMatch(t, []string{"A", "B"}, candidate.Owners)
	assert.Equal(t, map[string]int{"A": 120, "B": 600}, candidate.Playtimes)
}

func TestAggregateFailedFetchShrinksDenominator(t *testing.T) {
	// A and B own game 42; C's library is unreachable. The ratio denominator
	// is the two successful fetches, so 42 still clears the 0.8 threshold.
	steam := &fakeSteam{
		owned: map[string][]api.OwnedGame{
			"A": {ownedGame(42, 10)},
			"B": {ownedGame(42, 20)},
		},
		ownedErr: map[string]error{"C": errUpstream},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A", "B", "C"}, 0.8)

	require.Equal(t, 2, result.SuccessfulFetches)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 42, result.Candidates[0].AppID)
	assert.Equal(t, 1.0, result.Candidates[0].OwnershipRatio)
}

func TestAggregatePrivateLibraryCountsAsFailure(t *testing.T) {
	steam := &fakeSteam{
		owned:      map[string][]api.OwnedGame{"A": {ownedGame(1, 5)}},
		privateIDs: map[string]bool{"B": true},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A", "B"}, 0.5)

	assert.Equal(t, 1, result.SuccessfulFetches)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, []string{"A"}, result.Candidates[0].Owners)
}

func TestAggregateThresholdBoundaryIsInclusive(t *testing.T) {
	// A owns {1,2}, B owns {2}: at threshold 0.5 both games qualify because
	// the comparison is >=.
	steam := &fakeSteam{
		owned: map[string][]api.OwnedGame{
			"A": {ownedGame(1, 0), ownedGame(2, 0)},
			"B": {ownedGame(2, 0)},
		},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A", "B"}, 0.5)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, 2, result.Candidates[0].AppID)
	assert.Equal(t, 0.5, result.Candidates[1].OwnershipRatio)
	assert.Equal(t, 1, result.Candidates[1].AppID)
}

func TestAggregateZeroSuccessfulFetches(t *testing.T) {
	steam := &fakeSteam{
		ownedErr: map[string]error{"A": errUpstream, "B": errUpstream},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A", "B"}, 0.8)

	assert.Equal(t, 0, result.SuccessfulFetches)
	assert.Empty(t, result.Candidates)
}

func TestAggregateEmptyPublicLibraryIsSuccess(t *testing.T) {
	steam := &fakeSteam{
		owned: map[string][]api.OwnedGame{
			"A": {ownedGame(1, 5)},
			"B": {},
		},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A", "B"}, 1.0)

	// B's empty library still counts in the denominator, so nothing is
	// owned by everyone.
	assert.Equal(t, 2, result.SuccessfulFetches)
	assert.Empty(t, result.Candidates)
}

func TestAggregateRankingIsDeterministic(t *testing.T) {
	steam := &fakeSteam{
		owned: map[string][]api.OwnedGame{
			"A": {ownedGame(30, 0), ownedGame(10, 0), ownedGame(20, 0)},
			"B": {ownedGame(20, 0), ownedGame(30, 0)},
			"C": {ownedGame(30, 0)},
		},
	}
	svc := newLibraryService(steam, 100)

	var previous []int
	for i := 0; i < 5; i++ {
		result := svc.Aggregate(context.Background(), []string{"A", "B", "C"}, 0.0)
		require.Len(t, result.Candidates, 3)

		order := make([]int, 0, 3)
		for _, c := range result.Candidates {
			order = append(order, c.AppID)
		}
		// 30 has three owners, 20 has two, 10 one.
		assert.Equal(t, []int{30, 20, 10}, order)
		if previous != nil {
			assert.Equal(t, previous, order)
		}
		previous = order
	}
}

func TestAggregateTiesBreakByAscendingAppID(t *testing.T) {
	steam := &fakeSteam{
		owned: map[string][]api.OwnedGame{
			"A": {ownedGame(500, 0), ownedGame(3, 0), ownedGame(77, 0)},
		},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A"}, 0.0)

	require.Len(t, result.Candidates, 3)
	ids := []int{result.Candidates[0].AppID, result.Candidates[1].AppID, result.Candidates[2].AppID}
	assert.True(t, sort.IntsAreSorted(ids), "equal owner counts must order by appid: %v", ids)
}

func TestAggregateTruncatesToEnrichLimit(t *testing.T) {
	games := make([]api.OwnedGame, 0, 200)
	for appID := 1; appID <= 200; appID++ {
		games = append(games, ownedGame(appID, 0))
	}
	steam := &fakeSteam{owned: map[string][]api.OwnedGame{"A": games}}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A"}, 0.0)

	require.Len(t, result.Candidates, 100)
	// Top of the ranking survives the cut: all owner counts tie, so the
	// lowest appids win.
	assert.Equal(t, 1, result.Candidates[0].AppID)
	assert.Equal(t, 100, result.Candidates[99].AppID)
}

func TestAggregateDuplicateIDsAreNotDeduplicated(t *testing.T) {
	steam := &fakeSteam{
		owned: map[string][]api.OwnedGame{"A": {ownedGame(1, 5)}},
	}
	svc := newLibraryService(steam, 100)

	result := svc.Aggregate(context.Background(), []string{"A", "A"}, 0.6)

	// Both fetches succeed, so the denominator is 2 while A appears once in
	// the owners set: ratio 0.5 misses the threshold.
	assert.Equal(t, 2, result.SuccessfulFetches)
	assert.Empty(t, result.Candidates)
}
