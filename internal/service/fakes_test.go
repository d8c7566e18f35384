package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"steam-gamenight/internal/api"
	"steam-gamenight/internal/domain"
)

var errUpstream = errors.New("upstream unavailable")

// fakeSteam is a hand-rolled SteamAPI double. Zero-value maps mean "not
// configured"; a missing key reads as an upstream failure.
type fakeSteam struct {
	mu sync.Mutex

	owned      map[string][]api.OwnedGame
	ownedErr   map[string]error
	privateIDs map[string]bool

	details    map[int]*api.AppDetailsData
	detailsErr map[int]error

	players    map[int]int
	playersErr map[int]error

	search    *api.StoreSearchResponse
	searchErr error

	summaries    map[string]api.PlayerSummary
	summariesErr error

	friends    *api.FriendListResponse
	friendsErr error

	calls []string
}

func (f *fakeSteam) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeSteam) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSteam) GetOwnedGames(ctx context.Context, steamID string) (*api.OwnedGamesResponse, error) {
	f.record("GetOwnedGames:" + steamID)
	if err, ok := f.ownedErr[steamID]; ok {
		return nil, err
	}
	resp := &api.OwnedGamesResponse{}
	if f.privateIDs[steamID] {
		// Steam answers a private library with a 200 and no games field.
		return resp, nil
	}
	games, ok := f.owned[steamID]
	if !ok {
		return nil, errUpstream
	}
	resp.Response.GameCount = len(games)
	resp.Response.Games = games
	if resp.Response.Games == nil {
		resp.Response.Games = []api.OwnedGame{}
	}
	return resp, nil
}

func (f *fakeSteam) GetAppDetails(ctx context.Context, appID int, countryCode string) (*api.AppDetailsData, error) {
	f.record("GetAppDetails")
	if err, ok := f.detailsErr[appID]; ok {
		return nil, err
	}
	data, ok := f.details[appID]
	if !ok {
		return nil, api.ErrAppUnavailable
	}
	return data, nil
}

func (f *fakeSteam) GetCurrentPlayers(ctx context.Context, appID int) (*api.CurrentPlayersResponse, error) {
	f.record("GetCurrentPlayers")
	if err, ok := f.playersErr[appID]; ok {
		return nil, err
	}
	resp := &api.CurrentPlayersResponse{}
	resp.Response.PlayerCount = f.players[appID]
	resp.Response.Result = 1
	return resp, nil
}

func (f *fakeSteam) SearchStore(ctx context.Context, term, countryCode string) (*api.StoreSearchResponse, error) {
	f.record("SearchStore")
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.search == nil {
		return &api.StoreSearchResponse{}, nil
	}
	return f.search, nil
}

func (f *fakeSteam) GetPlayerSummaries(ctx context.Context, steamIDs []string) (*api.PlayerSummariesResponse, error) {
	f.record("GetPlayerSummaries")
	if f.summariesErr != nil {
		return nil, f.summariesErr
	}
	resp := &api.PlayerSummariesResponse{}
	for _, id := range steamIDs {
		if summary, ok := f.summaries[id]; ok {
			resp.Response.Players = append(resp.Response.Players, summary)
		}
	}
	return resp, nil
}

func (f *fakeSteam) GetFriendList(ctx context.Context, steamID string) (*api.FriendListResponse, error) {
	f.record("GetFriendList")
	if f.friendsErr != nil {
		return nil, f.friendsErr
	}
	if f.friends == nil {
		return &api.FriendListResponse{}, nil
	}
	return f.friends, nil
}

// memCache is an in-memory AppDetailsCache double.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*domain.AppDetails
	getErr  error
	putErr  error
	hits    int
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*domain.AppDetails)}
}

func cacheKey(appID int, cc string) string {
	return cc + "/" + strconv.Itoa(appID)
}

func (c *memCache) Get(ctx context.Context, appID int, countryCode string) (*domain.AppDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if d, ok := c.entries[cacheKey(appID, countryCode)]; ok {
		c.hits++
		return d, nil
	}
	return nil, nil
}

func (c *memCache) Put(ctx context.Context, details *domain.AppDetails, countryCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[cacheKey(details.AppID, countryCode)] = details
	c.puts++
	return nil
}
