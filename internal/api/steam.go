package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"steam-gamenight/internal/config"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	defaultWebAPIBase = "https://api.steampowered.com"
	defaultStoreBase  = "https://store.steampowered.com"
)

// SteamClient wraps the Steam Web API and the storefront API. Every outbound
// call goes through a shared limiter so a burst of library fetches stays
// under upstream throttling.
type SteamClient struct {
	apiKey     string
	client     *fasthttp.Client
	limiter    *rate.Limiter
	webAPIBase string
	storeBase  string
}

func NewSteamClient(cfg *config.Config) *SteamClient {
	return &SteamClient{
		apiKey: cfg.SteamAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter:    rate.NewLimiter(rate.Every(cfg.FetchPacing), 1),
		webAPIBase: defaultWebAPIBase,
		storeBase:  defaultStoreBase,
	}
}

// SetBaseURLs points the client at a different upstream. Used by tests.
func (c *SteamClient) SetBaseURLs(webAPI, store string) {
	c.webAPIBase = webAPI
	c.storeBase = store
}

func (c *SteamClient) GetPlayerSummaries(ctx context.Context, steamIDs []string) (*PlayerSummariesResponse, error) {
	u := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v2/?key=%s&steamids=%s",
		c.webAPIBase, c.apiKey, strings.Join(steamIDs, ","))
	return doRequest[PlayerSummariesResponse](ctx, c, u)
}

func (c *SteamClient) GetFriendList(ctx context.Context, steamID string) (*FriendListResponse, error) {
	u := fmt.Sprintf("%s/ISteamUser/GetFriendList/v1/?key=%s&steamid=%s&relationship=friend",
		c.webAPIBase, c.apiKey, steamID)
	return doRequest[FriendListResponse](ctx, c, u)
}

func (c *SteamClient) GetOwnedGames(ctx context.Context, steamID string) (*OwnedGamesResponse, error) {
	u := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v1/?key=%s&steamid=%s&include_played_free_games=1",
		c.webAPIBase, c.apiKey, steamID)
	return doRequest[OwnedGamesResponse](ctx, c, u)
}

func (c *SteamClient) GetCurrentPlayers(ctx context.Context, appID int) (*CurrentPlayersResponse, error) {
	u := fmt.Sprintf("%s/ISteamUserStats/GetNumberOfCurrentPlayers/v1/?appid=%d",
		c.webAPIBase, appID)
	return doRequest[CurrentPlayersResponse](ctx, c, u)
}

// GetAppDetails fetches storefront metadata for one app. The storefront keys
// its response by appid and carries a success flag; !success is returned as
// ErrAppUnavailable so callers can drop the app without treating it as a
// systemic failure.
func (c *SteamClient) GetAppDetails(ctx context.Context, appID int, countryCode string) (*AppDetailsData, error) {
	u := fmt.Sprintf("%s/api/appdetails?appids=%d&cc=%s&l=en",
		c.storeBase, appID, countryCode)
	envelope, err := doRequest[map[string]appDetailsEnvelope](ctx, c, u)
	if err != nil {
		return nil, err
	}
	entry, ok := (*envelope)[strconv.Itoa(appID)]
	if !ok || !entry.Success {
		return nil, ErrAppUnavailable
	}
	return &entry.Data, nil
}

func (c *SteamClient) SearchStore(ctx context.Context, term, countryCode string) (*StoreSearchResponse, error) {
	u := fmt.Sprintf("%s/api/storesearch/?term=%s&cc=%s&l=en",
		c.storeBase, url.QueryEscape(term), countryCode)
	return doRequest[StoreSearchResponse](ctx, c, u)
}

// ErrAppUnavailable marks an appdetails response whose success flag was false
// (delisted, region-locked, or not a store app).
var ErrAppUnavailable = fmt.Errorf("app details unavailable")

// StatusError is a non-200 upstream response. Callers that need to tell a
// private profile (401/403) from an outage can unwrap to it.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("steam API error: %d", e.Code)
}

// Private reports whether the status means the data exists but is not
// visible to us.
func (e *StatusError) Private() bool {
	return e.Code == fasthttp.StatusUnauthorized || e.Code == fasthttp.StatusForbidden
}

func doRequest[T any](ctx context.Context, client *SteamClient, url string) (*T, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type PlayerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
	PersonaState             int    `json:"personastate"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	LastLogoff               int64  `json:"lastlogoff,omitempty"`
	TimeCreated              int64  `json:"timecreated,omitempty"`
}

type FriendListResponse struct {
	FriendsList struct {
		Friends []FriendEntry `json:"friends"`
	} `json:"friendslist"`
}

type FriendEntry struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

type OwnedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

type OwnedGame struct {
	AppID           int `json:"appid"`
	PlaytimeForever int `json:"playtime_forever"`
}

type CurrentPlayersResponse struct {
	Response struct {
		PlayerCount int `json:"player_count"`
		Result      int `json:"result"`
	} `json:"response"`
}

type appDetailsEnvelope struct {
	Success bool           `json:"success"`
	Data    AppDetailsData `json:"data"`
}

type AppDetailsData struct {
	Type             string   `json:"type"`
	Name             string   `json:"name"`
	SteamAppID       int      `json:"steam_appid"`
	IsFree           bool     `json:"is_free"`
	ShortDescription string   `json:"short_description"`
	HeaderImage      string   `json:"header_image"`
	Developers       []string `json:"developers"`
	Genres           []Genre  `json:"genres"`
}

type Genre struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type StoreSearchResponse struct {
	Total int               `json:"total"`
	Items []StoreSearchItem `json:"items"`
}

type StoreSearchItem struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	TinyImage string `json:"tiny_image"`
}
