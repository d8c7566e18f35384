package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"steam-gamenight/internal/config"
	"steam-gamenight/internal/constants"
	"steam-gamenight/internal/domain"
	"steam-gamenight/internal/service"

	"github.com/rs/zerolog"
)

// Server owns the public JSON surface. All endpoints are GETs with query
// parameters; bodies are ad-hoc JSON shaped for the frontend.
type Server struct {
	profileSvc *service.ProfileService
	sharedSvc  *service.SharedGamesService
	cfg        *config.Config
	logger     zerolog.Logger
}

func New(profileSvc *service.ProfileService, sharedSvc *service.SharedGamesService, cfg *config.Config, logger zerolog.Logger) *Server {
	return &Server{profileSvc: profileSvc, sharedSvc: sharedSvc, cfg: cfg, logger: logger}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user", get(s.handleUser))
	mux.HandleFunc("/api/friends", get(s.handleFriends))
	mux.HandleFunc("/api/shared-games", get(s.handleSharedGames))
	mux.HandleFunc("/api/search-game", get(s.handleSearchGame))
	return mux
}

// get restricts a handler to GET requests, matching the behavior of the
// "GET /path" mux patterns introduced in Go 1.22, which the toolchain
// building this module does not yet support.
func get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	steamID := r.URL.Query().Get("steamid")
	if steamID == "" {
		writeError(w, http.StatusBadRequest, "steamid is required")
		return
	}

	summary, err := s.profileSvc.GetUser(r.Context(), steamID)
	if err != nil {
		s.logger.Error().Err(err).Str("steamid", steamID).Msg("user lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	steamID := r.URL.Query().Get("steamid")
	if steamID == "" {
		writeError(w, http.StatusBadRequest, "steamid is required")
		return
	}

	friends, err := s.profileSvc.GetFriends(r.Context(), steamID)
	if err != nil {
		s.logger.Error().Err(err).Str("steamid", steamID).Msg("friends lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch friends")
		return
	}

	writeJSON(w, http.StatusOK, friendsResponse{
		FriendsList: friendsList{Friends: friends},
	})
}

func (s *Server) handleSharedGames(w http.ResponseWriter, r *http.Request) {
	steamIDs := splitIDs(r.URL.Query().Get("steamids"))
	if len(steamIDs) == 0 {
		writeError(w, http.StatusBadRequest, "steamids is required")
		return
	}

	countryCode := r.URL.Query().Get("cc")
	if countryCode == "" {
		countryCode = constants.DefaultCountryCode
	}

	threshold := s.cfg.DefaultThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			writeError(w, http.StatusBadRequest, "threshold must be a number in [0,1]")
			return
		}
		threshold = parsed
	}

	result, err := s.sharedSvc.FindSharedGames(r.Context(), steamIDs, threshold, countryCode)
	if err != nil {
		s.logger.Error().Err(err).Msg("shared games lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to find shared games")
		return
	}

	writeJSON(w, http.StatusOK, sharedGamesResponse{
		Games:                  result.Games,
		PublicProfilesScanned:  result.FetchedCount,
		TotalProfilesRequested: result.RequestedCount,
	})
}

func (s *Server) handleSearchGame(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	steamIDs := splitIDs(r.URL.Query().Get("steamids"))
	if query == "" || len(steamIDs) == 0 {
		writeError(w, http.StatusBadRequest, "query and steamids are required")
		return
	}

	countryCode := r.URL.Query().Get("cc")
	if countryCode == "" {
		countryCode = constants.DefaultCountryCode
	}

	result, err := s.sharedSvc.SearchSharedGames(r.Context(), query, steamIDs, countryCode)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("game search failed")
		writeError(w, http.StatusInternalServerError, "failed to search games")
		return
	}

	writeJSON(w, http.StatusOK, searchGamesResponse{Games: result.Games})
}

type friendsResponse struct {
	FriendsList friendsList `json:"friendslist"`
}

type friendsList struct {
	Friends []domain.Friend `json:"friends"`
}

type sharedGamesResponse struct {
	Games                  []domain.EnrichedGame `json:"games"`
	PublicProfilesScanned  int                   `json:"publicProfilesScanned"`
	TotalProfilesRequested int                   `json:"totalProfilesRequested"`
}

type searchGamesResponse struct {
	Games []domain.EnrichedGame `json:"games"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// splitIDs parses the comma-separated steamids parameter. Blank segments are
// dropped; duplicates are kept as sent.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
