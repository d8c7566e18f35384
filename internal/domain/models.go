package domain

// OwnedGame is one entry of a player's library: an app and the minutes the
// player has put into it.
type OwnedGame struct {
	AppID           int
	PlaytimeMinutes int
}

// OwnershipEntry tracks which of the requested players own one app. Owners
// keeps fetch-completion order; PlaytimeByOwner holds minutes per owner.
type OwnershipEntry struct {
	AppID           int
	Owners          []string
	PlaytimeByOwner map[string]int
}

// MatchCandidate is the immutable view of an entry that passed the ownership
// threshold, pending enrichment.
type MatchCandidate struct {
	AppID          int
	Owners         []string
	Playtimes      map[string]int
	OwnershipRatio float64
}

// EnrichedGame is the final output unit: storefront metadata plus the live
// player count and the group's ownership breakdown.
type EnrichedGame struct {
	AppID            int            `json:"appid"`
	Name             string         `json:"name"`
	HeaderImage      string         `json:"headerImage"`
	ShortDescription string         `json:"shortDescription"`
	Developers       []string       `json:"developers,omitempty"`
	Genres           []string       `json:"genres,omitempty"`
	IsFree           bool           `json:"isFree"`
	PlayerCount      int            `json:"playerCount"`
	Owners           []string       `json:"owners"`
	NonOwners        []string       `json:"nonOwners"`
	Playtimes        map[string]int `json:"playtimes"`
}

// AppDetails is the cached slice of a storefront appdetails response.
type AppDetails struct {
	AppID            int      `json:"appid"`
	Name             string   `json:"name"`
	HeaderImage      string   `json:"headerImage"`
	ShortDescription string   `json:"shortDescription"`
	Developers       []string `json:"developers,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	IsFree           bool     `json:"isFree"`
}

// Friend is one entry of a player's friend list, filled out with profile
// summary fields the frontend renders.
type Friend struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	Avatar      string `json:"avatar"`
}
