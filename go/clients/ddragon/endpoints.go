package ddragon

const (
	// Base URL
	BaseURL = "https://ddragon.leagueoflegends.com"

	// API Endpoints
	VersionsEndpoint     = "/api/versions.json"
	ChampionsEndpointFmt = "/cdn/%s/data/%s/champion.json"
	ChampionImageFmt     = "/cdn/%s/img/champion/%s.png"

	DefaultLocale = "ko_KR"
)
