// Package ddragon fetches the champion catalog from Riot's Data Dragon CDN.
package ddragon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mcdev12/champdraft/go/clients"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoVersions is returned when the versions list is empty.
var ErrNoVersions = errors.New("data dragon returned no versions")

type Client struct {
	*clients.BaseClient
	locale string
}

func NewClient(baseURL, locale string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if locale == "" {
		locale = DefaultLocale
	}
	return &Client{
		BaseClient: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
		locale:     locale,
	}
}

type Champion struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type ChampionsResponse struct {
	Type    string              `json:"type"`
	Version string              `json:"version"`
	Data    map[string]Champion `json:"data"`
}

// LatestVersion returns the newest patch version.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	body, err := c.Get(ctx, VersionsEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to get versions: %w", err)
	}

	var versions []string
	if err := json.Unmarshal(body, &versions); err != nil {
		return "", fmt.Errorf("failed to unmarshal versions: %w", err)
	}
	if len(versions) == 0 {
		return "", ErrNoVersions
	}
	return versions[0], nil
}

// Champions returns the localized champion list of a patch.
func (c *Client) Champions(ctx context.Context, version string) ([]Champion, error) {
	body, err := c.Get(ctx, fmt.Sprintf(ChampionsEndpointFmt, version, c.locale))
	if err != nil {
		return nil, fmt.Errorf("failed to get champions: %w", err)
	}

	var response ChampionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal champions: %w", err)
	}

	champions := make([]Champion, 0, len(response.Data))
	for _, ch := range response.Data {
		champions = append(champions, ch)
	}
	sort.Slice(champions, func(i, j int) bool { return champions[i].ID < champions[j].ID })
	return champions, nil
}

// FetchCatalog resolves the latest version and maps its champions to draft items.
func (c *Client) FetchCatalog(ctx context.Context) ([]models.Item, error) {
	version, err := c.LatestVersion(ctx)
	if err != nil {
		return nil, err
	}
	champions, err := c.Champions(ctx, version)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(champions))
	for _, ch := range champions {
		items = append(items, models.Item{
			Name:     ch.Name,
			ImageURL: c.BaseURL() + fmt.Sprintf(ChampionImageFmt, version, ch.ID),
		})
	}

	log.Info().
		Str("version", version).
		Str("locale", c.locale).
		Int("champions", len(items)).
		Msg("fetched champion catalog")
	return items, nil
}
