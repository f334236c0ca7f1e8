package apiclient

import (
	"context"
	"net/url"
	"strings"
)

// PublicSettings are the server settings the room view depends on.
type PublicSettings struct {
	SiteURL     string `json:"Site_Url"`
	UseRealName bool   `json:"UI_Use_Real_Name"`
	AllowEdit   bool   `json:"Message_AllowEditing"`
}

var publicSettingIds = []string{"Site_Url", "UI_Use_Real_Name", "Message_AllowEditing"}

type setting struct {
	Id    string `json:"_id"`
	Value any    `json:"value"`
}

type settingsResponse struct {
	envelope
	Settings []setting `json:"settings"`
}

// PublicSettings fetches the public settings used by the renderer.
func (c *APIClient) PublicSettings(ctx context.Context) (PublicSettings, error) {
	const path = "/api/v1/settings.public"
	query := url.Values{"query": {`{"_id":{"$in":["` + strings.Join(publicSettingIds, `","`) + `"]}}`}}

	var resp settingsResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return PublicSettings{}, err
	}
	if err := resp.check(path); err != nil {
		return PublicSettings{}, err
	}

	var out PublicSettings
	for _, s := range resp.Settings {
		switch s.Id {
		case "Site_Url":
			if v, ok := s.Value.(string); ok {
				out.SiteURL = strings.TrimSuffix(v, "/")
			}
		case "UI_Use_Real_Name":
			out.UseRealName, _ = s.Value.(bool)
		case "Message_AllowEditing":
			out.AllowEdit, _ = s.Value.(bool)
		}
	}
	return out, nil
}
