package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/emberops/burnoutctl/internal/model"
)

// MembersResponse is the raw per-provider member list for one platform.
type MembersResponse struct {
	Members []model.RawMember `json:"members"`
}

// PlatformMembers fetches the raw member rows one provider reports.
func (c *Client) PlatformMembers(ctx context.Context, provider model.Provider) ([]model.RawMember, error) {
	var out MembersResponse

	path := fmt.Sprintf("/integrations/mappings/platform/%s", provider)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return out.Members, nil
}

// ManualMappingRequest pins one member email to a provider identity.
type ManualMappingRequest struct {
	Email      string `json:"email"`
	ExternalID string `json:"external_id"`
}

// CreateManualMapping records a manually-curated identity mapping
// server-side.
func (c *Client) CreateManualMapping(ctx context.Context, provider model.Provider, email, externalID string) error {
	path := fmt.Sprintf("/integrations/%s/manual-mapping", provider)

	return c.doRequest(ctx, http.MethodPost, path, ManualMappingRequest{Email: email, ExternalID: externalID}, nil)
}

// RemoveMapping deletes a manual mapping server-side.
func (c *Client) RemoveMapping(ctx context.Context, provider model.Provider, email string) error {
	path := fmt.Sprintf("/integrations/%s/mapping/%s", provider, url.PathEscape(email))

	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}
