package api

import (
	"context"
	"net/http"
)

// InsightsResponse carries the AI-generated narrative for the workspace.
type InsightsResponse struct {
	Narrative   string `json:"narrative"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

// Insights fetches the latest AI narrative for the authenticated workspace.
func (c *Client) Insights(ctx context.Context) (*InsightsResponse, error) {
	var out InsightsResponse

	if err := c.doRequest(ctx, http.MethodGet, "/llm/insights", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
