// Package health exposes the health_check tool, which verifies the
// server can reach the configured OpenProject instance.
package health

import (
	"context"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
)

const CheckToolName = "health_check"

type CheckRequest struct{}

type CheckResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Connection string `json:"openproject_connection"`
	Version    string `json:"openproject_version,omitempty"`
	Error      string `json:"error,omitempty"`
	URL        string `json:"openproject_url"`
}

type Provider struct {
	client *openproject.Client
}

func New(client *openproject.Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Tools() []tools.Registration {
	return []tools.Registration{
		{
			Tool: tools.NewTool(CheckToolName,
				"Verify the server is running and connected to OpenProject.",
				p.check),
			ReadOnly: true,
		},
	}
}

// check never fails the tool call: a broken OpenProject connection is
// reported as a degraded status so the agent can relay it.
func (p *Provider) check(ctx context.Context, _ *CheckRequest) (*CheckResponse, error) {
	info, err := p.client.TestConnection(ctx)
	if err != nil {
		return &CheckResponse{
			Status:     "degraded",
			Message:    "Server is running but the OpenProject connection failed",
			Connection: "failed",
			Error:      err.Error(),
			URL:        p.client.BaseURL(),
		}, nil
	}
	return &CheckResponse{
		Status:     "healthy",
		Message:    "Server is running",
		Connection: "connected",
		Version:    info.CoreVersion,
		URL:        p.client.BaseURL(),
	}, nil
}
