// Package catalog exposes the rarely-changing OpenProject catalogs:
// work package types, statuses, priorities and time entry activities.
// The underlying client serves these from a TTL cache.
package catalog

import (
	"context"
	"fmt"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
)

const (
	TypesToolName      = "get_work_package_types"
	StatusesToolName   = "get_work_package_statuses"
	PrioritiesToolName = "get_priorities"
	ActivitiesToolName = "get_time_activities"
)

type TypesRequest struct{}

type TypeView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Position    int    `json:"position"`
	IsDefault   bool   `json:"is_default"`
	IsMilestone bool   `json:"is_milestone"`
}

type TypesResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Types   []TypeView `json:"types"`
}

type StatusesRequest struct{}

type StatusView struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	IsDefault  bool   `json:"is_default"`
	IsClosed   bool   `json:"is_closed"`
	IsReadonly bool   `json:"is_readonly"`
}

type StatusesResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Statuses []StatusView `json:"statuses"`
}

type PrioritiesRequest struct{}

type PriorityView struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	IsDefault bool   `json:"is_default"`
	IsActive  bool   `json:"is_active"`
}

type PrioritiesResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Priorities []PriorityView `json:"priorities"`
}

type ActivitiesRequest struct{}

type ActivityView struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	IsDefault bool   `json:"is_default"`
	IsActive  bool   `json:"is_active"`
}

type ActivitiesResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Activities []ActivityView `json:"activities"`
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
			Tool: tools.NewTool(TypesToolName,
				"List available work package types.",
				p.types),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(StatusesToolName,
				"List available work package statuses.",
				p.statuses),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(PrioritiesToolName,
				"List available work package priorities.",
				p.priorities),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(ActivitiesToolName,
				"List available time entry activity types, e.g. Development or Testing.",
				p.activities),
			ReadOnly: true,
		},
	}
}

func (p *Provider) types(ctx context.Context, _ *TypesRequest) (*TypesResponse, error) {
	types, err := p.client.WorkPackageTypes(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]TypeView, len(types))
	for i, t := range types {
		views[i] = TypeView{
			ID:          t.ID,
			Name:        t.Name,
			Color:       t.Color,
			Position:    t.Position,
			IsDefault:   t.IsDefault,
			IsMilestone: t.IsMilestone,
		}
	}
	return &TypesResponse{
		Success: true,
		Message: fmt.Sprintf("Found %d work package types", len(views)),
		Types:   views,
	}, nil
}

func (p *Provider) statuses(ctx context.Context, _ *StatusesRequest) (*StatusesResponse, error) {
	statuses, err := p.client.WorkPackageStatuses(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]StatusView, len(statuses))
	for i, s := range statuses {
		views[i] = StatusView{
			ID:         s.ID,
			Name:       s.Name,
			Position:   s.Position,
			IsDefault:  s.IsDefault,
			IsClosed:   s.IsClosed,
			IsReadonly: s.IsReadonly,
		}
	}
	return &StatusesResponse{
		Success:  true,
		Message:  fmt.Sprintf("Found %d work package statuses", len(views)),
		Statuses: views,
	}, nil
}

func (p *Provider) priorities(ctx context.Context, _ *PrioritiesRequest) (*PrioritiesResponse, error) {
	priorities, err := p.client.Priorities(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]PriorityView, len(priorities))
	for i, pr := range priorities {
		views[i] = PriorityView{
			ID:        pr.ID,
			Name:      pr.Name,
			Position:  pr.Position,
			IsDefault: pr.IsDefault,
			IsActive:  pr.IsActive,
		}
	}
	return &PrioritiesResponse{
		Success:    true,
		Message:    fmt.Sprintf("Found %d priorities", len(views)),
		Priorities: views,
	}, nil
}

func (p *Provider) activities(ctx context.Context, _ *ActivitiesRequest) (*ActivitiesResponse, error) {
	activities, err := p.client.TimeEntryActivities(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ActivityView, len(activities))
	for i := range activities {
		a := &activities[i]
		views[i] = ActivityView{
			ID:        a.ID,
			Name:      a.Name,
			Position:  a.Position,
			IsDefault: a.Default,
			IsActive:  a.IsActive(),
		}
	}
	return &ActivitiesResponse{
		Success:    true,
		Message:    fmt.Sprintf("Found %d time entry activities", len(views)),
		Activities: views,
	}, nil
}
