// Package users exposes user directory and project membership tools.
package users

import (
	"context"
	"fmt"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
)

const (
	ListToolName    = "get_users"
	MembersToolName = "get_project_members"
)

// View is the shaped user returned to the agent.
type View struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Login     string `json:"login,omitempty"`
	Status    string `json:"status,omitempty"`
	Language  string `json:"language,omitempty"`
	Admin     bool   `json:"admin"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type ListRequest struct {
	EmailFilter string `json:"email_filter,omitempty" validate:"omitempty,email" jsonschema:"description=Optional email address to search for a specific user."`
}

type ListResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Users   []View `json:"users"`
}

type MembersRequest struct {
	ProjectID int `json:"project_id" validate:"required,gt=0" jsonschema:"description=ID of the project to get members from."`
}

// PrincipalView identifies the user or group holding a membership.
type PrincipalView struct {
	ID    int    `json:"id,omitempty"`
	Title string `json:"title"`
}

type MemberView struct {
	ID        int           `json:"id"`
	User      PrincipalView `json:"user"`
	Roles     []string      `json:"roles"`
	CreatedAt string        `json:"created_at,omitempty"`
	UpdatedAt string        `json:"updated_at,omitempty"`
}

type MembersResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	ProjectID int          `json:"project_id"`
	Members   []MemberView `json:"members"`
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
			Tool: tools.NewTool(ListToolName,
				"List users, optionally filtered by email address.",
				p.list),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(MembersToolName,
				"List project members with their roles.",
				p.members),
			ReadOnly: true,
		},
	}
}

func (p *Provider) list(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	var (
		users []openproject.User
		err   error
	)
	if req.EmailFilter != "" {
		users, err = p.client.ListUsersByEmail(ctx, req.EmailFilter)
	} else {
		users, err = p.client.ListUsers(ctx)
	}
	if err != nil {
		return nil, err
	}

	views := make([]View, len(users))
	for i, u := range users {
		views[i] = View{
			ID:        u.ID,
			Name:      u.Name,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Login:     u.Login,
			Status:    u.Status,
			Language:  u.Language,
			Admin:     u.Admin,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		}
	}

	msg := fmt.Sprintf("Found %d users", len(views))
	if req.EmailFilter != "" {
		msg += fmt.Sprintf(" matching email %q", req.EmailFilter)
	}
	return &ListResponse{
		Success: true,
		Message: msg,
		Users:   views,
	}, nil
}

func (p *Provider) members(ctx context.Context, req *MembersRequest) (*MembersResponse, error) {
	memberships, err := p.client.ListMemberships(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	views := make([]MemberView, len(memberships))
	for i := range memberships {
		m := &memberships[i]

		roles := make([]string, 0, len(m.Links.Roles))
		for _, role := range m.Links.Roles {
			roles = append(roles, role.TitleOr("Unknown Role"))
		}

		views[i] = MemberView{
			ID: m.ID,
			User: PrincipalView{
				ID:    m.Links.Principal.ID(),
				Title: m.Links.Principal.TitleOr("Unknown User"),
			},
			Roles:     roles,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		}
	}
	return &MembersResponse{
		Success:   true,
		Message:   fmt.Sprintf("Found %d members in project %d", len(views), req.ProjectID),
		ProjectID: req.ProjectID,
		Members:   views,
	}, nil
}
