// Package workpackages exposes tools for listing, searching, creating,
// updating and assigning work packages.
package workpackages

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
)

const (
	ListToolName   = "get_work_packages"
	SearchToolName = "search_work_packages"
	CreateToolName = "create_work_package"
	UpdateToolName = "update_work_package"
	AssignToolName = "assign_work_package_by_email"
)

// statusNameToID maps the default OpenProject status table by
// lowercase name, so agents can say "closed" instead of 12.
var statusNameToID = map[string]int{
	"new":              1,
	"in specification": 2,
	"specified":        3,
	"confirmed":        4,
	"to be scheduled":  5,
	"scheduled":        6,
	"in progress":      7,
	"developed":        8,
	"in testing":       9,
	"tested":           10,
	"test failed":      11,
	"closed":           12,
	"on hold":          13,
	"rejected":         14,
}

func statusNames() []string {
	names := make([]string, 0, len(statusNameToID))
	for name := range statusNameToID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveStatusID accepts a numeric status ID or a case-insensitive
// status name. A nil status resolves to 0, meaning no status change.
func resolveStatusID(status any) (int, error) {
	switch v := status.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(v), nil
	case string:
		if id, ok := statusNameToID[strings.ToLower(strings.TrimSpace(v))]; ok {
			return id, nil
		}
		if id, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return id, nil
		}
		return 0, errors.Errorf("invalid status %q: valid options are %s",
			v, strings.Join(statusNames(), ", "))
	default:
		return 0, errors.New("status must be a status ID or a status name")
	}
}

// View is the shaped work package returned to the agent.
type View struct {
	ID          int    `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Project     string `json:"project,omitempty"`
	ProjectID   int    `json:"project_id,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee,omitempty"`
	URL         string `json:"url"`
}

type ListRequest struct {
	ProjectID int `json:"project_id" validate:"required,gt=0" jsonschema:"description=ID of the project to get work packages from."`
}

type ListResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	WorkPackages []View `json:"work_packages"`
}

type SearchRequest struct {
	Query     string `json:"query" validate:"required" jsonschema:"description=Text to match against work package subjects. At least 2 characters."`
	ProjectID int    `json:"project_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Optional project ID to narrow the search."`
}

type SearchResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Query        string `json:"query"`
	ProjectID    int    `json:"project_id,omitempty"`
	WorkPackages []View `json:"work_packages"`
}

type CreateRequest struct {
	ProjectID      int     `json:"project_id" validate:"required,gt=0" jsonschema:"description=ID of the project to create the work package in."`
	Subject        string  `json:"subject" validate:"required" jsonschema:"description=Work package title."`
	Description    string  `json:"description,omitempty" jsonschema:"description=Detailed description."`
	StartDate      string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Start date in YYYY-MM-DD format."`
	DueDate        string  `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Due date in YYYY-MM-DD format."`
	ParentID       int     `json:"parent_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Parent work package ID for hierarchy."`
	AssigneeID     int     `json:"assignee_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=User ID to assign the work package to."`
	EstimatedHours float64 `json:"estimated_hours,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Estimated hours for completion."`
}

type CreateResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	WorkPackage View   `json:"work_package"`
}

type UpdateRequest struct {
	WorkPackageID  int      `json:"work_package_id" validate:"required,gt=0" jsonschema:"description=ID of the work package to update."`
	Subject        *string  `json:"subject,omitempty" jsonschema:"description=New title."`
	Description    *string  `json:"description,omitempty" jsonschema:"description=New description."`
	StartDate      *string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=New start date in YYYY-MM-DD format."`
	DueDate        *string  `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=New due date in YYYY-MM-DD format."`
	AssigneeID     *int     `json:"assignee_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=User ID to assign the work package to."`
	EstimatedHours *float64 `json:"estimated_hours,omitempty" validate:"omitempty,gt=0" jsonschema:"description=New estimated hours."`
	Status         any      `json:"status,omitempty" jsonschema:"description=Status ID (e.g. 12) or status name (e.g. Closed)."`
}

type UpdateResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	WorkPackage View   `json:"work_package"`
}

type AssignRequest struct {
	WorkPackageID int    `json:"work_package_id" validate:"required,gt=0" jsonschema:"description=ID of the work package to assign."`
	AssigneeEmail string `json:"assignee_email" validate:"required,email" jsonschema:"description=Email address of the user to assign to."`
}

type AssigneeView struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AssignResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	WorkPackage View         `json:"work_package"`
	Assignee    AssigneeView `json:"assignee"`
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
				"List work packages in a project.",
				p.list),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(SearchToolName,
				"Search work packages by subject, optionally within a project.",
				p.search),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(CreateToolName,
				"Create a work package in a project, with dates for the Gantt chart.",
				p.create),
		},
		{
			Tool: tools.NewTool(UpdateToolName,
				"Update a work package: subject, description, dates, assignee, estimate or status.",
				p.update),
			Idempotent: true,
		},
		{
			Tool: tools.NewTool(AssignToolName,
				"Assign a work package to a user by email address.",
				p.assign),
			Idempotent: true,
		},
	}
}

func (p *Provider) view(wp *openproject.WorkPackage) View {
	return View{
		ID:          wp.ID,
		Subject:     wp.Subject,
		Description: wp.Description.RawOr(""),
		Project:     wp.Links.Project.TitleOr(""),
		ProjectID:   wp.Links.Project.ID(),
		StartDate:   wp.StartDate,
		DueDate:     wp.DueDate,
		Status:      wp.Links.Status.TitleOr("Unknown"),
		Assignee:    wp.Links.Assignee.TitleOr("Unassigned"),
		URL:         p.client.WorkPackageURL(wp.ID),
	}
}

func (p *Provider) list(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	workPackages, err := p.client.ListWorkPackages(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(workPackages))
	for i := range workPackages {
		views[i] = p.view(&workPackages[i])
		views[i].ProjectID = req.ProjectID
	}
	return &ListResponse{
		Success:      true,
		Message:      fmt.Sprintf("Found %d work packages in project %d", len(views), req.ProjectID),
		WorkPackages: views,
	}, nil
}

func (p *Provider) search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if len(query) < 2 {
		return nil, errors.New("search query must be at least 2 characters")
	}

	workPackages, err := p.client.SearchWorkPackages(ctx, query, req.ProjectID)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(workPackages))
	for i := range workPackages {
		views[i] = p.view(&workPackages[i])
		views[i].Description = truncate(views[i].Description, 200)
	}

	msg := fmt.Sprintf("Found %d work packages matching %q", len(views), query)
	if req.ProjectID > 0 {
		msg += fmt.Sprintf(" in project %d", req.ProjectID)
	}
	return &SearchResponse{
		Success:      true,
		Message:      msg,
		Query:        query,
		ProjectID:    req.ProjectID,
		WorkPackages: views,
	}, nil
}

func (p *Provider) create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, errors.New("work package subject is required and cannot be empty")
	}

	wp, err := p.client.CreateWorkPackage(ctx, openproject.WorkPackageCreate{
		ProjectID:      req.ProjectID,
		Subject:        subject,
		Description:    strings.TrimSpace(req.Description),
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		ParentID:       req.ParentID,
		AssigneeID:     req.AssigneeID,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		return nil, err
	}

	view := p.view(wp)
	view.ProjectID = req.ProjectID
	return &CreateResponse{
		Success:     true,
		Message:     fmt.Sprintf("Work package %q created successfully", subject),
		WorkPackage: view,
	}, nil
}

func (p *Provider) update(ctx context.Context, req *UpdateRequest) (*UpdateResponse, error) {
	statusID, err := resolveStatusID(req.Status)
	if err != nil {
		return nil, err
	}

	patch := openproject.WorkPackagePatch{
		Subject:        req.Subject,
		Description:    req.Description,
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		AssigneeID:     req.AssigneeID,
		EstimatedHours: req.EstimatedHours,
	}
	if statusID > 0 {
		patch.StatusID = &statusID
	}
	if patch.IsZero() {
		return nil, errors.New("no updates provided; specify at least one field to update")
	}

	wp, err := p.client.UpdateWorkPackage(ctx, req.WorkPackageID, patch)
	if err != nil {
		return nil, err
	}
	return &UpdateResponse{
		Success:     true,
		Message:     fmt.Sprintf("Work package %d updated successfully", req.WorkPackageID),
		WorkPackage: p.view(wp),
	}, nil
}

func (p *Provider) assign(ctx context.Context, req *AssignRequest) (*AssignResponse, error) {
	user, err := p.client.FindUserByEmail(ctx, req.AssigneeEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Errorf("user with email %q not found", req.AssigneeEmail)
	}

	wp, err := p.client.UpdateWorkPackage(ctx, req.WorkPackageID, openproject.WorkPackagePatch{
		AssigneeID: &user.ID,
	})
	if err != nil {
		return nil, err
	}
	return &AssignResponse{
		Success:     true,
		Message:     fmt.Sprintf("Work package %d assigned to %s", req.WorkPackageID, user.Name),
		WorkPackage: p.view(wp),
		Assignee: AssigneeView{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
