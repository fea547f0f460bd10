// Package projects exposes project listing, creation and summary tools.
package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
)

const (
	ListToolName    = "get_projects"
	CreateToolName  = "create_project"
	SummaryToolName = "get_project_summary"
)

// View is the shaped project returned to the agent.
type View struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	URL         string `json:"url"`
}

type ListRequest struct{}

type ListResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Projects []View `json:"projects"`
}

type CreateRequest struct {
	Name        string `json:"name" validate:"required" jsonschema:"description=Project name."`
	Description string `json:"description,omitempty" jsonschema:"description=Project description."`
}

type CreateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Project View   `json:"project"`
}

type SummaryRequest struct {
	ProjectID int `json:"project_id" validate:"required,gt=0" jsonschema:"description=ID of the project to summarize."`
}

// Summary aggregates the work package portfolio of a project.
type Summary struct {
	TotalWorkPackages      int            `json:"total_work_packages"`
	WorkPackagesWithDates  int            `json:"work_packages_with_dates"`
	AssignedWorkPackages   int            `json:"assigned_work_packages"`
	UnassignedWorkPackages int            `json:"unassigned_work_packages"`
	StatusBreakdown        map[string]int `json:"status_breakdown"`
	// GanttReady is true when at least one work package carries dates.
	GanttReady bool `json:"gantt_ready"`
}

type SummaryResponse struct {
	Success bool    `json:"success"`
	Project View    `json:"project"`
	Summary Summary `json:"summary"`
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
				"List all projects in OpenProject.",
				p.list),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(CreateToolName,
				"Create a new project in OpenProject.",
				p.create),
		},
		{
			Tool: tools.NewTool(SummaryToolName,
				"Summarize a project: work package counts, assignments and status breakdown.",
				p.summary),
			ReadOnly: true,
		},
	}
}

func (p *Provider) view(project *openproject.Project) View {
	return View{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description.Raw,
		Status:      project.Status,
		Identifier:  project.Identifier,
		URL:         p.client.ProjectURL(project.Identifier),
	}
}

func (p *Provider) list(ctx context.Context, _ *ListRequest) (*ListResponse, error) {
	projects, err := p.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(projects))
	for i := range projects {
		views[i] = p.view(&projects[i])
	}
	return &ListResponse{
		Success:  true,
		Message:  fmt.Sprintf("Found %d projects", len(views)),
		Projects: views,
	}, nil
}

func (p *Provider) create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("project name is required and cannot be empty")
	}

	project, err := p.client.CreateProject(ctx, openproject.ProjectCreate{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		return nil, err
	}
	return &CreateResponse{
		Success: true,
		Message: fmt.Sprintf("Project %q created successfully", name),
		Project: p.view(project),
	}, nil
}

func (p *Provider) summary(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error) {
	project, err := p.client.GetProject(ctx, req.ProjectID)
	if err != nil {
		if openproject.IsNotFound(err) {
			return nil, errors.Errorf("project with ID %d not found", req.ProjectID)
		}
		return nil, err
	}

	workPackages, err := p.client.ListWorkPackages(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	return &SummaryResponse{
		Success: true,
		Project: p.view(project),
		Summary: Summarize(workPackages),
	}, nil
}

// Summarize aggregates work packages into the portfolio summary.
func Summarize(workPackages []openproject.WorkPackage) Summary {
	summary := Summary{
		TotalWorkPackages: len(workPackages),
		StatusBreakdown:   map[string]int{},
	}
	for i := range workPackages {
		wp := &workPackages[i]
		if wp.StartDate != "" || wp.DueDate != "" {
			summary.WorkPackagesWithDates++
		}
		if wp.Links.Assignee != nil {
			summary.AssignedWorkPackages++
		}
		summary.StatusBreakdown[wp.Links.Status.TitleOr("Unknown")]++
	}
	summary.UnassignedWorkPackages = summary.TotalWorkPackages - summary.AssignedWorkPackages
	summary.GanttReady = summary.WorkPackagesWithDates > 0
	return summary
}
