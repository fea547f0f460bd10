package mcpserver

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools/projects"
)

const (
	ProjectsResourceURI             = "openproject://projects"
	ProjectResourceURI              = "openproject://project/{project_id}"
	WorkPackagesResourceURI         = "openproject://work-packages/{project_id}"
	WorkPackageResourceURI          = "openproject://work-package/{work_package_id}"
	WorkPackageRelationsResourceURI = "openproject://work-package-relations/{work_package_id}"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(ProjectsResourceURI, "Projects",
		mcp.WithResourceDescription("All projects in the OpenProject instance."),
		mcp.WithMIMEType("application/json"),
	), s.readProjects)

	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(ProjectResourceURI, "Project",
		mcp.WithTemplateDescription("Details and work package count for one project."),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readProject)

	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(WorkPackagesResourceURI, "Project work packages",
		mcp.WithTemplateDescription("Work packages of one project."),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readWorkPackages)

	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(WorkPackageResourceURI, "Work package",
		mcp.WithTemplateDescription("Details for one work package."),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readWorkPackage)

	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(WorkPackageRelationsResourceURI, "Work package relations",
		mcp.WithTemplateDescription("Dependencies and relations of one work package."),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readWorkPackageRelations)
}

// workPackageView is the read-only work package snapshot served by
// resources; tools shape their own responses.
type workPackageView struct {
	ID            int    `json:"id"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
	ProjectID     int    `json:"project_id,omitempty"`
	Project       string `json:"project,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	Status        string `json:"status"`
	Type          string `json:"type"`
	Priority      string `json:"priority"`
	Assignee      string `json:"assignee"`
	EstimatedTime string `json:"estimated_time,omitempty"`
	DoneRatio     int    `json:"done_ratio,omitempty"`
	URL           string `json:"url"`
}

type relationEndpointView struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type relationView struct {
	ID          int                  `json:"id"`
	Type        string               `json:"type"`
	ReverseType string               `json:"reverse_type"`
	Description string               `json:"description"`
	Lag         int                  `json:"lag"`
	From        relationEndpointView `json:"from_work_package"`
	To          relationEndpointView `json:"to_work_package"`
}

func (s *Server) readProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all, err := s.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]projects.View, len(all))
	for i := range all {
		views[i] = projectView(s.client, &all[i])
	}
	return jsonResource(req.Params.URI, map[string]any{
		"projects":     views,
		"total":        len(views),
		"retrieved_at": retrievedAt(),
	})
}

func (s *Server) readProject(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := resourceID(req.Params.URI)
	if err != nil {
		return nil, err
	}

	project, err := s.client.GetProject(ctx, id)
	if err != nil {
		if openproject.IsNotFound(err) {
			return jsonResource(req.Params.URI, map[string]any{
				"error": "Project with ID " + strconv.Itoa(id) + " not found",
			})
		}
		return nil, err
	}

	workPackages, err := s.client.ListWorkPackages(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, map[string]any{
		"project":             projectView(s.client, project),
		"work_packages_count": len(workPackages),
		"retrieved_at":        retrievedAt(),
	})
}

func (s *Server) readWorkPackages(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectID, err := resourceID(req.Params.URI)
	if err != nil {
		return nil, err
	}

	workPackages, err := s.client.ListWorkPackages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	views := make([]workPackageView, len(workPackages))
	for i := range workPackages {
		views[i] = s.workPackageView(&workPackages[i])
		views[i].ProjectID = projectID
	}
	return jsonResource(req.Params.URI, map[string]any{
		"work_packages": views,
		"project_id":    projectID,
		"total":         len(views),
		"retrieved_at":  retrievedAt(),
	})
}

func (s *Server) readWorkPackage(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := resourceID(req.Params.URI)
	if err != nil {
		return nil, err
	}

	wp, err := s.client.GetWorkPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	view := s.workPackageView(wp)
	view.Project = wp.Links.Project.TitleOr("Unknown")
	view.EstimatedTime = wp.EstimatedTime
	view.DoneRatio = wp.DoneRatio
	return jsonResource(req.Params.URI, map[string]any{
		"work_package": view,
		"retrieved_at": retrievedAt(),
	})
}

func (s *Server) readWorkPackageRelations(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := resourceID(req.Params.URI)
	if err != nil {
		return nil, err
	}

	rels, err := s.client.ListRelations(ctx, id)
	if err != nil {
		return nil, err
	}

	views := make([]relationView, len(rels))
	for i := range rels {
		rel := &rels[i]
		views[i] = relationView{
			ID:          rel.ID,
			Type:        rel.Type,
			ReverseType: rel.ReverseType,
			Description: rel.Description,
			Lag:         rel.Lag,
			From: relationEndpointView{
				ID:    rel.Links.From.ID(),
				Title: rel.Links.From.TitleOr("Unknown"),
			},
			To: relationEndpointView{
				ID:    rel.Links.To.ID(),
				Title: rel.Links.To.TitleOr("Unknown"),
			},
		}
	}
	return jsonResource(req.Params.URI, map[string]any{
		"work_package_id": id,
		"relations":       views,
		"total":           len(views),
		"retrieved_at":    retrievedAt(),
	})
}

func (s *Server) workPackageView(wp *openproject.WorkPackage) workPackageView {
	return workPackageView{
		ID:          wp.ID,
		Subject:     wp.Subject,
		Description: wp.Description.RawOr(""),
		StartDate:   wp.StartDate,
		DueDate:     wp.DueDate,
		Status:      wp.Links.Status.TitleOr("Unknown"),
		Type:        wp.Links.Type.TitleOr("Unknown"),
		Priority:    wp.Links.Priority.TitleOr("Unknown"),
		Assignee:    wp.Links.Assignee.TitleOr("Unassigned"),
		URL:         s.client.WorkPackageURL(wp.ID),
	}
}

func projectView(client *openproject.Client, project *openproject.Project) projects.View {
	return projects.View{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description.Raw,
		Status:      project.Status,
		Identifier:  project.Identifier,
		URL:         client.ProjectURL(project.Identifier),
	}
}

// resourceID extracts the numeric ID from the last segment of a
// templated resource URI, e.g. openproject://project/42.
func resourceID(uri string) (int, error) {
	parts := strings.Split(strings.TrimSuffix(uri, "/"), "/")
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid resource URI %q: expected a numeric ID", uri)
	}
	return id, nil
}

func jsonResource(uri string, data any) ([]mcp.ResourceContents, error) {
	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode resource %q", uri)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(bs),
		},
	}, nil
}

func retrievedAt() string {
	return time.Now().UTC().Format(time.RFC3339)
}
