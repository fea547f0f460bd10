// Package relations exposes tools for linking work packages into
// dependencies, listing relations and removing them.
package relations

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
)

const (
	CreateToolName = "create_work_package_dependency"
	ListToolName   = "get_work_package_relations"
	DeleteToolName = "delete_work_package_relation"
)

// EndpointView identifies one side of a relation.
type EndpointView struct {
	ID    int    `json:"id,omitempty"`
	Title string `json:"title"`
}

// View is the shaped relation returned to the agent.
type View struct {
	ID          int          `json:"id"`
	Type        string       `json:"type"`
	ReverseType string       `json:"reverse_type,omitempty"`
	Description string       `json:"description,omitempty"`
	Lag         int          `json:"lag"`
	From        EndpointView `json:"from_work_package"`
	To          EndpointView `json:"to_work_package"`
}

type CreateRequest struct {
	FromWorkPackageID int    `json:"from_work_package_id" validate:"required,gt=0" jsonschema:"description=ID of the work package that comes first."`
	ToWorkPackageID   int    `json:"to_work_package_id" validate:"required,gt=0" jsonschema:"description=ID of the work package that depends on the first."`
	RelationType      string `json:"relation_type,omitempty" validate:"omitempty,oneof=follows precedes blocks blocked relates duplicates duplicated" jsonschema:"description=Type of relation. Defaults to follows."`
	Description       string `json:"description,omitempty" jsonschema:"description=Optional description of the relation."`
	Lag               int    `json:"lag,omitempty" jsonschema:"description=Working days between finish of predecessor and start of successor; negative for overlap."`
}

type CreateResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Relation View   `json:"relation"`
}

type ListRequest struct {
	WorkPackageID int `json:"work_package_id" validate:"required,gt=0" jsonschema:"description=ID of the work package to get relations for."`
}

type ListResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	WorkPackageID int    `json:"work_package_id"`
	Relations     []View `json:"relations"`
}

type DeleteRequest struct {
	RelationID int `json:"relation_id" validate:"required,gt=0" jsonschema:"description=ID of the relation to delete."`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
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
			Tool: tools.NewTool(CreateToolName,
				"Create a dependency between two work packages for the Gantt chart.",
				p.create),
		},
		{
			Tool: tools.NewTool(ListToolName,
				"List all relations of a work package.",
				p.list),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(DeleteToolName,
				"Delete a work package relation.",
				p.delete),
			Destructive: true,
			Idempotent:  true,
		},
	}
}

func view(rel *openproject.Relation) View {
	return View{
		ID:          rel.ID,
		Type:        rel.Type,
		ReverseType: rel.ReverseType,
		Description: rel.Description,
		Lag:         rel.Lag,
		From: EndpointView{
			ID:    rel.Links.From.ID(),
			Title: rel.Links.From.TitleOr("Unknown"),
		},
		To: EndpointView{
			ID:    rel.Links.To.ID(),
			Title: rel.Links.To.TitleOr("Unknown"),
		},
	}
}

func (p *Provider) create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	if req.FromWorkPackageID == req.ToWorkPackageID {
		return nil, errors.New("a work package cannot relate to itself")
	}

	relationType := req.RelationType
	if relationType == "" {
		relationType = "follows"
	}

	rel, err := p.client.CreateRelation(ctx, openproject.RelationCreate{
		FromID:      req.FromWorkPackageID,
		ToID:        req.ToWorkPackageID,
		Type:        relationType,
		Description: req.Description,
		Lag:         req.Lag,
	})
	if err != nil {
		return nil, err
	}
	return &CreateResponse{
		Success: true,
		Message: fmt.Sprintf("Relation created: work package %d %s work package %d",
			req.FromWorkPackageID, relationType, req.ToWorkPackageID),
		Relation: view(rel),
	}, nil
}

func (p *Provider) list(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	relations, err := p.client.ListRelations(ctx, req.WorkPackageID)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(relations))
	for i := range relations {
		views[i] = view(&relations[i])
	}
	return &ListResponse{
		Success:       true,
		Message:       fmt.Sprintf("Found %d relations for work package %d", len(views), req.WorkPackageID),
		WorkPackageID: req.WorkPackageID,
		Relations:     views,
	}, nil
}

func (p *Provider) delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	if err := p.client.DeleteRelation(ctx, req.RelationID); err != nil {
		return nil, err
	}
	return &DeleteResponse{
		Success: true,
		Message: fmt.Sprintf("Relation %d deleted successfully", req.RelationID),
	}, nil
}
