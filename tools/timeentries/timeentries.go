// Package timeentries exposes time tracking tools: logging, listing,
// updating and deleting time entries, plus an aggregated report.
package timeentries

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
)

const (
	LogToolName    = "log_time_entry"
	ListToolName   = "get_time_entries"
	UpdateToolName = "update_time_entry"
	DeleteToolName = "delete_time_entry"
	ReportToolName = "get_time_report"
)

// WorkPackageRef identifies the work package a time entry belongs to.
type WorkPackageRef struct {
	ID    int    `json:"id,omitempty"`
	Title string `json:"title"`
}

// View is the shaped time entry returned to the agent. Hours are
// decimal, converted from the API's ISO-8601 durations.
type View struct {
	ID          int            `json:"id"`
	Hours       float64        `json:"hours"`
	SpentOn     string         `json:"spent_on"`
	Comment     string         `json:"comment"`
	User        string         `json:"user,omitempty"`
	WorkPackage WorkPackageRef `json:"work_package"`
	Project     string         `json:"project,omitempty"`
	Activity    string         `json:"activity,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
	URL         string         `json:"url,omitempty"`
}

type LogRequest struct {
	WorkPackageID int     `json:"work_package_id" validate:"required,gt=0" jsonschema:"description=ID of the work package to log time against."`
	Hours         float64 `json:"hours" validate:"required,gt=0,lte=24" jsonschema:"description=Hours spent as a decimal, e.g. 2.5 for 2 hours 30 minutes."`
	SpentOn       string  `json:"spent_on" validate:"required,datetime=2006-01-02" jsonschema:"description=Date when the work was done, YYYY-MM-DD."`
	Comment       string  `json:"comment,omitempty" jsonschema:"description=Description of the work done."`
	ActivityID    int     `json:"activity_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Activity type ID. Use get_time_activities to see available types."`
}

type LogResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TimeEntry View   `json:"time_entry"`
}

type ListRequest struct {
	WorkPackageID int    `json:"work_package_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Filter by work package ID."`
	ProjectID     int    `json:"project_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Filter by project ID."`
	UserID        int    `json:"user_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Filter by user ID."`
	FromDate      string `json:"from_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Entries from this date onwards, YYYY-MM-DD."`
	ToDate        string `json:"to_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Entries up to this date, YYYY-MM-DD."`
}

// ListSummary totals a listing of time entries.
type ListSummary struct {
	TotalEntries int     `json:"total_entries"`
	TotalHours   float64 `json:"total_hours"`
}

type ListResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Summary     ListSummary `json:"summary"`
	TimeEntries []View      `json:"time_entries"`
}

type UpdateRequest struct {
	TimeEntryID int      `json:"time_entry_id" validate:"required,gt=0" jsonschema:"description=ID of the time entry to update."`
	Hours       *float64 `json:"hours,omitempty" validate:"omitempty,gt=0,lte=24" jsonschema:"description=New hours value."`
	SpentOn     *string  `json:"spent_on,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=New date, YYYY-MM-DD."`
	Comment     *string  `json:"comment,omitempty" jsonschema:"description=New comment."`
	ActivityID  *int     `json:"activity_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=New activity ID."`
}

type UpdateResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TimeEntry View   `json:"time_entry"`
}

type DeleteRequest struct {
	TimeEntryID int `json:"time_entry_id" validate:"required,gt=0" jsonschema:"description=ID of the time entry to delete."`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ReportRequest struct {
	ProjectID     int    `json:"project_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Filter by project ID."`
	WorkPackageID int    `json:"work_package_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Filter by work package ID."`
	UserID        int    `json:"user_id,omitempty" validate:"omitempty,gt=0" jsonschema:"description=Filter by user ID."`
	FromDate      string `json:"from_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Report from this date, YYYY-MM-DD."`
	ToDate        string `json:"to_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Report up to this date, YYYY-MM-DD."`
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
			Tool: tools.NewTool(LogToolName,
				"Log time spent on a work package.",
				p.log),
		},
		{
			Tool: tools.NewTool(ListToolName,
				"List time entries, optionally filtered by work package, project, user or date range.",
				p.list),
			ReadOnly: true,
		},
		{
			Tool: tools.NewTool(UpdateToolName,
				"Update an existing time entry.",
				p.update),
			Idempotent: true,
		},
		{
			Tool: tools.NewTool(DeleteToolName,
				"Delete a time entry.",
				p.delete),
			Destructive: true,
			Idempotent:  true,
		},
		{
			Tool: tools.NewTool(ReportToolName,
				"Build a time tracking report with totals broken down by user, activity, work package and date.",
				p.report),
			ReadOnly: true,
		},
	}
}

func (p *Provider) view(entry *openproject.TimeEntry) View {
	return View{
		ID:      entry.ID,
		Hours:   round2(openproject.ParseHours(entry.Hours)),
		SpentOn: entry.SpentOn,
		Comment: entry.Comment.RawOr(""),
		User:    entry.Links.User.TitleOr("Unknown"),
		WorkPackage: WorkPackageRef{
			ID:    entry.Links.WorkPackage.ID(),
			Title: entry.Links.WorkPackage.TitleOr("Unknown"),
		},
		Project:   entry.Links.Project.TitleOr(""),
		Activity:  entry.Links.Activity.TitleOr("Unknown"),
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
		URL:       p.client.TimeEntryURL(entry.ID),
	}
}

func (p *Provider) log(ctx context.Context, req *LogRequest) (*LogResponse, error) {
	entry, err := p.client.CreateTimeEntry(ctx, openproject.TimeEntryCreate{
		WorkPackageID: req.WorkPackageID,
		Hours:         req.Hours,
		SpentOn:       req.SpentOn,
		Comment:       req.Comment,
		ActivityID:    req.ActivityID,
	})
	if err != nil {
		return nil, err
	}
	return &LogResponse{
		Success:   true,
		Message:   fmt.Sprintf("Logged %v hours on %s", req.Hours, req.SpentOn),
		TimeEntry: p.view(entry),
	}, nil
}

func (p *Provider) list(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	entries, err := p.client.ListTimeEntries(ctx, openproject.TimeEntryFilter{
		WorkPackageID: req.WorkPackageID,
		ProjectID:     req.ProjectID,
		UserID:        req.UserID,
		From:          req.FromDate,
		To:            req.ToDate,
	})
	if err != nil {
		return nil, err
	}

	var totalHours float64
	views := make([]View, len(entries))
	for i := range entries {
		views[i] = p.view(&entries[i])
		totalHours += views[i].Hours
	}

	return &ListResponse{
		Success: true,
		Message: fmt.Sprintf("Found %d time entries%s", len(views), filterSuffix(
			req.WorkPackageID, req.ProjectID, req.UserID, req.FromDate, req.ToDate)),
		Summary: ListSummary{
			TotalEntries: len(views),
			TotalHours:   round2(totalHours),
		},
		TimeEntries: views,
	}, nil
}

func (p *Provider) update(ctx context.Context, req *UpdateRequest) (*UpdateResponse, error) {
	patch := openproject.TimeEntryPatch{
		Hours:      req.Hours,
		SpentOn:    req.SpentOn,
		Comment:    req.Comment,
		ActivityID: req.ActivityID,
	}
	if patch.IsZero() {
		return nil, errors.New("no updates provided; specify at least one field to update")
	}

	entry, err := p.client.UpdateTimeEntry(ctx, req.TimeEntryID, patch)
	if err != nil {
		return nil, err
	}
	return &UpdateResponse{
		Success:   true,
		Message:   fmt.Sprintf("Time entry %d updated successfully", req.TimeEntryID),
		TimeEntry: p.view(entry),
	}, nil
}

func (p *Provider) delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	if err := p.client.DeleteTimeEntry(ctx, req.TimeEntryID); err != nil {
		return nil, err
	}
	return &DeleteResponse{
		Success: true,
		Message: fmt.Sprintf("Time entry %d deleted successfully", req.TimeEntryID),
	}, nil
}

func filterSuffix(workPackageID, projectID, userID int, from, to string) string {
	var parts []string
	if workPackageID > 0 {
		parts = append(parts, fmt.Sprintf("work package %d", workPackageID))
	}
	if projectID > 0 {
		parts = append(parts, fmt.Sprintf("project %d", projectID))
	}
	if userID > 0 {
		parts = append(parts, fmt.Sprintf("user %d", userID))
	}
	if from != "" {
		parts = append(parts, "from "+from)
	}
	if to != "" {
		parts = append(parts, "to "+to)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
