package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools/projects"
)

const (
	StatusReportPromptName = "project_status_report"
	WPSummaryPromptName    = "work_package_summary"
	PlanningPromptName     = "project_planning_assistant"
	WorkloadPromptName     = "team_workload_analysis"
)

// workloadProjectLimit bounds how many projects the workload prompt
// scans when no explicit list is given.
const workloadProjectLimit = 5

// statusReportWPLimit bounds how many work packages the status report
// embeds, to keep the prompt readable.
const statusReportWPLimit = 10

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt(StatusReportPromptName,
		mcp.WithPromptDescription("Generate a comprehensive project status report."),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("ID of the project to report on."),
			mcp.RequiredArgument(),
		),
	), s.statusReportPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt(WPSummaryPromptName,
		mcp.WithPromptDescription("Summarize work packages in a project, optionally filtered by status."),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("ID of the project."),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("status_filter",
			mcp.ArgumentDescription("Status name to filter by, or \"all\" (default)."),
		),
	), s.wpSummaryPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt(PlanningPromptName,
		mcp.WithPromptDescription("Help with planning a new project structure."),
		mcp.WithArgument("project_name",
			mcp.ArgumentDescription("Name of the project to plan."),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("work_package_count",
			mcp.ArgumentDescription("Suggested number of work packages to create (default 5)."),
		),
	), s.planningPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt(WorkloadPromptName,
		mcp.WithPromptDescription("Analyze team workload across projects."),
		mcp.WithArgument("project_ids",
			mcp.ArgumentDescription("Comma-separated project IDs to analyze; all (up to 5) when omitted."),
		),
	), s.workloadPrompt)
}

func (s *Server) statusReportPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID, err := intArg(req.Params.Arguments, "project_id")
	if err != nil {
		return nil, err
	}

	project, err := s.client.GetProject(ctx, projectID)
	if err != nil {
		if openproject.IsNotFound(err) {
			return userPrompt("Project status report",
				fmt.Sprintf("Error: Project with ID %d not found. Please check the project ID and try again.", projectID)), nil
		}
		return nil, err
	}

	workPackages, err := s.client.ListWorkPackages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	embedded := workPackages
	if len(embedded) > statusReportWPLimit {
		embedded = embedded[:statusReportWPLimit]
	}
	items := make([]map[string]any, len(embedded))
	for i := range embedded {
		wp := &embedded[i]
		items[i] = map[string]any{
			"subject":    wp.Subject,
			"status":     wp.Links.Status.TitleOr("Unknown"),
			"assignee":   wp.Links.Assignee.TitleOr("Unassigned"),
			"start_date": wp.StartDate,
			"due_date":   wp.DueDate,
		}
	}

	data, err := json.MarshalIndent(map[string]any{
		"project": map[string]any{
			"name":        project.Name,
			"description": project.Description.Raw,
			"status":      project.Status,
			"url":         s.client.ProjectURL(project.Identifier),
		},
		"summary":       projects.Summarize(workPackages),
		"work_packages": items,
	}, "", "  ")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return userPrompt("Project status report",
		fmt.Sprintf(`Please analyze this project status data and provide a comprehensive report:

%s

Focus on:
1. Overall project health and progress
2. Work package completion status
3. Resource allocation (assigned vs unassigned work)
4. Timeline readiness (work packages with dates)
5. Any potential issues or recommendations
6. Next steps for project management`, data)), nil
}

func (s *Server) wpSummaryPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID, err := intArg(req.Params.Arguments, "project_id")
	if err != nil {
		return nil, err
	}
	statusFilter := req.Params.Arguments["status_filter"]
	if statusFilter == "" {
		statusFilter = "all"
	}

	workPackages, err := s.client.ListWorkPackages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(workPackages))
	for i := range workPackages {
		wp := &workPackages[i]
		status := wp.Links.Status.TitleOr("Unknown")
		if statusFilter != "all" && !strings.EqualFold(status, statusFilter) {
			continue
		}
		items = append(items, map[string]any{
			"id":          wp.ID,
			"subject":     wp.Subject,
			"description": truncate(wp.Description.RawOr(""), 200),
			"status":      status,
			"type":        wp.Links.Type.TitleOr("Unknown"),
			"priority":    wp.Links.Priority.TitleOr("Unknown"),
			"assignee":    wp.Links.Assignee.TitleOr("Unassigned"),
			"start_date":  wp.StartDate,
			"due_date":    wp.DueDate,
			"done_ratio":  wp.DoneRatio,
		})
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return userPrompt("Work package summary",
		fmt.Sprintf(`Please provide a summary of these work packages (filtered by status: %s):

%s

Please organize your summary by:
1. High-priority items requiring attention
2. Items by status category
3. Timeline overview (upcoming deadlines)
4. Resource allocation analysis
5. Recommendations for project management`, statusFilter, data)), nil
}

func (s *Server) planningPrompt(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := req.Params.Arguments["project_name"]
	if projectName == "" {
		return nil, errors.New("missing required argument project_name")
	}
	count := 5
	if v := req.Params.Arguments["work_package_count"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.Errorf("invalid work_package_count %q: expected a positive integer", v)
		}
		count = n
	}

	return userPrompt("Project planning assistant",
		fmt.Sprintf(`I need help planning a new project called %q.

Please help me create a project structure with approximately %d work packages. Consider:

1. **Project Planning Best Practices:**
   - Break down the project into logical phases
   - Create work packages with clear deliverables
   - Establish realistic timelines
   - Define dependencies between work packages

2. **For Each Work Package, suggest:**
   - Clear, actionable title
   - Brief description of what needs to be done
   - Estimated duration
   - Dependencies on other work packages
   - Priority level

3. **Timeline Considerations:**
   - Logical sequence of work packages
   - Dependencies that affect scheduling
   - Buffer time for unexpected issues
   - Milestone checkpoints

4. **Resource Planning:**
   - Skills required for each work package
   - Potential team member assignments
   - External dependencies or resources needed

Please provide a structured breakdown that I can use to create the project in OpenProject with proper dates and dependencies for a functional Gantt chart.`, projectName, count)), nil
}

// assigneeLoad aggregates one person's work across the analyzed
// projects.
type assigneeLoad struct {
	TotalTasks int   `json:"total_tasks"`
	InProgress int   `json:"in_progress"`
	Completed  int   `json:"completed"`
	Overdue    int   `json:"overdue"`
	Projects   []int `json:"projects"`
}

func (s *Server) workloadPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectIDs, err := projectIDsArg(req.Params.Arguments["project_ids"])
	if err != nil {
		return nil, err
	}
	if len(projectIDs) == 0 {
		all, err := s.client.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range all {
			projectIDs = append(projectIDs, p.ID)
			if len(projectIDs) == workloadProjectLimit {
				break
			}
		}
	}

	today := time.Now().Format(time.DateOnly)
	workload := orderedmap.New[string, *assigneeLoad]()
	totalWorkPackages := 0
	for _, projectID := range projectIDs {
		workPackages, err := s.client.ListWorkPackages(ctx, projectID)
		if err != nil {
			// inaccessible projects are skipped, not fatal
			continue
		}
		totalWorkPackages += len(workPackages)

		for i := range workPackages {
			wp := &workPackages[i]
			assignee := wp.Links.Assignee.TitleOr("Unassigned")
			load, ok := workload.Get(assignee)
			if !ok {
				load = &assigneeLoad{}
				workload.Set(assignee, load)
			}

			load.TotalTasks++
			if !containsInt(load.Projects, projectID) {
				load.Projects = append(load.Projects, projectID)
			}

			status := strings.ToLower(wp.Links.Status.TitleOr(""))
			switch {
			case strings.Contains(status, "progress") || strings.Contains(status, "active"):
				load.InProgress++
			case strings.Contains(status, "closed") || strings.Contains(status, "done"):
				load.Completed++
			}
			if wp.DueDate != "" && wp.DueDate < today {
				load.Overdue++
			}
		}
	}

	data, err := json.MarshalIndent(workload, "", "  ")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return userPrompt("Team workload analysis",
		fmt.Sprintf(`Please analyze this team workload data across %d projects:

Total work packages analyzed: %d

Team workload breakdown:
%s

Please provide analysis on:
1. **Workload Distribution:**
   - Who has the heaviest workload?
   - Are there team members with capacity for additional work?
   - Is work evenly distributed?

2. **Progress Analysis:**
   - Which team members are making good progress?
   - Are there bottlenecks or blockers?
   - Completion rates by team member

3. **Risk Assessment:**
   - Overdue items and their impact
   - Team members who might be overloaded
   - Projects that might need additional resources

4. **Recommendations:**
   - Workload rebalancing suggestions
   - Priority adjustments
   - Resource allocation improvements
   - Process improvements to increase efficiency`, len(projectIDs), totalWorkPackages, data)), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	})
}

func intArg(args map[string]string, name string) (int, error) {
	v, ok := args[name]
	if !ok || v == "" {
		return 0, errors.Errorf("missing required argument %s", name)
	}
	id, err := strconv.Atoi(v)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s %q: expected a positive integer", name, v)
	}
	return id, nil
}

func projectIDsArg(v string) ([]int, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(v, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, errors.Errorf("invalid project_ids %q: expected comma-separated project IDs", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
