package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvv/openproject-mcp-server/openproject"
)

const testAPIKey = "0123456789abcdef0123456789abcdef01234567"

func newServer(t *testing.T, handler http.HandlerFunc) *Server {
	t.Helper()
	hs := httptest.NewServer(handler)
	t.Cleanup(hs.Close)

	client := openproject.NewClient(hs.URL, testAPIKey,
		openproject.WithHTTPClient(hs.Client()))
	s, err := New(client)
	require.NoError(t, err)
	return s
}

func Test_Registrations(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected during registration")
	})

	want := []string{
		"health_check",
		"get_projects",
		"create_project",
		"get_project_summary",
		"get_work_packages",
		"search_work_packages",
		"create_work_package",
		"update_work_package",
		"assign_work_package_by_email",
		"create_work_package_dependency",
		"get_work_package_relations",
		"delete_work_package_relation",
		"get_users",
		"get_project_members",
		"get_work_package_types",
		"get_work_package_statuses",
		"get_priorities",
		"get_time_activities",
		"log_time_entry",
		"get_time_entries",
		"update_time_entry",
		"delete_time_entry",
		"get_time_report",
	}

	regs := s.Registrations()
	require.Len(t, regs, len(want))

	seen := map[string]bool{}
	for i, reg := range regs {
		assert.Equal(t, want[i], reg.Tool.Name())
		assert.False(t, seen[reg.Tool.Name()], "duplicate tool %q", reg.Tool.Name())
		seen[reg.Tool.Name()] = true
	}

	destructive := map[string]bool{}
	for _, reg := range regs {
		destructive[reg.Tool.Name()] = reg.Destructive
	}
	assert.True(t, destructive["delete_work_package_relation"])
	assert.True(t, destructive["delete_time_entry"])
	assert.False(t, destructive["get_projects"])
}

func Test_ResourceID(t *testing.T) {
	id, err := resourceID("openproject://project/42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	id, err = resourceID("openproject://work-package-relations/7")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = resourceID("openproject://project/abc")
	assert.Error(t, err)
	_, err = resourceID("openproject://projects")
	assert.Error(t, err)
}

func Test_ProjectsResource(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/projects", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"count": 1,
			"_embedded": map[string]any{"elements": []map[string]any{
				{"id": 7, "name": "Website", "identifier": "website",
					"description": map[string]any{"raw": "Marketing site"}},
			}},
		})
	})

	var req mcp.ReadResourceRequest
	req.Params.URI = ProjectsResourceURI

	contents, err := s.readProjects(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, ProjectsResourceURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var doc struct {
		Projects []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"projects"`
		Total       int    `json:"total"`
		RetrievedAt string `json:"retrieved_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	assert.Equal(t, 1, doc.Total)
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "Website", doc.Projects[0].Name)
	assert.Contains(t, doc.Projects[0].URL, "/projects/website")
	assert.NotEmpty(t, doc.RetrievedAt)
}

func Test_ProjectResource_NotFound(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	var req mcp.ReadResourceRequest
	req.Params.URI = "openproject://project/999"

	contents, err := s.readProject(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := contents[0].(mcp.TextResourceContents)
	assert.Contains(t, text.Text, "Project with ID 999 not found")
}

func Test_WorkPackageResource(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/work_packages/42", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "subject": "Design homepage",
			"description":   map[string]any{"raw": "Hero and nav"},
			"startDate":     "2025-01-10",
			"dueDate":       "2025-01-20",
			"estimatedTime": "PT16H",
			"doneRatio":     25,
			"_links": map[string]any{
				"project":  map[string]any{"href": "/api/v3/projects/7", "title": "Website"},
				"status":   map[string]any{"title": "In progress"},
				"type":     map[string]any{"title": "Task"},
				"priority": map[string]any{"title": "Normal"},
			},
		})
	})

	var req mcp.ReadResourceRequest
	req.Params.URI = "openproject://work-package/42"

	contents, err := s.readWorkPackage(context.Background(), req)
	require.NoError(t, err)

	text := contents[0].(mcp.TextResourceContents)
	var doc struct {
		WorkPackage struct {
			ID            int    `json:"id"`
			Project       string `json:"project"`
			Status        string `json:"status"`
			Assignee      string `json:"assignee"`
			EstimatedTime string `json:"estimated_time"`
			DoneRatio     int    `json:"done_ratio"`
		} `json:"work_package"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	assert.Equal(t, 42, doc.WorkPackage.ID)
	assert.Equal(t, "Website", doc.WorkPackage.Project)
	assert.Equal(t, "In progress", doc.WorkPackage.Status)
	assert.Equal(t, "Unassigned", doc.WorkPackage.Assignee)
	assert.Equal(t, "PT16H", doc.WorkPackage.EstimatedTime)
	assert.Equal(t, 25, doc.WorkPackage.DoneRatio)
}

func Test_StatusReportPrompt(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/projects/7":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 7, "name": "Website", "identifier": "website",
				"description": map[string]any{"raw": ""},
			})
		case "/api/v3/projects/7/work_packages":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"total": 2,
				"count": 2,
				"_embedded": map[string]any{"elements": []map[string]any{
					{"id": 1, "subject": "Design", "startDate": "2025-01-10",
						"_links": map[string]any{
							"status":   map[string]any{"title": "In progress"},
							"assignee": map[string]any{"title": "Ada Lovelace"},
						}},
					{"id": 2, "subject": "Build",
						"_links": map[string]any{
							"status": map[string]any{"title": "New"},
						}},
				}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	var req mcp.GetPromptRequest
	req.Params.Name = StatusReportPromptName
	req.Params.Arguments = map[string]string{"project_id": "7"}

	res, err := s.statusReportPrompt(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcp.RoleUser, res.Messages[0].Role)

	text := res.Messages[0].Content.(mcp.TextContent).Text
	assert.Contains(t, text, `"total_work_packages": 2`)
	assert.Contains(t, text, `"assigned_work_packages": 1`)
	assert.Contains(t, text, `"gantt_ready": true`)
	assert.Contains(t, text, "Ada Lovelace")
	assert.Contains(t, text, "Overall project health and progress")
}

func Test_StatusReportPrompt_NotFound(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"project_id": "999"}

	res, err := s.statusReportPrompt(context.Background(), req)
	require.NoError(t, err)
	text := res.Messages[0].Content.(mcp.TextContent).Text
	assert.Equal(t, "Error: Project with ID 999 not found. Please check the project ID and try again.", text)
}

func Test_WPSummaryPrompt_StatusFilter(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 2,
			"count": 2,
			"_embedded": map[string]any{"elements": []map[string]any{
				{"id": 1, "subject": "Design",
					"_links": map[string]any{"status": map[string]any{"title": "In progress"}}},
				{"id": 2, "subject": "Build",
					"_links": map[string]any{"status": map[string]any{"title": "New"}}},
			}},
		})
	})

	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"project_id": "7", "status_filter": "new"}

	res, err := s.wpSummaryPrompt(context.Background(), req)
	require.NoError(t, err)
	text := res.Messages[0].Content.(mcp.TextContent).Text
	assert.Contains(t, text, "filtered by status: new")
	assert.Contains(t, text, "Build")
	assert.NotContains(t, text, "Design")
}

func Test_PlanningPrompt(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected")
	})

	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"project_name": "CRM rollout"}

	res, err := s.planningPrompt(context.Background(), req)
	require.NoError(t, err)
	text := res.Messages[0].Content.(mcp.TextContent).Text
	assert.Contains(t, text, `"CRM rollout"`)
	assert.Contains(t, text, "approximately 5 work packages")

	req.Params.Arguments["work_package_count"] = "8"
	res, err = s.planningPrompt(context.Background(), req)
	require.NoError(t, err)
	text = res.Messages[0].Content.(mcp.TextContent).Text
	assert.Contains(t, text, "approximately 8 work packages")

	req.Params.Arguments = map[string]string{}
	_, err = s.planningPrompt(context.Background(), req)
	assert.Error(t, err)
}

func Test_WorkloadPrompt(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/7/work_packages"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"total": 2,
				"count": 2,
				"_embedded": map[string]any{"elements": []map[string]any{
					{"id": 1, "subject": "Design", "dueDate": "2020-01-01",
						"_links": map[string]any{
							"status":   map[string]any{"title": "In progress"},
							"assignee": map[string]any{"title": "Ada Lovelace"},
						}},
					{"id": 2, "subject": "Build",
						"_links": map[string]any{
							"status": map[string]any{"title": "Closed"},
						}},
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/8/work_packages"):
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"project_ids": "7, 8"}

	res, err := s.workloadPrompt(context.Background(), req)
	require.NoError(t, err)
	text := res.Messages[0].Content.(mcp.TextContent).Text

	assert.Contains(t, text, "across 2 projects")
	assert.Contains(t, text, "Total work packages analyzed: 2")
	assert.Contains(t, text, `"total_tasks": 1`)
	assert.Contains(t, text, `"overdue": 1`)
	assert.Contains(t, text, "Ada Lovelace")
	assert.Contains(t, text, "Unassigned")
}

func Test_WorkloadPrompt_InvalidIDs(t *testing.T) {
	s := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected")
	})

	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"project_ids": "7,abc"}

	_, err := s.workloadPrompt(context.Background(), req)
	assert.Error(t, err)
}
