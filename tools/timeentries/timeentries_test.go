package timeentries_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
	"github.com/davidvv/openproject-mcp-server/tools/timeentries"
)

const testAPIKey = "0123456789abcdef0123456789abcdef01234567"

func callTool(t *testing.T, regs []tools.Registration, name, input string) string {
	t.Helper()
	for _, r := range regs {
		if r.Tool.Name() == name {
			out, err := r.Tool.Call(context.Background(), input)
			require.NoError(t, err)
			return out
		}
	}
	t.Fatalf("tool %q not registered", name)
	return ""
}

func newProvider(t *testing.T, handler http.HandlerFunc) []tools.Registration {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openproject.NewClient(server.URL, testAPIKey,
		openproject.WithHTTPClient(server.Client()))
	return timeentries.New(client).Tools()
}

func Test_Log(t *testing.T) {
	var body map[string]any
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v3/time_entries", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 9, "hours": "PT2.5H", "spentOn": "2025-01-15",
			"comment": map[string]any{"raw": "pairing session"},
			"_links": map[string]any{
				"user":        map[string]any{"href": "/api/v3/users/3", "title": "Ada Lovelace"},
				"workPackage": map[string]any{"href": "/api/v3/work_packages/42", "title": "Design homepage"},
				"activity":    map[string]any{"href": "/api/v3/time_entries/activities/1", "title": "Development"},
			},
		})
	})

	out := callTool(t, regs, timeentries.LogToolName, `{
		"work_package_id": 42,
		"hours": 2.5,
		"spent_on": "2025-01-15",
		"comment": "pairing session"
	}`)

	var res timeentries.LogResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "Logged 2.5 hours on 2025-01-15", res.Message)
	assert.Equal(t, 2.5, res.TimeEntry.Hours)
	assert.Equal(t, "Ada Lovelace", res.TimeEntry.User)
	assert.Equal(t, 42, res.TimeEntry.WorkPackage.ID)
	assert.Equal(t, "Development", res.TimeEntry.Activity)

	assert.Equal(t, "PT2.5H", body["hours"])
}

func Test_Log_HoursOutOfRange(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected for invalid input")
	})

	out := callTool(t, regs, timeentries.LogToolName,
		`{"work_package_id": 42, "hours": 25, "spent_on": "2025-01-15"}`)
	assert.JSONEq(t, `{"success": false, "error": "hours must be at most 24"}`, out)

	out = callTool(t, regs, timeentries.LogToolName,
		`{"work_package_id": 42, "hours": -1, "spent_on": "2025-01-15"}`)
	assert.JSONEq(t, `{"success": false, "error": "hours must be greater than 0"}`, out)
}

func Test_List(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/time_entries", r.URL.Path)
		assert.Equal(t,
			`[{"project":{"operator":"=","values":["7"]}},{"spent_on":{"operator":">=d","values":["2025-01-01"]}}]`,
			r.URL.Query().Get("filters"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 2,
			"count": 2,
			"_embedded": map[string]any{"elements": []map[string]any{
				{"id": 1, "hours": "PT8H", "spentOn": "2025-01-15",
					"_links": map[string]any{
						"user": map[string]any{"title": "Ada Lovelace"},
					}},
				{"id": 2, "hours": "PT1H30M", "spentOn": "2025-01-16",
					"_links": map[string]any{
						"user": map[string]any{"title": "Alan Turing"},
					}},
			}},
		})
	})

	out := callTool(t, regs, timeentries.ListToolName,
		`{"project_id": 7, "from_date": "2025-01-01"}`)

	var res timeentries.ListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "Found 2 time entries (project 7, from 2025-01-01)", res.Message)
	assert.Equal(t, 2, res.Summary.TotalEntries)
	assert.Equal(t, 9.5, res.Summary.TotalHours)
	require.Len(t, res.TimeEntries, 2)
	assert.Equal(t, 1.5, res.TimeEntries[1].Hours)
}

func Test_Update_NoFields(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected for invalid input")
	})

	out := callTool(t, regs, timeentries.UpdateToolName, `{"time_entry_id": 9}`)
	assert.JSONEq(t, `{"success": false, "error": "no updates provided; specify at least one field to update"}`, out)
}

func Test_Update(t *testing.T) {
	var body map[string]any
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v3/time_entries/9", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 9, "hours": "PT4H", "spentOn": "2025-01-16",
		})
	})

	out := callTool(t, regs, timeentries.UpdateToolName,
		`{"time_entry_id": 9, "hours": 4, "spent_on": "2025-01-16"}`)

	var res timeentries.UpdateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "Time entry 9 updated successfully", res.Message)
	assert.Equal(t, 4.0, res.TimeEntry.Hours)

	assert.Equal(t, "PT4H", body["hours"])
	assert.Equal(t, "2025-01-16", body["spentOn"])
}

func Test_Delete(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v3/time_entries/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	out := callTool(t, regs, timeentries.DeleteToolName, `{"time_entry_id": 9}`)
	assert.JSONEq(t, `{"success": true, "message": "Time entry 9 deleted successfully"}`, out)
}

func Test_Report(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 4,
			"count": 4,
			"_embedded": map[string]any{"elements": []map[string]any{
				{"id": 1, "hours": "PT8H", "spentOn": "2025-01-16",
					"_links": map[string]any{
						"user":        map[string]any{"title": "Ada Lovelace"},
						"activity":    map[string]any{"title": "Development"},
						"workPackage": map[string]any{"title": "Design homepage"},
					}},
				{"id": 2, "hours": "PT2H", "spentOn": "2025-01-15",
					"_links": map[string]any{
						"user":        map[string]any{"title": "Alan Turing"},
						"activity":    map[string]any{"title": "Testing"},
						"workPackage": map[string]any{"title": "Fix login"},
					}},
				{"id": 3, "hours": "PT3H", "spentOn": "2025-01-15",
					"_links": map[string]any{
						"user":        map[string]any{"title": "Alan Turing"},
						"activity":    map[string]any{"title": "Development"},
						"workPackage": map[string]any{"title": "Design homepage"},
					}},
				{"id": 4, "hours": "PT30M", "spentOn": "2025-01-16",
					"_links": map[string]any{
						"user":        map[string]any{"title": "Ada Lovelace"},
						"activity":    map[string]any{"title": "Testing"},
						"workPackage": map[string]any{"title": "Fix login"},
					}},
			}},
		})
	})

	out := callTool(t, regs, timeentries.ReportToolName, `{"project_id": 7}`)

	var res struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Summary struct {
			TotalEntries int     `json:"total_entries"`
			TotalHours   float64 `json:"total_hours"`
			DateRange    struct {
				From string `json:"from"`
				To   string `json:"to"`
			} `json:"date_range"`
		} `json:"summary"`
		Breakdown struct {
			ByUser        map[string]float64 `json:"by_user"`
			ByActivity    map[string]float64 `json:"by_activity"`
			ByWorkPackage map[string]float64 `json:"by_work_package"`
			ByDate        map[string]float64 `json:"by_date"`
		} `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.True(t, res.Success)
	assert.Equal(t, "Time tracking report (project 7)", res.Message)
	assert.Equal(t, 4, res.Summary.TotalEntries)
	assert.Equal(t, 13.5, res.Summary.TotalHours)
	assert.Equal(t, "all time", res.Summary.DateRange.From)
	assert.Equal(t, "present", res.Summary.DateRange.To)

	assert.Equal(t, map[string]float64{"Ada Lovelace": 8.5, "Alan Turing": 5}, res.Breakdown.ByUser)
	assert.Equal(t, map[string]float64{"Development": 11, "Testing": 2.5}, res.Breakdown.ByActivity)
	assert.Equal(t, map[string]float64{"Design homepage": 11, "Fix login": 2.5}, res.Breakdown.ByWorkPackage)
	assert.Equal(t, map[string]float64{"2025-01-15": 5, "2025-01-16": 8.5}, res.Breakdown.ByDate)

	// groups are emitted by hours descending; dates chronologically
	assert.Less(t,
		strings.Index(out, "Ada Lovelace"),
		strings.Index(out, "Alan Turing"))
	assert.Less(t,
		strings.Index(out, "2025-01-15"),
		strings.Index(out, "2025-01-16"))
}
