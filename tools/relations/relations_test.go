package relations_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
	"github.com/davidvv/openproject-mcp-server/tools/relations"
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
	return relations.New(client).Tools()
}

func Test_Create(t *testing.T) {
	var body map[string]any
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v3/work_packages/10/relations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 3, "type": "follows", "reverseType": "precedes", "lag": 2,
			"_links": map[string]any{
				"from": map[string]any{"href": "/api/v3/work_packages/10", "title": "Design"},
				"to":   map[string]any{"href": "/api/v3/work_packages/11", "title": "Build"},
			},
		})
	})

	out := callTool(t, regs, relations.CreateToolName, `{
		"from_work_package_id": 10,
		"to_work_package_id": 11,
		"lag": 2
	}`)

	var res relations.CreateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "Relation created: work package 10 follows work package 11", res.Message)
	assert.Equal(t, 10, res.Relation.From.ID)
	assert.Equal(t, 11, res.Relation.To.ID)
	assert.Equal(t, "precedes", res.Relation.ReverseType)

	// default relation type applied
	assert.Equal(t, "follows", body["type"])
	links := body["_links"].(map[string]any)
	assert.Equal(t, "/api/v3/work_packages/11", links["to"].(map[string]any)["href"])
}

func Test_Create_NegativeLag(t *testing.T) {
	var body map[string]any
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 4, "type": "follows", "reverseType": "precedes", "lag": -3,
			"_links": map[string]any{
				"from": map[string]any{"href": "/api/v3/work_packages/10", "title": "Design"},
				"to":   map[string]any{"href": "/api/v3/work_packages/11", "title": "Build"},
			},
		})
	})

	// negative lag overlaps the successor with its predecessor
	out := callTool(t, regs, relations.CreateToolName, `{
		"from_work_package_id": 10,
		"to_work_package_id": 11,
		"lag": -3
	}`)

	var res relations.CreateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, -3, res.Relation.Lag)

	assert.Equal(t, float64(-3), body["lag"])
}

func Test_Create_SelfRelation(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected for invalid input")
	})

	out := callTool(t, regs, relations.CreateToolName, `{
		"from_work_package_id": 10,
		"to_work_package_id": 10
	}`)
	assert.JSONEq(t, `{"success": false, "error": "a work package cannot relate to itself"}`, out)
}

func Test_Create_UnknownType(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no HTTP call expected for invalid input")
	})

	out := callTool(t, regs, relations.CreateToolName, `{
		"from_work_package_id": 10,
		"to_work_package_id": 11,
		"relation_type": "loves"
	}`)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, false, res["success"])
	assert.Contains(t, res["error"], "relation_type must be one of")
}

func Test_List(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/work_packages/10/relations", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"count": 1,
			"_embedded": map[string]any{"elements": []map[string]any{
				{"id": 3, "type": "follows", "reverseType": "precedes", "lag": 0,
					"_links": map[string]any{
						"from": map[string]any{"href": "/api/v3/work_packages/10", "title": "Design"},
						"to":   map[string]any{"href": "/api/v3/work_packages/11", "title": "Build"},
					}},
			}},
		})
	})

	out := callTool(t, regs, relations.ListToolName, `{"work_package_id": 10}`)

	var res relations.ListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "Found 1 relations for work package 10", res.Message)
	require.Len(t, res.Relations, 1)
	assert.Equal(t, "Design", res.Relations[0].From.Title)
	assert.Equal(t, "Build", res.Relations[0].To.Title)
}

func Test_Delete(t *testing.T) {
	regs := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v3/relations/3", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	out := callTool(t, regs, relations.DeleteToolName, `{"relation_id": 3}`)
	assert.JSONEq(t, `{"success": true, "message": "Relation 3 deleted successfully"}`, out)
}
