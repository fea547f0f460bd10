// Package tools defines the typed tool abstraction: a tool declares a
// JSON schema for its input, validates and runs typed requests, and
// always answers agent-visible failures as a JSON error envelope
// rather than a protocol error.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"

	"github.com/davidvv/openproject-mcp-server/metricskey"
	"github.com/davidvv/openproject-mcp-server/openproject"
)

// ErrFailedUnmarshalInput is returned by Call when the input is not
// valid JSON for the tool's schema.
var ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")

// ITool is a single operation exposed to the agent.
type ITool interface {
	// Name returns the name of the tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	Description() string
	// Parameters returns the JSON schema of the tool input.
	Parameters() *jsonschema.Schema

	// Call executes the tool with the given JSON input and returns the
	// result as JSON. If the input cannot be parsed, it returns
	// ErrFailedUnmarshalInput.
	Call(context.Context, string) (string, error)
}

type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Callback observes tool invocations.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, input string)
	OnToolEnd(ctx context.Context, tool ITool, input, output string)
	OnToolError(ctx context.Context, tool ITool, input string, err error)
}

// errorResult is the envelope returned to the agent when a tool fails
// for domain reasons: invalid arguments, API rejections, missing
// resources. Success is always false here.
type errorResult struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// Invoke implements Call for a typed tool: unmarshal, validate, run,
// encode. Domain failures become an error envelope in the result;
// only malformed input surfaces as a Go error.
func Invoke[I any, O any](ctx context.Context, t Tool[I, O], input string) (string, error) {
	var in I
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", errors.WithStack(ErrFailedUnmarshalInput)
	}

	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, t.Name())

	if err := Validate(&in); err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.Name())
		return errorJSON(err), nil
	}

	out, err := t.Run(ctx, &in)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.Name())
		return errorJSON(err), nil
	}
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, t.Name())

	bs, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode tool result")
	}
	return string(bs), nil
}

func errorJSON(err error) string {
	res := errorResult{Error: err.Error()}

	var apiErr *openproject.APIError
	if errors.As(err, &apiErr) && len(apiErr.Details) > 0 {
		res.Details = apiErr.Details
	}

	bs, _ := json.Marshal(res)
	return string(bs)
}
