package tools

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Definition converts a typed tool into its MCP wire definition,
// carrying the reflected input schema and the given annotations.
func Definition(t ITool, annotations mcp.ToolAnnotation) (mcp.Tool, error) {
	bs, err := json.Marshal(t.Parameters())
	if err != nil {
		return mcp.Tool{}, errors.Wrapf(err, "failed to encode schema for tool %q", t.Name())
	}
	def := mcp.NewToolWithRawSchema(t.Name(), t.Description(), bs)
	def.Annotations = annotations
	return def, nil
}

// Handler adapts a tool's Call to the MCP server handler signature.
// Domain failures are already encoded in the tool output; only
// malformed input becomes an MCP-level error result.
func Handler(t ITool, callbacks ...Callback) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		bs, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(errors.Wrap(err, "invalid arguments").Error()), nil
		}
		input := string(bs)

		for _, cb := range callbacks {
			cb.OnToolStart(ctx, t, input)
		}

		out, err := t.Call(ctx, input)
		if err != nil {
			for _, cb := range callbacks {
				cb.OnToolError(ctx, t, input, err)
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		for _, cb := range callbacks {
			cb.OnToolEnd(ctx, t, input, out)
		}
		return mcp.NewToolResultText(out), nil
	}
}
