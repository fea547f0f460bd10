package tools

import (
	"context"

	"github.com/invopop/jsonschema"

	"github.com/davidvv/openproject-mcp-server/schema"
)

// tool adapts a run function into a Tool, reflecting the input schema
// from I.
type tool[I any, O any] struct {
	name        string
	description string
	params      *jsonschema.Schema
	run         func(context.Context, *I) (*O, error)
}

// NewTool wraps a run function as a typed tool.
func NewTool[I any, O any](name, description string, run func(context.Context, *I) (*O, error)) Tool[I, O] {
	var in I
	return &tool[I, O]{
		name:        name,
		description: description,
		params:      schema.MustParameters(in),
		run:         run,
	}
}

func (t *tool[I, O]) Name() string {
	return t.name
}

func (t *tool[I, O]) Description() string {
	return t.description
}

func (t *tool[I, O]) Parameters() *jsonschema.Schema {
	return t.params
}

func (t *tool[I, O]) Call(ctx context.Context, input string) (string, error) {
	return Invoke[I, O](ctx, t, input)
}

func (t *tool[I, O]) Run(ctx context.Context, req *I) (*O, error) {
	return t.run(ctx, req)
}

// Registration pairs a tool with the behavior hints surfaced as MCP
// tool annotations.
type Registration struct {
	Tool        ITool
	ReadOnly    bool
	Destructive bool
	Idempotent  bool
}
