// Package mcpserver is the composition root: it builds the MCP server
// and registers every tool, resource and prompt against a configured
// OpenProject client.
package mcpserver

import (
	"context"
	"io"
	"os"

	"github.com/effective-security/xlog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/davidvv/openproject-mcp-server/openproject"
	"github.com/davidvv/openproject-mcp-server/tools"
	"github.com/davidvv/openproject-mcp-server/tools/catalog"
	"github.com/davidvv/openproject-mcp-server/tools/health"
	"github.com/davidvv/openproject-mcp-server/tools/projects"
	"github.com/davidvv/openproject-mcp-server/tools/relations"
	"github.com/davidvv/openproject-mcp-server/tools/timeentries"
	"github.com/davidvv/openproject-mcp-server/tools/users"
	"github.com/davidvv/openproject-mcp-server/tools/workpackages"
)

var logger = xlog.NewPackageLogger("github.com/davidvv/openproject-mcp-server", "mcpserver")

const ServerName = "openproject-mcp-server"

// Version is set at build time via ldflags.
var Version = "dev"

// Server wires the OpenProject client into an MCP server.
type Server struct {
	client *openproject.Client
	mcp    *server.MCPServer
}

// New builds the MCP server with all tools, resources and prompts
// registered.
func New(client *openproject.Client) (*Server, error) {
	s := &Server{
		client: client,
		mcp: server.NewMCPServer(
			ServerName,
			Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithPromptCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
	}

	if err := s.registerTools(); err != nil {
		return nil, err
	}
	s.registerResources()
	s.registerPrompts()
	return s, nil
}

// Registrations returns the tool registrations of every provider, in
// registration order.
func (s *Server) Registrations() []tools.Registration {
	var regs []tools.Registration
	regs = append(regs, health.New(s.client).Tools()...)
	regs = append(regs, projects.New(s.client).Tools()...)
	regs = append(regs, workpackages.New(s.client).Tools()...)
	regs = append(regs, relations.New(s.client).Tools()...)
	regs = append(regs, users.New(s.client).Tools()...)
	regs = append(regs, catalog.New(s.client).Tools()...)
	regs = append(regs, timeentries.New(s.client).Tools()...)
	return regs
}

func (s *Server) registerTools() error {
	cb := tools.NewLoggerCallback(logger)
	for _, reg := range s.Registrations() {
		def, err := tools.Definition(reg.Tool, annotation(reg))
		if err != nil {
			return err
		}
		s.mcp.AddTool(def, tools.Handler(reg.Tool, cb))
	}
	return nil
}

func annotation(reg tools.Registration) mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(reg.ReadOnly),
		DestructiveHint: mcp.ToBoolPtr(reg.Destructive),
		IdempotentHint:  mcp.ToBoolPtr(reg.Idempotent),
	}
}

// ServeStdio serves MCP over stdin/stdout until ctx is canceled or
// stdin closes. Logs must go to stderr: stdout carries the protocol.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	logger.ContextKV(ctx, xlog.INFO,
		"event", "serving",
		"transport", "stdio",
		"version", Version,
	)
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

const instructions = `This server exposes an OpenProject instance for project management.

Use the tools to list and create projects, manage work packages and their
dependencies, assign people by email, and track time. Read-only catalog
tools (types, statuses, priorities, time activities) report the valid
values to use in create and update calls. Resources under openproject://
give read-only JSON snapshots, and the prompts generate analysis requests
for status reports, work package summaries, planning and workload review.`
