// Command openproject-mcp serves OpenProject tools, resources and
// prompts over MCP stdio.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/effective-security/xlog"

	"github.com/davidvv/openproject-mcp-server/config"
	"github.com/davidvv/openproject-mcp-server/mcpserver"
	"github.com/davidvv/openproject-mcp-server/openproject"
)

var logger = xlog.NewPackageLogger("github.com/davidvv/openproject-mcp-server", "main")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "openproject-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol; all logging goes to stderr
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	level, err := xlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	xlog.SetGlobalLogLevel(level)

	client := openproject.NewClient(cfg.OpenProjectURL, cfg.OpenProjectAPIKey,
		openproject.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout.Duration()}),
		openproject.WithHostHeader(cfg.OpenProjectHost),
		openproject.WithPageSize(cfg.PaginationSize),
		openproject.WithRetries(cfg.MaxRetries),
		openproject.WithCacheTTL(cfg.CacheTimeout.Duration()),
	)

	s, err := mcpserver.New(client)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.KV(xlog.INFO,
		"event", "starting",
		"url", cfg.OpenProjectURL,
		"version", mcpserver.Version,
	)
	return s.ServeStdio(ctx)
}
