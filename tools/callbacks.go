package tools

import (
	"context"

	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ Callback = (*LoggerCallback)(nil)
)

// LoggerCallback logs tool invocations to the package logger. Inputs
// are logged at DEBUG since they may carry user content.
type LoggerCallback struct {
	logger *xlog.PackageLogger
}

func NewLoggerCallback(logger *xlog.PackageLogger) *LoggerCallback {
	return &LoggerCallback{logger: logger}
}

func (l *LoggerCallback) OnToolStart(ctx context.Context, tool ITool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"input", input,
	)
}

func (l *LoggerCallback) OnToolEnd(ctx context.Context, tool ITool, input, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"output_len", len(output),
	)
}

func (l *LoggerCallback) OnToolError(ctx context.Context, tool ITool, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}
