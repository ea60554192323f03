// Package mcpserver exposes the scheduler as an MCP tool so assistant
// hosts can schedule appointments over stdio.
package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/penciled/penciled/internal/logger"
	"github.com/penciled/penciled/internal/scheduler"
)

// Processor is the scheduler surface the tool depends on; it is easy
// to mock in tests.
type Processor interface {
	Process(ctx context.Context, req scheduler.Request) (*scheduler.Confirmation, error)
}

// New builds the MCP server with the schedule_appointment tool
// registered.
func New(p Processor, version string) *server.MCPServer {
	s := server.NewMCPServer("penciled", version, server.WithToolCapabilities(false))

	tool := mcp.NewTool("schedule_appointment",
		mcp.WithDescription("Schedule a calendar appointment from a natural-language description, e.g. 'meeting with John tomorrow at 3 PM for 30 minutes'."),
		mcp.WithString("sentence",
			mcp.Required(),
			mcp.Description("Free-text description of the appointment to schedule."),
		),
		mcp.WithString("attendees",
			mcp.Description("Optional comma-separated attendee email addresses."),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("When true, resolve the slot but do not create the event."),
		),
	)

	s.AddTool(tool, scheduleHandler(p))
	return s
}

func scheduleHandler(p Processor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sentence, err := request.RequireString("sentence")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		req := scheduler.Request{
			Sentence:  sentence,
			Attendees: splitAttendees(request.GetString("attendees", "")),
			DryRun:    request.GetBool("dry_run", false),
		}

		conf, err := p.Process(ctx, req)
		if err != nil {
			logger.L.Error("schedule_appointment failed", "error", err, "sentence", sentence)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(conf.Summary()), nil
	}
}

func splitAttendees(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
