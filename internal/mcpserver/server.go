// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes homily lookups and detection for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/homilyservice"
)

const rulesURI = "homilyd://detection-rules"

// Server wraps the MCP server with homily tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *homilyservice.Service
	rules string
}

// New creates a new MCP server with all tools registered. cfg and limits are
// only used to render the detection rules resource.
func New(svc *homilyservice.Service, cfg boundary.Config, limits boundary.Limits) *Server {
	s := &Server{svc: svc, rules: DetectionRules(cfg, limits)}

	s.mcp = server.NewMCPServer(
		"homilyd",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_weekends",
		mcp.WithDescription("List weekend groups, newest first, with their recording counts and comparison state."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of weekends (default 50)")),
	), s.listWeekends)

	s.mcp.AddTool(mcp.NewTool("get_weekend",
		mcp.WithDescription("Return every homily summary recorded for one weekend."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Weekend group key, the Sunday date as YYYY-MM-DD")),
	), s.getWeekend)

	s.mcp.AddTool(mcp.NewTool("search_summaries",
		mcp.WithDescription("Full-text search through homily titles, descriptions and special context."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchSummaries)

	s.mcp.AddTool(mcp.NewTool("list_recordings",
		mcp.WithDescription("List library recordings, newest first, with their sidecar and analysis state."),
	), s.listRecordings)

	s.mcp.AddTool(mcp.NewTool("detect_homily",
		mcp.WithDescription("Locate the homily in a timed-text document. "+
			"Read the detection rules via get_detection_rules or the "+rulesURI+" resource first."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Timed-text (VTT) document")),
		mcp.WithBoolean("fallback", mcp.Description("Ask the language model when no Gospel marker is found")),
	), s.detectHomily)

	s.mcp.AddTool(mcp.NewTool("fetch_transcript",
		mcp.WithDescription("Download a transcript (.txt) or timed-text (.vtt) sidecar for an existing recording."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Sidecar name matching the recording, e.g. Mass-20250615.vtt")),
	), s.fetchTranscript)

	s.mcp.AddTool(mcp.NewTool("get_detection_rules",
		mcp.WithDescription("Returns the cue format and the boundary markers in force."),
	), s.getDetectionRules)

	s.mcp.AddResource(
		mcp.NewResource(rulesURI, "Homily Detection Rules",
			mcp.WithResourceDescription("Cue format and boundary heuristics used by detect_homily."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listWeekends(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 50)
	groups, total, err := s.svc.ListWeekends(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"weekends": groups, "total": total})
}

func (s *Server) getWeekend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Weekend(ctx, key)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no recordings for weekend %s", key)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(detail)
}

func (s *Server) searchSummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no summaries found"), nil
	}
	return jsonResult(results)
}

func (s *Server) listRecordings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListRecordings(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) detectHomily(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Detect(ctx, []byte(doc), req.GetBool("fallback", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getDetectionRules(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.rules), nil
}

func (s *Server) readRulesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      rulesURI,
			MIMEType: "text/markdown",
			Text:     s.rules,
		},
	}, nil
}
