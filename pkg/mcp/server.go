// Package mcp exposes cafe discovery to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/service"
)

const (
	serverName    = "soshbru"
	serverVersion = "0.1.0"
	filtersURI    = "soshbru://filters"
	defaultLimit  = 5
)

// MCPServer wraps the discovery service to expose it via MCP.
type MCPServer struct {
	discovery *service.DiscoveryService
	logger    *zap.Logger
}

// NewServer builds the MCP server with its tools and resources.
func NewServer(discovery *service.DiscoveryService, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	ms := &MCPServer{discovery: discovery, logger: logger}

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			filtersURI,
			"Filter Catalog",
			mcp.WithResourceDescription("Every filter id with its label and how many cafes it keeps"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleFiltersResource,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"list_filters",
			mcp.WithDescription("List the available cafe filters with their ids and labels."),
		),
		ms.handleListFilters,
	)

	s.AddTool(
		mcp.NewTool(
			"search_cafes",
			mcp.WithDescription("Search workspace cafes by text and filters. Several filters combine with OR unless mode is \"all\"."),
			mcp.WithString("query", mcp.Description("Text matched against cafe names and descriptions")),
			mcp.WithString("filters", mcp.Description("Comma separated filter ids, e.g. \"quietZone,fastWifi\"")),
			mcp.WithString("mode", mcp.Description("\"any\" (default) or \"all\"")),
		),
		ms.handleSearchCafes,
	)

	s.AddTool(
		mcp.NewTool(
			"get_cafe",
			mcp.WithDescription("Get one cafe with its amenities, hours and who is working there."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Cafe id")),
		),
		ms.handleGetCafe,
	)

	s.AddTool(
		mcp.NewTool(
			"suggest_cafes",
			mcp.WithDescription("Suggest cafes whose names resemble a possibly misspelled query."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Approximate cafe name")),
			mcp.WithNumber("limit", mcp.Description("Max number of suggestions (default 5)")),
		),
		ms.handleSuggestCafes,
	)

	return s
}

// Run serves MCP on stdin/stdout until ctx is done. The logger must not
// write to stdout.
func Run(ctx context.Context, discovery *service.DiscoveryService, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	stdio := server.NewStdioServer(NewServer(discovery, logger))
	stdio.SetErrorLogger(zap.NewStdLog(logger))

	logger.Info("Starting MCP server on Stdio")
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleFiltersResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	opts, err := ms.discovery.Filters(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load filters: %w", err)
	}
	jsonBytes, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleListFilters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := ms.discovery.Filters(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load filters: %v", err)), nil
	}
	lines := make([]string, len(opts))
	for i, o := range opts {
		lines[i] = fmt.Sprintf("%s: %s (%d cafes)", o.ID, o.Label, o.Count)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleSearchCafes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, _ := args["query"].(string)
	mode, _ := args["mode"].(string)
	rawFilters, _ := args["filters"].(string)

	var filters []string
	for _, f := range strings.Split(rawFilters, ",") {
		if f = strings.TrimSpace(f); f != "" {
			filters = append(filters, f)
		}
	}

	res, err := ms.discovery.Search(ctx, service.SearchRequest{Query: query, Filters: filters, Mode: mode})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(res)
}

func (ms *MCPServer) handleGetCafe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("id argument required"), nil
	}
	detail, err := ms.discovery.Cafe(ctx, id, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cafe %s: %v", id, err)), nil
	}
	return jsonResult(detail)
}

func (ms *MCPServer) handleSuggestCafes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query argument required"), nil
	}
	limit := defaultLimit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	got, err := ms.discovery.Suggest(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("suggest failed: %v", err)), nil
	}
	if len(got) == 0 {
		return mcp.NewToolResultText("No similar cafes found."), nil
	}
	lines := make([]string, len(got))
	for i, sg := range got {
		lines[i] = fmt.Sprintf("%s (id %s, score %.2f)", sg.Name, sg.CafeID, sg.Score)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
