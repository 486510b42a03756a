package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soshbru/soshbru/internal/manager"
	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/service"
)

func newTestMCP(t *testing.T) *MCPServer {
	t.Helper()
	col, err := cafe.LoadDefault()
	require.NoError(t, err)
	sessions, err := manager.NewSessionManager(4)
	require.NoError(t, err)
	return &MCPServer{discovery: service.NewDiscoveryService(col, sessions)}
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestSearchCafes(t *testing.T) {
	ms := newTestMCP(t)

	res, err := ms.handleSearchCafes(context.Background(), callTool("search_cafes", map[string]any{
		"filters": "quietZone, open",
		"mode":    "all",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out service.SearchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 2, out.Total)

	res, err = ms.handleSearchCafes(context.Background(), callTool("search_cafes", map[string]any{"mode": "most"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetCafe(t *testing.T) {
	ms := newTestMCP(t)

	res, err := ms.handleGetCafe(context.Background(), callTool("get_cafe", map[string]any{"id": "3"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Zen Zone")

	res, err = ms.handleGetCafe(context.Background(), callTool("get_cafe", map[string]any{"id": "404"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = ms.handleGetCafe(context.Background(), callTool("get_cafe", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListFiltersAndSuggest(t *testing.T) {
	ms := newTestMCP(t)

	res, err := ms.handleListFilters(context.Background(), callTool("list_filters", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "quietZone: Quiet Zone")

	res, err = ms.handleSuggestCafes(context.Background(), callTool("suggest_cafes", map[string]any{
		"query": "Tech Hb",
		"limit": float64(2),
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Tech Hub")
}

func TestFiltersResource(t *testing.T) {
	ms := newTestMCP(t)
	req := mcp.ReadResourceRequest{}
	req.Params.URI = filtersURI

	contents, err := ms.handleFiltersResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)

	var opts []service.FilterOption
	require.NoError(t, json.Unmarshal([]byte(text.Text), &opts))
	assert.NotEmpty(t, opts)
}

func TestNewServerBuilds(t *testing.T) {
	ms := newTestMCP(t)
	assert.NotNil(t, NewServer(ms.discovery, nil))
}
