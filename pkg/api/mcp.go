// CLAUDE:SUMMARY MCP tools over the shared endpoints: student search, school listing, dashboard stats.
package api

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kit"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// RegisterMCPTools registers the registry MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, store *registry.Store) {
	registerSearchStudent(srv, store)
	registerListSchools(srv, store)
	registerStats(srv, store)
}

func registerSearchStudent(srv *server.MCPServer, store *registry.Store) {
	tool := mcp.NewTool("search_student",
		mcp.WithDescription("Search enrolled students by name fragment or CPF digits."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Name fragment or CPF")),
	)

	kit.RegisterMCPTool(srv, tool, searchStudentsEndpoint(store),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			q, _ := req.GetArguments()["query"].(string)
			return &kit.MCPDecodeResult{
				Request:   &searchStudentsReq{Query: q},
				EnrichCtx: mcpTransport,
			}, nil
		})
}

func registerListSchools(srv *server.MCPServer, store *registry.Store) {
	tool := mcp.NewTool("list_schools",
		mcp.WithDescription("List municipal schools, optionally ordered by distance from a coordinate."),
		mcp.WithString("lat", mcp.Description("Latitude of the reference point")),
		mcp.WithString("lng", mcp.Description("Longitude of the reference point")),
		mcp.WithString("limit", mcp.Description("Maximum number of schools to return")),
	)

	kit.RegisterMCPTool(srv, tool, listSchoolsEndpoint(store),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			out := &listSchoolsReq{}
			if v, _ := args["lat"].(string); v != "" {
				out.Lat, _ = strconv.ParseFloat(v, 64)
			}
			if v, _ := args["lng"].(string); v != "" {
				out.Lng, _ = strconv.ParseFloat(v, 64)
			}
			if v, _ := args["limit"].(string); v != "" {
				out.Limit, _ = strconv.Atoi(v)
			}
			return &kit.MCPDecodeResult{Request: out, EnrichCtx: mcpTransport}, nil
		})
}

func registerStats(srv *server.MCPServer, store *registry.Store) {
	tool := mcp.NewTool("registry_stats",
		mcp.WithDescription("Dashboard aggregates: totals per enrollment status, transport and special-needs counts."),
	)

	kit.RegisterMCPTool(srv, tool, statsEndpoint(store),
		func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: nil, EnrichCtx: mcpTransport}, nil
		})
}

func mcpTransport(ctx context.Context) context.Context {
	return kit.WithTransport(ctx, "mcp_stdio")
}
