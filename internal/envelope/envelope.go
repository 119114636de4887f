// Package envelope builds the uniform tool-result shape every tool in
// this server returns: {content:[{type,text}], isError}.
package envelope

import (
	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Text builds a successful text result.
func Text(text string) *mcp_sdk.CallToolResult {
	return &mcp_sdk.CallToolResult{
		Content: []mcp_sdk.Content{
			&mcp_sdk.TextContent{Text: text},
		},
	}
}

// Error builds a tool-level error result. This is distinct from a
// JSON-RPC protocol error: the envelope is still a well-formed result,
// just with IsError set.
func Error(text string) *mcp_sdk.CallToolResult {
	return &mcp_sdk.CallToolResult{
		IsError: true,
		Content: []mcp_sdk.Content{
			&mcp_sdk.TextContent{Text: text},
		},
	}
}

// AsMap renders a CallToolResult as the map shape expected by the
// hand-rolled JSON-RPC dispatch path (both transports), where responses
// are plain JSON.
func AsMap(r *mcp_sdk.CallToolResult) map[string]any {
	content := make([]map[string]any, 0, len(r.Content))
	for _, c := range r.Content {
		if tc, ok := c.(*mcp_sdk.TextContent); ok {
			content = append(content, map[string]any{
				"type": "text",
				"text": tc.Text,
			})
		}
	}
	return map[string]any{
		"content": content,
		"isError": r.IsError,
	}
}
