package models

// MCPToolContent is one content block inside a tool result.
type MCPToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MCPToolResult is the result of a tools/call invocation. Tool-level failures
// (anchor not found, digest conflict, scope violation) are reported here with
// IsError set, not as protocol errors, so agents always receive readable text.
type MCPToolResult struct {
	Content []MCPToolContent `json:"content"`
	IsError bool             `json:"isError"`
}
