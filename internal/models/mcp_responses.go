package models

// InitializeResponse is the JSON payload answering the "initialize" method.
type InitializeResponse struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// ServerInfo identifies the server to the client.
type ServerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Capabilities advertises what the server supports.
type Capabilities struct {
	Tools ToolsCapabilities `json:"tools"`
}

// ToolsCapabilities is an empty object for now.
type ToolsCapabilities struct{}

// ToolsListResponse is the JSON payload answering the "tools/list" method.
type ToolsListResponse struct {
	Tools []ToolDefinition `json:"tools"`
}

// ToolDefinition describes one callable tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema Schema          `json:"inputSchema"`
	Annotations ToolAnnotations `json:"annotations"`
}

// Schema is a JSON schema kept as a free-form map.
type Schema map[string]interface{}

// ToolAnnotations hints at a tool's behavior.
type ToolAnnotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint"`
	DestructiveHint bool `json:"destructiveHint"`
}
