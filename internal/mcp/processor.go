package mcp

import (
	"encoding/json"
	"fmt"

	"hashline-server/internal/errors"
	"hashline-server/internal/models"
	"hashline-server/internal/service"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "hashline-server"
	serverVersion   = "1.0.0"
)

// ToolCallParams carries the parameters of a tools/call request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Processor dispatches JSON-RPC methods to the text file service and shapes
// the results for MCP clients.
type Processor struct {
	service service.TextFileService
}

// NewProcessor creates a Processor.
func NewProcessor(svc service.TextFileService) *Processor {
	return &Processor{service: svc}
}

// ProcessRequest handles one JSON-RPC request. Protocol-level failures come
// back as a JSON-RPC error; tool execution failures come back as a text
// result with IsError set, so clients can surface them to the model.
func (p *Processor) ProcessRequest(req models.JSONRPCRequest) (interface{}, *models.JSONRPCError) {
	switch req.Method {
	case "initialize":
		return p.handleInitialize(), nil
	case "notifications/initialized":
		// Notification; acknowledged without a result.
		return nil, nil
	case "tools/list":
		return p.handleToolsList(), nil
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, errors.ToJSONRPCError(
				errors.NewInvalidParamsError("Invalid parameters for tools/call: "+err.Error(), nil))
		}
		return p.handleToolCall(params.Name, params.Arguments)
	case "roots/set":
		var params models.SetRootsRequest
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, errors.ToJSONRPCError(
				errors.NewInvalidParamsError("Invalid parameters for roots/set: "+err.Error(), nil))
		}
		resp, errDetail := p.service.SetRoots(params)
		if errDetail != nil {
			return nil, errors.ToJSONRPCError(errDetail)
		}
		return resp, nil
	default:
		return nil, errors.ToJSONRPCError(errors.NewMethodNotFoundError(req.Method))
	}
}

func (p *Processor) handleInitialize() *models.InitializeResponse {
	return &models.InitializeResponse{
		ProtocolVersion: protocolVersion,
		Capabilities:    models.Capabilities{Tools: models.ToolsCapabilities{}},
		ServerInfo: models.ServerInfo{
			Name:        serverName,
			Version:     serverVersion,
			Description: "Line-oriented text file editing with content-addressed anchors",
		},
	}
}

func (p *Processor) handleToolsList() *models.ToolsListResponse {
	return &models.ToolsListResponse{
		Tools: []models.ToolDefinition{
			{
				Name: "read_text_file",
				Description: "Read a text file, returning each line tagged with its line number and " +
					"content hash (\"line_num:hash|content\"), followed by the total line count and a " +
					"whole-file hash. The line tags are the anchors edit_text_file expects, and the " +
					"file hash is required to edit the file.",
				InputSchema: models.Schema{
					"type": "object",
					"properties": map[string]interface{}{
						"path": map[string]interface{}{
							"type":        "string",
							"description": "Absolute path of the file to read",
						},
					},
					"required": []string{"path"},
				},
				Annotations: models.ToolAnnotations{ReadOnlyHint: true},
			},
			{
				Name: "edit_text_file",
				Description: "Apply a batch of line edits to a text file. Each operation targets a " +
					"line by its \"line_num:hash\" anchor from a prior read_text_file call; ranged " +
					"operations additionally take an end_anchor. The file_hash from that read must be " +
					"supplied and still match the file, otherwise the edit is rejected and the file " +
					"must be re-read. The whole batch succeeds or fails together.",
				InputSchema: models.Schema{
					"type": "object",
					"properties": map[string]interface{}{
						"path": map[string]interface{}{
							"type":        "string",
							"description": "Absolute path of the file to edit",
						},
						"file_hash": map[string]interface{}{
							"type":        "string",
							"description": "Whole-file hash from the last read_text_file call",
						},
						"operations": map[string]interface{}{
							"type":        "array",
							"description": "Edit operations, applied as one atomic batch",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"op_type": map[string]interface{}{
										"type": "string",
										"enum": []string{"replace", "insert_after", "insert_before", "delete"},
									},
									"anchor": map[string]interface{}{
										"type":        "string",
										"description": "Target line as \"line_num:hash\"",
									},
									"end_anchor": map[string]interface{}{
										"type":        "string",
										"description": "Inclusive range end for replace and delete",
									},
									"content": map[string]interface{}{
										"type":        "string",
										"description": "Replacement or inserted text; may span multiple lines",
									},
								},
								"required": []string{"op_type", "anchor"},
							},
						},
					},
					"required": []string{"path", "file_hash", "operations"},
				},
				Annotations: models.ToolAnnotations{DestructiveHint: true},
			},
		},
	}
}

func (p *Processor) handleToolCall(toolName string, toolArgs json.RawMessage) (interface{}, *models.JSONRPCError) {
	switch toolName {
	case "read_text_file":
		var params models.ReadTextFileRequest
		if err := json.Unmarshal(toolArgs, &params); err != nil {
			return nil, errors.ToJSONRPCError(
				errors.NewInvalidParamsError("Invalid parameters for read_text_file: "+err.Error(), nil))
		}
		resp, errDetail := p.service.ReadTextFile(params)
		if errDetail != nil {
			return toolError(errDetail), nil
		}
		return toolText(formatReadResult(resp)), nil
	case "edit_text_file":
		var params models.EditTextFileRequest
		if err := json.Unmarshal(toolArgs, &params); err != nil {
			return nil, errors.ToJSONRPCError(
				errors.NewInvalidParamsError("Invalid parameters for edit_text_file: "+err.Error(), nil))
		}
		resp, errDetail := p.service.EditTextFile(params)
		if errDetail != nil {
			return toolError(errDetail), nil
		}
		return toolText(fmt.Sprintf("Successfully edited %s", resp.Path)), nil
	default:
		return &models.MCPToolResult{
			Content: []models.MCPToolContent{{Type: "text", Text: fmt.Sprintf("Error: Unknown tool '%s'.", toolName)}},
			IsError: true,
		}, nil
	}
}

// formatReadResult renders the tagged lines followed by the metadata footer
// the editing tool needs.
func formatReadResult(resp *models.ReadTextFileResponse) string {
	return fmt.Sprintf("%s\n---\nhashline_version: 1\ntotal_lines: %d\nfile_hash: %s\n",
		resp.Tagged, resp.TotalLines, resp.FileHash)
}

func toolText(text string) *models.MCPToolResult {
	return &models.MCPToolResult{
		Content: []models.MCPToolContent{{Type: "text", Text: text}},
	}
}

func toolError(errDetail *models.ErrorDetail) *models.MCPToolResult {
	return &models.MCPToolResult{
		Content: []models.MCPToolContent{{Type: "text", Text: "Error: " + errDetail.Message}},
		IsError: true,
	}
}
