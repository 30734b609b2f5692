package models

import "encoding/json"

// JSONRPCRequest represents a JSON-RPC 2.0 request object.
type JSONRPCRequest struct {
	// JSONRPC must be "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID is the client-chosen request identifier (string or number); the
	// response echoes it back. Omitted for notifications.
	ID interface{} `json:"id"`
	// Method names the operation to invoke.
	Method string `json:"method"`
	// Params is kept raw so parsing can be deferred until the method is known.
	Params json.RawMessage `json:"params"`
}

// JSONRPCErrorData carries application-specific context inside a JSON-RPC
// error object.
type JSONRPCErrorData struct {
	Path      string `json:"path,omitempty"`
	Operation string `json:"operation,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Details   string `json:"details,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    *JSONRPCErrorData `json:"data,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response object. Exactly one of
// Result and Error is set.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}
