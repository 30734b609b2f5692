package models

// ErrorDetail is the internal representation of any request failure. It is
// created by the errors package and converted to a JSON-RPC error object or
// an HTTP error envelope at the transport edge.
type ErrorDetail struct {
	// Code is a JSON-RPC protocol code or an application-specific code.
	Code int `json:"code"`
	// Message is the human-readable description shown to the caller.
	Message string `json:"message"`
	// Data carries structured context such as the offending path or anchor.
	Data interface{} `json:"data,omitempty"`
}

// ErrorResponse is the HTTP error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
