package errors

import (
	"fmt"
	"net/http"
	"time"

	"hashline-server/internal/models"
)

// JSON-RPC error codes (JSON-RPC 2.0 specification).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Application-specific error codes, in the JSON-RPC server error range.
const (
	// CodeFileSystemError covers unreadable, unwritable, and missing paths;
	// the data payload's "type" field distinguishes the cases.
	CodeFileSystemError = -32001

	// CodeOperationLockFailed indicates the per-file lock could not be
	// acquired within the configured timeout.
	CodeOperationLockFailed = -32002

	// CodeFileTooLarge indicates the file exceeds the configured size limit.
	CodeFileTooLarge = -32003

	// CodeEditConflict indicates the supplied file digest no longer matches
	// the live file; the caller must re-read before editing.
	CodeEditConflict = -32004

	// CodeAnchorResolution indicates an anchor could not be resolved to a
	// unique line (not found or ambiguous).
	CodeAnchorResolution = -32005

	// CodeScopeViolation indicates the requested path is outside the
	// session's permitted roots.
	CodeScopeViolation = -32006
)

// NewErrorDetail creates an ErrorDetail.
func NewErrorDetail(code int, message string, data interface{}) *models.ErrorDetail {
	return &models.ErrorDetail{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewParseError reports malformed JSON received by the server.
func NewParseError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeParseError, "Parse error", map[string]interface{}{"details": details})
}

// NewInvalidRequestError reports a structurally invalid JSON-RPC request.
func NewInvalidRequestError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInvalidRequest, "Invalid Request", map[string]interface{}{"details": details})
}

// NewMethodNotFoundError reports an unknown JSON-RPC method.
func NewMethodNotFoundError(methodName string) *models.ErrorDetail {
	return NewErrorDetail(CodeMethodNotFound, "Method not found", map[string]interface{}{"method": methodName})
}

// NewInvalidParamsError reports invalid method parameters: malformed anchors,
// unknown operation types, inverted or overlapping ranges, bad paths.
func NewInvalidParamsError(message string, data map[string]interface{}) *models.ErrorDetail {
	if message == "" {
		message = "Invalid params"
	}
	return NewErrorDetail(CodeInvalidParams, message, data)
}

// NewInternalError reports an unexpected server-side failure.
func NewInternalError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInternalError, "Internal error", map[string]interface{}{"details": details})
}

// NewFileSystemError reports a generic filesystem failure.
func NewFileSystemError(path, operation, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, "File system error", map[string]interface{}{
		"path":      path,
		"operation": operation,
		"details":   details,
	})
}

// NewFileNotFoundError reports a missing target path.
func NewFileNotFoundError(path, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, fmt.Sprintf("File '%s' not found", path), map[string]interface{}{
		"path":      path,
		"operation": operation,
		"type":      "file_not_found",
	})
}

// NewPermissionDeniedError reports an unreadable or unwritable target path.
func NewPermissionDeniedError(path, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, fmt.Sprintf("Permission denied for file '%s'", path), map[string]interface{}{
		"path":      path,
		"operation": operation,
		"type":      "permission_denied",
	})
}

// NewFileTooLargeError reports a file exceeding the configured size limit.
func NewFileTooLargeError(path string, sizeBytes int64, maxSizeMB int) *models.ErrorDetail {
	return NewErrorDetail(CodeFileTooLarge,
		fmt.Sprintf("File '%s' exceeds maximum allowed size of %d MB", path, maxSizeMB),
		map[string]interface{}{
			"path":        path,
			"size_bytes":  sizeBytes,
			"max_size_mb": maxSizeMB,
			"type":        "file_too_large",
		})
}

// NewInvalidEncodingError reports non-UTF-8 file content; line-oriented
// editing is defined over text only.
func NewInvalidEncodingError(path, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeInvalidParams,
		fmt.Sprintf("File '%s' is not valid UTF-8 text", path),
		map[string]interface{}{"path": path, "operation": operation, "type": "invalid_encoding"})
}

// NewEditConflictError reports a stale file digest. No mutation has occurred.
func NewEditConflictError(path string) *models.ErrorDetail {
	return NewErrorDetail(CodeEditConflict,
		fmt.Sprintf("File %s has been modified since it was last read. Please re-read the file.", path),
		map[string]interface{}{"path": path, "type": "edit_conflict"})
}

// NewAnchorResolutionError wraps a resolution failure (anchor not found or
// ambiguous) from the hashline engine. The detail names the anchor and, for
// ambiguity, the match count.
func NewAnchorResolutionError(path, detail string) *models.ErrorDetail {
	return NewErrorDetail(CodeAnchorResolution, detail, map[string]interface{}{
		"path": path,
		"type": "anchor_resolution",
	})
}

// NewScopeViolationError reports a path outside the permitted roots.
func NewScopeViolationError(path string) *models.ErrorDetail {
	return NewErrorDetail(CodeScopeViolation,
		fmt.Sprintf("Path '%s' is outside the permitted roots", path),
		map[string]interface{}{"path": path, "type": "scope_violation"})
}

// NewOperationLockFailedError reports a failed lock acquisition.
func NewOperationLockFailedError(path, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeOperationLockFailed,
		fmt.Sprintf("Could not acquire lock for file '%s'", path),
		map[string]interface{}{"path": path, "details": details})
}

// ToErrorResponse wraps an ErrorDetail for HTTP transports.
func ToErrorResponse(errDetail *models.ErrorDetail) *models.ErrorResponse {
	if errDetail == nil {
		return nil
	}
	return &models.ErrorResponse{Error: *errDetail}
}

// ToJSONRPCError converts an ErrorDetail to a JSON-RPC error object,
// flattening the structured data payload into the error's data field.
func ToJSONRPCError(errDetail *models.ErrorDetail) *models.JSONRPCError {
	if errDetail == nil {
		return nil
	}
	rpcErr := &models.JSONRPCError{
		Code:    errDetail.Code,
		Message: errDetail.Message,
	}
	if errDetail.Data == nil {
		return rpcErr
	}

	data := &models.JSONRPCErrorData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if dataMap, ok := errDetail.Data.(map[string]interface{}); ok {
		if v, ok := dataMap["path"].(string); ok {
			data.Path = v
		}
		if v, ok := dataMap["operation"].(string); ok {
			data.Operation = v
		}
		if v, ok := dataMap["details"].(string); ok {
			data.Details = v
		}
	} else {
		data.Details = fmt.Sprintf("%v", errDetail.Data)
	}
	rpcErr.Data = data
	return rpcErr
}

// MapErrorToHTTPStatus maps an error code (plus the detail's "type" for the
// overloaded filesystem code) to an HTTP status.
func MapErrorToHTTPStatus(errorCode int, errDetail *models.ErrorDetail) int {
	switch errorCode {
	case CodeParseError, CodeInvalidRequest, CodeInvalidParams:
		return http.StatusBadRequest
	case CodeMethodNotFound:
		return http.StatusNotFound
	case CodeInternalError:
		return http.StatusInternalServerError
	case CodeFileSystemError:
		if errDetail != nil {
			if dataMap, ok := errDetail.Data.(map[string]interface{}); ok {
				switch dataMap["type"] {
				case "file_not_found":
					return http.StatusNotFound
				case "permission_denied":
					return http.StatusForbidden
				}
			}
		}
		return http.StatusInternalServerError
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeOperationLockFailed, CodeEditConflict:
		return http.StatusConflict
	case CodeAnchorResolution:
		return http.StatusUnprocessableEntity
	case CodeScopeViolation:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
