package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"hashline-server/internal/errors"
	"hashline-server/internal/models"
)

// maxLineBytes bounds a single JSON-RPC line on stdin. Edit batches carry
// whole replacement bodies, so the default scanner limit is far too small.
const maxLineBytes = 64 * 1024 * 1024

// RequestProcessor dispatches one decoded JSON-RPC request.
type RequestProcessor interface {
	ProcessRequest(req models.JSONRPCRequest) (interface{}, *models.JSONRPCError)
}

// StdioHandler speaks line-delimited JSON-RPC 2.0 over an input/output pair,
// one request and one response per line.
type StdioHandler struct {
	processor RequestProcessor
	logger    *slog.Logger
}

// NewStdioHandler creates a StdioHandler.
func NewStdioHandler(processor RequestProcessor, logger *slog.Logger) *StdioHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioHandler{processor: processor, logger: logger}
}

func (h *StdioHandler) writeResponse(writer io.Writer, response models.JSONRPCResponse) {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		h.logger.Error("failed to marshal response", "id", response.ID, "error", err)
		fallback := models.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      response.ID,
			Error:   errors.ToJSONRPCError(errors.NewInternalError("failed to marshal response")),
		}
		responseBytes, _ = json.Marshal(fallback)
	}
	if _, err := fmt.Fprintln(writer, string(responseBytes)); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// Start reads requests from input until EOF. Notifications (requests without
// an id) receive no response line.
func (h *StdioHandler) Start(input io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(bytes.TrimSpace(lineBytes)) == 0 {
			continue
		}

		var req models.JSONRPCRequest
		if err := json.Unmarshal(lineBytes, &req); err != nil {
			h.writeResponse(output, models.JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      nil,
				Error:   errors.ToJSONRPCError(errors.NewParseError(fmt.Sprintf("invalid JSON received: %v", err))),
			})
			continue
		}

		resp := models.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}

		if req.JSONRPC != "2.0" {
			resp.Error = errors.ToJSONRPCError(errors.NewInvalidRequestError("jsonrpc version must be '2.0'"))
			h.writeResponse(output, resp)
			continue
		}
		if req.Method == "" {
			resp.Error = errors.ToJSONRPCError(errors.NewInvalidRequestError("method not specified"))
			h.writeResponse(output, resp)
			continue
		}

		result, rpcErr := h.processor.ProcessRequest(req)
		if req.ID == nil && rpcErr == nil {
			// Notification, nothing to send back.
			continue
		}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
		h.writeResponse(output, resp)
	}

	if err := scanner.Err(); err != nil {
		h.logger.Error("stdin read failed", "error", err)
		return err
	}
	return nil
}
