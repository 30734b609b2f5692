package transport

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hashline-server/internal/errors"
	"hashline-server/internal/models"
	"hashline-server/internal/service"
)

const (
	defaultReadTimeout      = 60 * time.Second
	defaultWriteTimeout     = 60 * time.Second
	defaultMaxRequestSizeMB = 50
)

// HTTPHandler exposes the text file service over plain HTTP endpoints.
type HTTPHandler struct {
	service    service.TextFileService
	logger     *slog.Logger
	maxReqSize int64
	Server     *http.Server
}

// NewHTTPHandler creates an HTTPHandler.
func NewHTTPHandler(svc service.TextFileService, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{
		service:    svc,
		logger:     logger,
		maxReqSize: int64(defaultMaxRequestSizeMB) * 1024 * 1024,
		Server:     &http.Server{},
	}
}

// RegisterRoutes sets up the HTTP routes for the handler.
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/read_text_file", h.handleReadTextFile)
	mux.HandleFunc("/edit_text_file", h.handleEditTextFile)
	mux.HandleFunc("/roots/set", h.handleSetRoots)
	mux.HandleFunc("/health", h.handleHealthCheck)
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.Error("failed to encode response", "error", err)
		}
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, statusCode int, errDetail *models.ErrorDetail) {
	if errDetail == nil {
		errDetail = errors.NewInternalError("error details were lost")
		statusCode = http.StatusInternalServerError
	}
	h.writeJSON(w, statusCode, errors.ToErrorResponse(errDetail))
}

// decodeRequest validates method, content type and body size, then strictly
// decodes the JSON body into dst. It writes the error response itself and
// reports whether decoding succeeded.
func (h *HTTPHandler) decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed,
			errors.NewInvalidRequestError(fmt.Sprintf("method %s not allowed, use POST", r.Method)))
		return false
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		h.writeError(w, http.StatusUnsupportedMediaType,
			errors.NewInvalidRequestError("Content-Type must be application/json"))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxReqSize)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stdErrors.As(err, &maxBytesErr):
			h.writeError(w, http.StatusRequestEntityTooLarge,
				errors.NewInvalidRequestError(fmt.Sprintf("request body exceeds maximum size of %dMB", defaultMaxRequestSizeMB)))
		case stdErrors.As(err, &syntaxErr):
			h.writeError(w, http.StatusBadRequest,
				errors.NewParseError(fmt.Sprintf("invalid JSON syntax at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())))
		case stdErrors.As(err, &typeErr):
			h.writeError(w, http.StatusBadRequest,
				errors.NewParseError(fmt.Sprintf("invalid JSON type for field '%s' at offset %d", typeErr.Field, typeErr.Offset)))
		default:
			h.writeError(w, http.StatusBadRequest,
				errors.NewParseError(fmt.Sprintf("failed to decode request body: %v", err)))
		}
		return false
	}
	return true
}

func (h *HTTPHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) handleReadTextFile(w http.ResponseWriter, r *http.Request) {
	var req models.ReadTextFileRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	resp, errDetail := h.service.ReadTextFile(req)
	if errDetail != nil {
		h.writeError(w, errors.MapErrorToHTTPStatus(errDetail.Code, errDetail), errDetail)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleEditTextFile(w http.ResponseWriter, r *http.Request) {
	var req models.EditTextFileRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	resp, errDetail := h.service.EditTextFile(req)
	if errDetail != nil {
		h.writeError(w, errors.MapErrorToHTTPStatus(errDetail.Code, errDetail), errDetail)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleSetRoots(w http.ResponseWriter, r *http.Request) {
	var req models.SetRootsRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	resp, errDetail := h.service.SetRoots(req)
	if errDetail != nil {
		h.writeError(w, errors.MapErrorToHTTPStatus(errDetail.Code, errDetail), errDetail)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// StartServer configures and runs the HTTP server. It blocks until the
// server stops; a graceful Shutdown elsewhere makes it return nil.
func (h *HTTPHandler) StartServer(port int) error {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	h.Server.Addr = fmt.Sprintf(":%d", port)
	h.Server.Handler = mux
	h.Server.ReadTimeout = defaultReadTimeout
	h.Server.WriteTimeout = defaultWriteTimeout

	h.logger.Info("http server starting", "port", port)
	err := h.Server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	h.logger.Info("http server stopped", "port", port)
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (h *HTTPHandler) Shutdown(ctx context.Context) error {
	return h.Server.Shutdown(ctx)
}
