package service

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"hashline-server/internal/errors"
	"hashline-server/internal/filesystem"
	"hashline-server/internal/hashline"
	"hashline-server/internal/lock"
	"hashline-server/internal/models"
	"hashline-server/internal/roots"
)

const maxOperationsAllowed = 1000

// TextFileService defines the caller-facing operations.
type TextFileService interface {
	ReadTextFile(req models.ReadTextFileRequest) (*models.ReadTextFileResponse, *models.ErrorDetail)
	EditTextFile(req models.EditTextFileRequest) (*models.EditTextFileResponse, *models.ErrorDetail)
	SetRoots(req models.SetRootsRequest) (*models.SetRootsResponse, *models.ErrorDetail)
}

// DefaultTextFileService implements TextFileService over a filesystem
// adapter, a roots manager and a per-file lock manager.
type DefaultTextFileService struct {
	fsAdapter   filesystem.Adapter
	lockManager lock.ManagerInterface
	rootsMgr    *roots.Manager
	logger      *slog.Logger
	maxFileSize int64 // in bytes
	opTimeout   time.Duration
}

// Options carries the service limits taken from configuration.
type Options struct {
	MaxFileSizeMB       int
	OperationTimeoutSec int
}

// NewDefaultTextFileService creates a DefaultTextFileService.
func NewDefaultTextFileService(
	fs filesystem.Adapter,
	lm lock.ManagerInterface,
	rm *roots.Manager,
	logger *slog.Logger,
	opts Options,
) (*DefaultTextFileService, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem adapter is required")
	}
	if lm == nil {
		return nil, fmt.Errorf("lock manager is required")
	}
	if rm == nil {
		return nil, fmt.Errorf("roots manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultTextFileService{
		fsAdapter:   fs,
		lockManager: lm,
		rootsMgr:    rm,
		logger:      logger,
		maxFileSize: int64(opts.MaxFileSizeMB) * 1024 * 1024,
		opTimeout:   time.Duration(opts.OperationTimeoutSec) * time.Second,
	}, nil
}

var _ TextFileService = (*DefaultTextFileService)(nil)

// checkScope admits a path against the permitted roots.
func (s *DefaultTextFileService) checkScope(path string) *models.ErrorDetail {
	allowed, err := s.rootsMgr.IsAllowed(path)
	if err != nil {
		return errors.NewInvalidParamsError(err.Error(), map[string]interface{}{"path": path})
	}
	if !allowed {
		return errors.NewScopeViolationError(path)
	}
	return nil
}

// classifyFSError maps an adapter error onto the error taxonomy, unwrapping
// to find permission and not-found causes.
func classifyFSError(path, operation string, err error) *models.ErrorDetail {
	switch {
	case stdErrors.Is(err, fs.ErrNotExist):
		return errors.NewFileNotFoundError(path, operation)
	case stdErrors.Is(err, fs.ErrPermission):
		return errors.NewPermissionDeniedError(path, operation)
	default:
		return errors.NewFileSystemError(path, operation, err.Error())
	}
}

// readContent loads and validates the file, returning its content as a
// string.
func (s *DefaultTextFileService) readContent(path, operation string) (string, *models.ErrorDetail) {
	exists, err := s.fsAdapter.FileExists(path)
	if err != nil {
		return "", classifyFSError(path, operation, err)
	}
	if !exists {
		return "", errors.NewFileNotFoundError(path, operation)
	}

	stats, err := s.fsAdapter.GetFileStats(path)
	if err != nil {
		return "", classifyFSError(path, operation, err)
	}
	if stats.IsDir {
		return "", errors.NewInvalidParamsError(
			fmt.Sprintf("Path '%s' is a directory, not a file.", path),
			map[string]interface{}{"path": path})
	}
	if stats.Size > s.maxFileSize {
		return "", errors.NewFileTooLargeError(path, stats.Size, int(s.maxFileSize/(1024*1024)))
	}

	raw, err := s.fsAdapter.ReadFileBytes(path)
	if err != nil {
		return "", classifyFSError(path, operation, err)
	}
	if !s.fsAdapter.IsValidUTF8(raw) {
		return "", errors.NewInvalidEncodingError(path, operation)
	}
	return string(raw), nil
}

// ReadTextFile implements TextFileService. It returns the tagged line
// records together with the line count and the file digest the caller must
// echo back when editing.
func (s *DefaultTextFileService) ReadTextFile(req models.ReadTextFileRequest) (*models.ReadTextFileResponse, *models.ErrorDetail) {
	if errDetail := s.checkScope(req.Path); errDetail != nil {
		return nil, errDetail
	}
	path := filepath.Clean(req.Path)

	content, errDetail := s.readContent(path, "read")
	if errDetail != nil {
		return nil, errDetail
	}

	return &models.ReadTextFileResponse{
		Tagged:     hashline.TagContent(content),
		TotalLines: len(hashline.SplitLines(content)),
		FileHash:   hashline.FileDigest(content),
	}, nil
}

// parseOperations converts wire operations to engine operations. Malformed
// anchors and unknown operation types are request errors, reported before any
// file is touched.
func parseOperations(ops []models.EditOperation) ([]hashline.Operation, *models.ErrorDetail) {
	parsed := make([]hashline.Operation, 0, len(ops))
	for i, op := range ops {
		kind, err := hashline.ParseOpKind(op.OpType)
		if err != nil {
			return nil, errors.NewInvalidParamsError(
				fmt.Sprintf("Operation #%d: %v", i+1, err),
				map[string]interface{}{"operation_index": i, "op_type": op.OpType})
		}
		anchor, err := hashline.ParseAnchor(op.Anchor)
		if err != nil {
			return nil, errors.NewInvalidParamsError(
				fmt.Sprintf("Operation #%d: %v", i+1, err),
				map[string]interface{}{"operation_index": i, "anchor": op.Anchor})
		}
		var endAnchor *hashline.LineAnchor
		if op.EndAnchor != nil {
			ea, err := hashline.ParseAnchor(*op.EndAnchor)
			if err != nil {
				return nil, errors.NewInvalidParamsError(
					fmt.Sprintf("Operation #%d: %v", i+1, err),
					map[string]interface{}{"operation_index": i, "end_anchor": *op.EndAnchor})
			}
			endAnchor = &ea
		}
		parsed = append(parsed, hashline.Operation{
			Kind:      kind,
			Anchor:    anchor,
			EndAnchor: endAnchor,
			Content:   op.Content,
		})
	}
	return parsed, nil
}

// EditTextFile implements TextFileService. The batch applies atomically:
// every failure path returns before the write, and the write itself is a
// temp-file rename.
func (s *DefaultTextFileService) EditTextFile(req models.EditTextFileRequest) (*models.EditTextFileResponse, *models.ErrorDetail) {
	if errDetail := s.checkScope(req.Path); errDetail != nil {
		return nil, errDetail
	}
	path := filepath.Clean(req.Path)

	if len(req.Operations) > maxOperationsAllowed {
		return nil, errors.NewInvalidParamsError(
			fmt.Sprintf("Number of operations exceeds maximum allowed of %d.", maxOperationsAllowed),
			map[string]interface{}{"num_operations": len(req.Operations)})
	}

	operations, errDetail := parseOperations(req.Operations)
	if errDetail != nil {
		return nil, errDetail
	}

	fileLock, lockErr := s.lockManager.Acquire(path, s.opTimeout)
	if lockErr != nil {
		return nil, errors.NewOperationLockFailedError(path, lockErr.Error())
	}
	defer func() {
		if err := s.lockManager.Release(fileLock); err != nil {
			s.logger.Error("failed to release file lock", "path", path, "error", err)
		}
	}()

	content, errDetail := s.readContent(path, "edit")
	if errDetail != nil {
		return nil, errDetail
	}

	// Optimistic concurrency: the digest is recomputed over the live file on
	// every edit, never cached between requests.
	if hashline.FileDigest(content) != req.FileHash {
		return nil, errors.NewEditConflictError(path)
	}

	newContent, err := hashline.Apply(content, operations)
	if err != nil {
		var notFound *hashline.NotFoundError
		var ambiguous *hashline.AmbiguousError
		if stdErrors.As(err, &notFound) || stdErrors.As(err, &ambiguous) {
			return nil, errors.NewAnchorResolutionError(path, err.Error())
		}
		// Inverted or overlapping ranges: the request itself is invalid.
		return nil, errors.NewInvalidParamsError(err.Error(), map[string]interface{}{"path": path})
	}

	if int64(len(newContent)) > s.maxFileSize {
		return nil, errors.NewFileTooLargeError(path, int64(len(newContent)), int(s.maxFileSize/(1024*1024)))
	}

	if err := s.fsAdapter.WriteFileBytesAtomic(path, []byte(newContent), 0644); err != nil {
		return nil, classifyFSError(path, "write", err)
	}

	return &models.EditTextFileResponse{
		Path:              path,
		OperationsApplied: len(operations),
		NewTotalLines:     len(hashline.SplitLines(newContent)),
	}, nil
}

// SetRoots implements TextFileService, replacing the session's permitted
// root set.
func (s *DefaultTextFileService) SetRoots(req models.SetRootsRequest) (*models.SetRootsResponse, *models.ErrorDetail) {
	if err := s.rootsMgr.SetRoots(req.Roots); err != nil {
		return nil, errors.NewInvalidParamsError(err.Error(), nil)
	}
	return &models.SetRootsResponse{RootCount: len(req.Roots)}, nil
}
