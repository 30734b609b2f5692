package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hashline-server/internal/errors"
	"hashline-server/internal/filesystem"
	"hashline-server/internal/hashline"
	"hashline-server/internal/lock"
	"hashline-server/internal/models"
	"hashline-server/internal/roots"
)

func newTestService(t *testing.T, opts Options) (*DefaultTextFileService, string) {
	t.Helper()

	// t.TempDir may sit behind a symlink (macOS /var); resolve it so the
	// canonical paths used by scope checks line up.
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	rm, err := roots.NewManager([]string{dir})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewDefaultTextFileService(filesystem.NewOSAdapter(), lock.NewManager(), rm, logger, opts)
	require.NoError(t, err)
	return svc, dir
}

func defaultOpts() Options {
	return Options{MaxFileSizeMB: 10, OperationTimeoutSec: 5}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func anchorStr(content string, lineNum int) string {
	lines := hashline.SplitLines(content)
	return hashline.LineAnchor{LineNum: lineNum, Hash: hashline.HashLine(lines[lineNum-1])}.String()
}

func TestReadTextFile(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\nbeta\ngamma\n"
	path := writeFile(t, dir, "f.txt", content)

	resp, errDetail := svc.ReadTextFile(models.ReadTextFileRequest{Path: path})
	require.Nil(t, errDetail)

	assert.Equal(t, 3, resp.TotalLines)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{6}$`), resp.FileHash)
	assert.Equal(t, hashline.FileDigest(content), resp.FileHash)

	taggedLines := strings.Split(strings.TrimSuffix(resp.Tagged, "\n"), "\n")
	require.Len(t, taggedLines, 3)
	assert.Regexp(t, regexp.MustCompile(`^1:[0-9a-f]{2}\|alpha$`), taggedLines[0])
	assert.Regexp(t, regexp.MustCompile(`^3:[0-9a-f]{2}\|gamma$`), taggedLines[2])
}

func TestReadTextFile_Missing(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())

	_, errDetail := svc.ReadTextFile(models.ReadTextFileRequest{Path: filepath.Join(dir, "absent.txt")})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeFileSystemError, errDetail.Code)
	data := errDetail.Data.(map[string]interface{})
	assert.Equal(t, "file_not_found", data["type"])
}

func TestReadTextFile_Directory(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	_, errDetail := svc.ReadTextFile(models.ReadTextFileRequest{Path: sub})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeInvalidParams, errDetail.Code)
}

func TestReadTextFile_OutsideRoots(t *testing.T) {
	svc, _ := newTestService(t, defaultOpts())

	_, errDetail := svc.ReadTextFile(models.ReadTextFileRequest{Path: "/etc/hostname"})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeScopeViolation, errDetail.Code)
}

func TestReadTextFile_TooLarge(t *testing.T) {
	svc, dir := newTestService(t, Options{MaxFileSizeMB: 1, OperationTimeoutSec: 5})
	path := writeFile(t, dir, "big.txt", strings.Repeat("a", 1024*1024+1))

	_, errDetail := svc.ReadTextFile(models.ReadTextFileRequest{Path: path})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeFileTooLarge, errDetail.Code)
}

func TestReadTextFile_InvalidUTF8(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	path := filepath.Join(dir, "bin.dat")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x01}, 0644))

	_, errDetail := svc.ReadTextFile(models.ReadTextFileRequest{Path: path})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeInvalidParams, errDetail.Code)
}

func TestEditTextFile_Replace(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\nbeta\ngamma\n"
	path := writeFile(t, dir, "f.txt", content)

	newText := "BETA"
	resp, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:     path,
		FileHash: hashline.FileDigest(content),
		Operations: []models.EditOperation{{
			OpType:  "replace",
			Anchor:  anchorStr(content, 2),
			Content: &newText,
		}},
	})
	require.Nil(t, errDetail)
	assert.Equal(t, 1, resp.OperationsApplied)
	assert.Equal(t, 3, resp.NewTotalLines)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nBETA\ngamma\n", string(got))
}

func TestEditTextFile_DeleteRange(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "l1\nl2\nl3\nl4\n"
	path := writeFile(t, dir, "f.txt", content)

	end := anchorStr(content, 3)
	resp, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:     path,
		FileHash: hashline.FileDigest(content),
		Operations: []models.EditOperation{{
			OpType:    "delete",
			Anchor:    anchorStr(content, 2),
			EndAnchor: &end,
		}},
	})
	require.Nil(t, errDetail)
	assert.Equal(t, 2, resp.NewTotalLines)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "l1\nl4\n", string(got))
}

func TestEditTextFile_StaleDigest(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\nbeta\n"
	path := writeFile(t, dir, "f.txt", content)

	newText := "x"
	_, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:     path,
		FileHash: "000000",
		Operations: []models.EditOperation{{
			OpType:  "replace",
			Anchor:  anchorStr(content, 1),
			Content: &newText,
		}},
	})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeEditConflict, errDetail.Code)
	assert.Contains(t, errDetail.Message, "has been modified since it was last read")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got), "conflict must not mutate the file")
}

func TestEditTextFile_AnchorNotFound(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\nbeta\n"
	path := writeFile(t, dir, "f.txt", content)

	_, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:     path,
		FileHash: hashline.FileDigest(content),
		Operations: []models.EditOperation{{
			OpType: "delete",
			Anchor: "1:zz",
		}},
	})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeAnchorResolution, errDetail.Code)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got), "failed resolution must not mutate the file")
}

func TestEditTextFile_InvalidOpType(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\n"
	path := writeFile(t, dir, "f.txt", content)

	_, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:     path,
		FileHash: hashline.FileDigest(content),
		Operations: []models.EditOperation{{
			OpType: "prepend",
			Anchor: anchorStr(content, 1),
		}},
	})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeInvalidParams, errDetail.Code)
	assert.Contains(t, errDetail.Message, "invalid operation type")
}

func TestEditTextFile_MalformedAnchor(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\n"
	path := writeFile(t, dir, "f.txt", content)

	_, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:       path,
		FileHash:   hashline.FileDigest(content),
		Operations: []models.EditOperation{{OpType: "delete", Anchor: "no-colon"}},
	})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeInvalidParams, errDetail.Code)
}

func TestEditTextFile_TooManyOperations(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\n"
	path := writeFile(t, dir, "f.txt", content)

	ops := make([]models.EditOperation, maxOperationsAllowed+1)
	for i := range ops {
		ops[i] = models.EditOperation{OpType: "delete", Anchor: "1:aa"}
	}
	_, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:       path,
		FileHash:   hashline.FileDigest(content),
		Operations: ops,
	})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeInvalidParams, errDetail.Code)
}

func TestEditTextFile_OutsideRoots(t *testing.T) {
	svc, _ := newTestService(t, defaultOpts())

	_, errDetail := svc.EditTextFile(models.EditTextFileRequest{
		Path:       "/etc/hosts",
		FileHash:   "000000",
		Operations: nil,
	})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeScopeViolation, errDetail.Code)
}

func TestEditTextFile_ReadThenEditFlow(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "one\ntwo\nthree\n"
	path := writeFile(t, dir, "f.txt", content)

	readResp, errDetail := svc.ReadTextFile(models.ReadTextFileRequest{Path: path})
	require.Nil(t, errDetail)

	inserted := "one and a half"
	_, errDetail = svc.EditTextFile(models.EditTextFileRequest{
		Path:     path,
		FileHash: readResp.FileHash,
		Operations: []models.EditOperation{{
			OpType:  "insert_after",
			Anchor:  anchorStr(content, 1),
			Content: &inserted,
		}},
	})
	require.Nil(t, errDetail)

	// The digest from before the edit is now stale.
	_, errDetail = svc.EditTextFile(models.EditTextFileRequest{
		Path:     path,
		FileHash: readResp.FileHash,
		Operations: []models.EditOperation{{
			OpType: "delete",
			Anchor: anchorStr(content, 1),
		}},
	})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeEditConflict, errDetail.Code)
}

func TestSetRoots(t *testing.T) {
	svc, dir := newTestService(t, defaultOpts())
	content := "alpha\n"
	path := writeFile(t, dir, "f.txt", content)

	otherDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	resp, errDetail := svc.SetRoots(models.SetRootsRequest{Roots: []string{otherDir}})
	require.Nil(t, errDetail)
	assert.Equal(t, 1, resp.RootCount)

	// The old root no longer admits anything.
	_, errDetail = svc.ReadTextFile(models.ReadTextFileRequest{Path: path})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeScopeViolation, errDetail.Code)
}

func TestSetRoots_RelativeRejected(t *testing.T) {
	svc, _ := newTestService(t, defaultOpts())

	_, errDetail := svc.SetRoots(models.SetRootsRequest{Roots: []string{"relative/path"}})
	require.NotNil(t, errDetail)
	assert.Equal(t, errors.CodeInvalidParams, errDetail.Code)
}
