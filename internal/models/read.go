package models

// ReadTextFileRequest represents a request to read a file as tagged lines.
type ReadTextFileRequest struct {
	// Path is the absolute path of the file to read. It must fall under one
	// of the session's permitted roots.
	Path string `json:"path"`
}

// ReadTextFileResponse carries the tagged representation of a file.
type ReadTextFileResponse struct {
	// Tagged is the rendered content, one "<n>:<hash>|<line>" record per line.
	Tagged string `json:"tagged"`
	// TotalLines is the number of lines in the file.
	TotalLines int `json:"total_lines"`
	// FileHash is the 6-hex-digit digest of the raw content. The caller must
	// echo it back on the next edit of this file.
	FileHash string `json:"file_hash"`
}
