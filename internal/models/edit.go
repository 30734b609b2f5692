package models

// EditOperation is the wire form of a single anchored edit.
type EditOperation struct {
	// OpType is one of "replace", "insert_after", "insert_before", "delete".
	OpType string `json:"op_type"`
	// Anchor is the target line in "line_num:hash" form, taken from a
	// previous read of the file.
	Anchor string `json:"anchor"`
	// EndAnchor optionally marks the inclusive end of a range starting at
	// Anchor. Only meaningful for "replace" and "delete".
	EndAnchor *string `json:"end_anchor,omitempty"`
	// Content is the replacement or inserted text for "replace" and the two
	// insert kinds. Absent content inserts nothing.
	Content *string `json:"content,omitempty"`
}

// EditTextFileRequest represents a batch of anchored edits against one file.
type EditTextFileRequest struct {
	// Path is the absolute path of the file to edit.
	Path string `json:"path"`
	// FileHash is the digest obtained from the most recent read. The edit is
	// rejected if the live file no longer hashes to this value.
	FileHash string `json:"file_hash"`
	// Operations are applied together, atomically with respect to the digest
	// check: either all apply or none do.
	Operations []EditOperation `json:"operations"`
}

// EditTextFileResponse confirms a successful batch application.
type EditTextFileResponse struct {
	Path              string `json:"path"`
	OperationsApplied int    `json:"operations_applied"`
	NewTotalLines     int    `json:"new_total_lines"`
}
