package models

// SetRootsRequest replaces the session's permitted root set. Entries are
// absolute directory paths or file:// URIs.
type SetRootsRequest struct {
	Roots []string `json:"roots"`
}

// SetRootsResponse reports the accepted root set size.
type SetRootsResponse struct {
	RootCount int `json:"root_count"`
}
