package hashline

import (
	"fmt"
	"strconv"
	"strings"
)

// LineAnchor identifies "the line that was at position LineNum and whose
// trimmed content hashed to Hash" at the time the caller last read the file.
// LineNum is 1-based; all indices returned by resolution are 0-based.
type LineAnchor struct {
	LineNum int
	Hash    string
}

func (a LineAnchor) String() string {
	return fmt.Sprintf("%d:%s", a.LineNum, a.Hash)
}

// ParseAnchor parses the textual anchor form "line_num:hash".
func ParseAnchor(s string) (LineAnchor, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return LineAnchor{}, fmt.Errorf("invalid anchor format %q: expected 'line_num:hash'", s)
	}
	lineNum, err := strconv.Atoi(parts[0])
	if err != nil {
		return LineAnchor{}, fmt.Errorf("invalid anchor %q: line number is not numeric", s)
	}
	return LineAnchor{LineNum: lineNum, Hash: parts[1]}, nil
}

// NotFoundError reports an anchor whose hash matches no line in the current
// file.
type NotFoundError struct {
	Anchor LineAnchor
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("anchor %s not found", e.Anchor)
}

// AmbiguousError reports an anchor whose hash matches more than one line
// after the line-number fast path missed. The caller must re-read the file
// and pick a more specific anchor.
type AmbiguousError struct {
	Anchor  LineAnchor
	Matches int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("anchor %s is ambiguous (%d matches found)", e.Anchor, e.Matches)
}

// ResolveAnchor maps an anchor to the 0-based index it currently refers to.
//
// The cheap path checks the anchored position directly: if the line at
// LineNum-1 still hashes to the anchor's hash, that index is returned. When
// line numbers have drifted (prior edits, concurrent batch members), the whole
// sequence is scanned for the hash; a unique match restores addressability by
// content. Zero matches fail with NotFoundError, several with AmbiguousError;
// a best-effort guess here would silently edit the wrong line.
func ResolveAnchor(lines []string, anchor LineAnchor) (int, error) {
	if idx := anchor.LineNum - 1; idx >= 0 && idx < len(lines) && HashLine(lines[idx]) == anchor.Hash {
		return idx, nil
	}

	var matches []int
	for i, line := range lines {
		if HashLine(line) == anchor.Hash {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return 0, &NotFoundError{Anchor: anchor}
	default:
		return 0, &AmbiguousError{Anchor: anchor, Matches: len(matches)}
	}
}
