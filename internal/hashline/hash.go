package hashline

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
)

// HashLine computes the 2-character hex hash of a single line's content,
// trimmed of trailing whitespace. Trailing-whitespace-only edits therefore do
// not invalidate anchors pointing at the line.
//
// The output space is deliberately tiny (256 values): collisions between
// unrelated lines in the same file are expected and handled by the ambiguity
// logic in ResolveAnchor, not avoided here.
func HashLine(content string) string {
	trimmed := strings.TrimRightFunc(content, unicode.IsSpace)
	return fmt.Sprintf("%02x", uint8(xxh3.HashString(trimmed)))
}

// FileDigest computes the 6-character hex digest of the entire untrimmed file
// content. It serves purely as an optimistic-concurrency token: 24 bits is
// enough to detect a concurrent modification between a read and a write-back,
// and short enough for an agent to echo back verbatim. It is not a security
// primitive.
func FileDigest(content string) string {
	return fmt.Sprintf("%06x", xxh3.HashString(content)&0xffffff)
}
