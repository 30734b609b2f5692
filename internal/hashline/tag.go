package hashline

import (
	"fmt"
	"strings"
)

// SplitLines splits content on "\n" terminators. A trailing terminator does
// not produce an extra empty line; whether the content ended with one is a
// file-level property the caller preserves separately (see Apply).
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// TagContent renders each line of content as "<n>:<hash>|<line>" followed by a
// newline, with n 1-based. This is the caller-facing representation that
// embeds the anchors used by edit operations. It is purely presentational and
// can be recomputed from the content at any time.
func TagContent(content string) string {
	var b strings.Builder
	for i, line := range SplitLines(content) {
		fmt.Fprintf(&b, "%d:%s|%s\n", i+1, HashLine(line), line)
	}
	return b.String()
}
