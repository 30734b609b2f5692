package hashline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnchor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    LineAnchor
		wantErr bool
	}{
		{"valid", "2:ab", LineAnchor{LineNum: 2, Hash: "ab"}, false},
		{"valid large line number", "100435:0f", LineAnchor{LineNum: 100435, Hash: "0f"}, false},
		{"missing hash field", "2", LineAnchor{}, true},
		{"too many fields", "2:ab:cd", LineAnchor{}, true},
		{"non-numeric line number", "two:ab", LineAnchor{}, true},
		{"empty", "", LineAnchor{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnchor(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnchorString_RoundTrip(t *testing.T) {
	a := LineAnchor{LineNum: 7, Hash: "3c"}
	parsed, err := ParseAnchor(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

// fillerLines returns n distinct strings whose hashes differ from avoid's, so
// fixtures stay deterministic even though the 8-bit hash space invites
// accidental collisions.
func fillerLines(t *testing.T, n int, avoid string) []string {
	t.Helper()
	var out []string
	for i := 0; len(out) < n; i++ {
		s := fmt.Sprintf("filler-%d", i)
		if s != avoid && HashLine(s) != HashLine(avoid) {
			out = append(out, s)
		}
	}
	return out
}

func TestResolveAnchor_ExactMatch(t *testing.T) {
	lines := []string{"a", "b", "c"}
	idx, err := ResolveAnchor(lines, LineAnchor{LineNum: 2, Hash: HashLine("b")})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolveAnchor_FuzzyMatchAfterDrift(t *testing.T) {
	// The anchored line moved from position 2 to position 3 (a line above it
	// was deleted and another inserted); it is still unique by content.
	filler := fillerLines(t, 2, "b")
	lines := []string{filler[0], filler[1], "b"}
	idx, err := ResolveAnchor(lines, LineAnchor{LineNum: 2, Hash: HashLine("b")})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestResolveAnchor_NotFound(t *testing.T) {
	lines := []string{"a", "b"}
	// "zz" is not a hex digest, so no line can ever hash to it.
	_, err := ResolveAnchor(lines, LineAnchor{LineNum: 1, Hash: "zz"})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, LineAnchor{LineNum: 1, Hash: "zz"}, notFound.Anchor)
	assert.Contains(t, err.Error(), "1:zz")
}

func TestResolveAnchor_Ambiguous(t *testing.T) {
	lines := []string{"x", "x"}
	// Line number out of range, so the exact-position fast path misses and
	// the scan finds both copies.
	_, err := ResolveAnchor(lines, LineAnchor{LineNum: 5, Hash: HashLine("x")})
	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 2, ambiguous.Matches)
	assert.Contains(t, err.Error(), "2 matches")
}

func TestResolveAnchor_ExactMatchBeatsAmbiguity(t *testing.T) {
	// Duplicate content is fine as long as the line number still points at
	// one of the copies.
	lines := []string{"x", "x"}
	idx, err := ResolveAnchor(lines, LineAnchor{LineNum: 2, Hash: HashLine("x")})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolveAnchor_EmptyFile(t *testing.T) {
	_, err := ResolveAnchor(nil, LineAnchor{LineNum: 1, Hash: HashLine("a")})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}
