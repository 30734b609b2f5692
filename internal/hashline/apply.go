package hashline

import (
	"fmt"
	"sort"
	"strings"
)

// OpKind enumerates the recognized edit operation kinds. The set is closed;
// an unknown wire literal must be rejected by ParseOpKind before a batch ever
// reaches Apply.
type OpKind int

const (
	OpReplace OpKind = iota
	OpInsertAfter
	OpInsertBefore
	OpDelete
)

// ParseOpKind maps a wire literal to its OpKind.
func ParseOpKind(s string) (OpKind, error) {
	switch s {
	case "replace":
		return OpReplace, nil
	case "insert_after":
		return OpInsertAfter, nil
	case "insert_before":
		return OpInsertBefore, nil
	case "delete":
		return OpDelete, nil
	default:
		return 0, fmt.Errorf("invalid operation type: %s", s)
	}
}

// Operation is one anchored edit in a batch. EndAnchor, when set, marks the
// inclusive end of a contiguous range starting at Anchor (meaningful for
// OpReplace and OpDelete). Content carries replacement or inserted text; nil
// means insert nothing, which for OpReplace is a net deletion.
type Operation struct {
	Kind      OpKind
	Anchor    LineAnchor
	EndAnchor *LineAnchor
	Content   *string
}

type resolvedOp struct {
	start   int // 0-based, inclusive
	end     int // 0-based, inclusive; equals start for single-line and insert ops
	kind    OpKind
	content *string
}

// removesLines reports whether the operation consumes its [start,end] range.
func (r resolvedOp) removesLines() bool {
	return r.kind == OpReplace || r.kind == OpDelete
}

// Apply applies a batch of operations to content and returns the new content.
//
// Every anchor in the batch is resolved against the original, unmodified line
// sequence, so no operation ever sees the index shifts caused by another
// member of the same batch. The resolved operations are then applied from the
// highest start index downward: edits at higher indices cannot move the
// targets of the still-pending lower ones, so a single pass suffices.
//
// Any resolution or validation failure returns before the sequence is
// touched; the caller can rely on all-or-nothing behavior.
func Apply(content string, operations []Operation) (string, error) {
	lines := SplitLines(content)

	resolved := make([]resolvedOp, 0, len(operations))
	for _, op := range operations {
		start, err := ResolveAnchor(lines, op.Anchor)
		if err != nil {
			return "", err
		}
		end := start
		if op.EndAnchor != nil {
			end, err = ResolveAnchor(lines, *op.EndAnchor)
			if err != nil {
				return "", err
			}
			if end < start {
				return "", fmt.Errorf("end anchor %s is before start anchor %s", *op.EndAnchor, op.Anchor)
			}
		}
		resolved = append(resolved, resolvedOp{start: start, end: end, kind: op.Kind, content: op.Content})
	}

	if err := checkOverlap(resolved); err != nil {
		return "", err
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].start > resolved[j].start
	})

	for _, op := range resolved {
		switch op.kind {
		case OpReplace:
			lines = splice(lines, op.start, op.end-op.start+1, contentLines(op.content))
		case OpDelete:
			lines = splice(lines, op.start, op.end-op.start+1, nil)
		case OpInsertAfter:
			lines = splice(lines, op.start+1, 0, contentLines(op.content))
		case OpInsertBefore:
			lines = splice(lines, op.start, 0, contentLines(op.content))
		}
	}

	result := strings.Join(lines, "\n")
	if strings.HasSuffix(content, "\n") && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result, nil
}

// checkOverlap rejects batches in which two removal ranges intersect. Both
// ranges were resolved against the same baseline, so applying them would have
// the lower-index one consume lines already rewritten by the higher-index one.
// Inserts are zero-width and cannot overlap anything.
func checkOverlap(ops []resolvedOp) error {
	for i, a := range ops {
		if !a.removesLines() {
			continue
		}
		for _, b := range ops[i+1:] {
			if !b.removesLines() {
				continue
			}
			if a.start <= b.end && b.start <= a.end {
				return fmt.Errorf("operations target overlapping line ranges %d-%d and %d-%d",
					a.start+1, a.end+1, b.start+1, b.end+1)
			}
		}
	}
	return nil
}

// splice removes del lines at index at and inserts ins in their place.
func splice(lines []string, at, del int, ins []string) []string {
	out := make([]string, 0, len(lines)-del+len(ins))
	out = append(out, lines[:at]...)
	out = append(out, ins...)
	out = append(out, lines[at+del:]...)
	return out
}

func contentLines(content *string) []string {
	if content == nil {
		return nil
	}
	return SplitLines(*content)
}
