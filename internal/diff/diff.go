// Package diff renders a compact line diff for change previews. The
// output uses "− " (minus sign) for removed lines and "+ " for inserted
// lines; replaced regions list all removals before their insertions.
package diff

import "strings"

// NoChanges is returned by Lines when the inputs are line-identical.
const NoChanges = "(no changes)"

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type op struct {
	kind opKind
	line string
}

// Lines compares two texts line by line and returns the rendered diff.
// The comparison ignores a trailing-newline-only difference, so callers
// can pass file contents and in-memory fragments interchangeably.
func Lines(oldText, newText string) string {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	ops := compare(oldLines, newLines)

	var out []string
	for i := 0; i < len(ops); {
		if ops[i].kind == opEqual {
			i++
			continue
		}
		// Emit the whole changed region, removals first.
		j := i
		for j < len(ops) && ops[j].kind != opEqual {
			j++
		}
		for k := i; k < j; k++ {
			if ops[k].kind == opDelete {
				out = append(out, "− "+ops[k].line)
			}
		}
		for k := i; k < j; k++ {
			if ops[k].kind == opInsert {
				out = append(out, "+ "+ops[k].line)
			}
		}
		i = j
	}

	if len(out) == 0 {
		return NoChanges
	}
	return strings.Join(out, "\n")
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// compare produces an edit script via a longest-common-subsequence table.
// Inputs here are short org records, so the quadratic table is fine.
func compare(a, b []string) []op {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	ops := make([]op, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, op{opEqual, a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, op{opDelete, a[i]})
			i++
		default:
			ops = append(ops, op{opInsert, b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, op{opDelete, a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, op{opInsert, b[j]})
	}
	return ops
}
