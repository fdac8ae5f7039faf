// Package diff computes the line-level comparison between two document
// versions and classifies each change.
package diff

import (
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
)

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

// Lines normalizes document text into its non-empty trimmed lines.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Compare diffs two texts and buckets the result into added, removed,
// modified and unchanged entries.
func Compare(originalText, modifiedText string) domain.ComparisonResult {
	ops := lcsOps(Lines(originalText), Lines(modifiedText))
	changes := pairAdjacent(ops)

	result := domain.ComparisonResult{Changes: changes}
	for _, change := range changes {
		switch change.Type {
		case domain.ChangeAdded:
			result.Added++
		case domain.ChangeRemoved:
			result.Removed++
		case domain.ChangeModified:
			result.Modified++
		case domain.ChangeUnchanged:
			result.Unchanged++
		}
	}
	return result
}

// lcsOps runs the classic longest-common-subsequence dynamic program and
// walks the table back into a tagged operation sequence.
func lcsOps(a, b []string) []op {
	n, m := len(a), len(b)
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else if table[i+1][j] >= table[i][j+1] {
				table[i][j] = table[i+1][j]
			} else {
				table[i][j] = table[i][j+1]
			}
		}
	}

	ops := make([]op, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, op{kind: opEqual, line: a[i]})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			ops = append(ops, op{kind: opDelete, line: a[i]})
			i++
		default:
			ops = append(ops, op{kind: opInsert, line: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, op{kind: opDelete, line: a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, op{kind: opInsert, line: b[j]})
	}
	return ops
}

// pairAdjacent turns the operation sequence into classified changes. A
// delete immediately followed by an insert is merged into one modified
// entry. This one-lookahead pairing can join unrelated adjacent changes
// into a single modification; downstream annotation prompts are built
// assuming exactly this behavior, so it stays.
func pairAdjacent(ops []op) []domain.Change {
	changes := make([]domain.Change, 0, len(ops))
	for i := 0; i < len(ops); i++ {
		current := ops[i]
		switch current.kind {
		case opEqual:
			changes = append(changes, domain.Change{Type: domain.ChangeUnchanged, From: current.line, To: current.line})
		case opDelete:
			if i+1 < len(ops) && ops[i+1].kind == opInsert {
				changes = append(changes, domain.Change{Type: domain.ChangeModified, From: current.line, To: ops[i+1].line})
				i++
				continue
			}
			changes = append(changes, domain.Change{Type: domain.ChangeRemoved, From: current.line})
		case opInsert:
			changes = append(changes, domain.Change{Type: domain.ChangeAdded, To: current.line})
		}
	}
	return changes
}
