// Package diff computes word-level modification records between two answer
// texts. The result is stored on the ledger entry of a modification so the
// audit view can render exactly what the reviewer changed.
package diff

import "strings"

// Op classifies a diff segment.
type Op string

const (
	OpUnchanged Op = "unchanged"
	OpRemoved   Op = "removed"
	OpAdded     Op = "added"
)

// Change is one contiguous run of words sharing the same diff operation.
type Change struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Words computes a word-level diff between old and new text. Consecutive
// words with the same operation are coalesced into a single Change.
// Both inputs are tokenized on whitespace.
func Words(oldText, newText string) []Change {
	oldWords := strings.Fields(oldText)
	newWords := strings.Fields(newText)

	ops := lcsOps(oldWords, newWords)

	var changes []Change
	appendRun := func(op Op, word string) {
		if n := len(changes); n > 0 && changes[n-1].Op == op {
			changes[n-1].Text += " " + word
			return
		}
		changes = append(changes, Change{Op: op, Text: word})
	}

	i, j := 0, 0
	for _, op := range ops {
		switch op {
		case OpUnchanged:
			appendRun(OpUnchanged, oldWords[i])
			i++
			j++
		case OpRemoved:
			appendRun(OpRemoved, oldWords[i])
			i++
		case OpAdded:
			appendRun(OpAdded, newWords[j])
			j++
		}
	}
	return changes
}

// lcsOps walks a longest-common-subsequence table and emits one operation
// per word of the combined inputs.
func lcsOps(a, b []string) []Op {
	m, n := len(a), len(b)
	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else if table[i+1][j] >= table[i][j+1] {
				table[i][j] = table[i+1][j]
			} else {
				table[i][j] = table[i][j+1]
			}
		}
	}

	ops := make([]Op, 0, m+n)
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case a[i] == b[j]:
			ops = append(ops, OpUnchanged)
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			ops = append(ops, OpRemoved)
			i++
		default:
			ops = append(ops, OpAdded)
			j++
		}
	}
	for ; i < m; i++ {
		ops = append(ops, OpRemoved)
	}
	for ; j < n; j++ {
		ops = append(ops, OpAdded)
	}
	return ops
}
