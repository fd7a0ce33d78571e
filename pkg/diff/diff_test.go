package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords_Identical(t *testing.T) {
	changes := Words("apply neem oil weekly", "apply neem oil weekly")
	require.Len(t, changes, 1)
	assert.Equal(t, OpUnchanged, changes[0].Op)
	assert.Equal(t, "apply neem oil weekly", changes[0].Text)
}

func TestWords_Replacement(t *testing.T) {
	changes := Words("apply neem oil weekly", "apply neem oil daily")
	require.Len(t, changes, 3)
	assert.Equal(t, Change{Op: OpUnchanged, Text: "apply neem oil"}, changes[0])
	assert.Equal(t, Change{Op: OpRemoved, Text: "weekly"}, changes[1])
	assert.Equal(t, Change{Op: OpAdded, Text: "daily"}, changes[2])
}

func TestWords_InsertOnly(t *testing.T) {
	changes := Words("use urea", "use granular urea")
	require.Len(t, changes, 3)
	assert.Equal(t, Change{Op: OpUnchanged, Text: "use"}, changes[0])
	assert.Equal(t, Change{Op: OpAdded, Text: "granular"}, changes[1])
	assert.Equal(t, Change{Op: OpUnchanged, Text: "urea"}, changes[2])
}

func TestWords_EmptyInputs(t *testing.T) {
	assert.Empty(t, Words("", ""))

	changes := Words("", "new answer")
	require.Len(t, changes, 1)
	assert.Equal(t, OpAdded, changes[0].Op)

	changes = Words("old answer", "")
	require.Len(t, changes, 1)
	assert.Equal(t, OpRemoved, changes[0].Op)
}

// Reconstructing both sides from the diff must give back the originals.
func TestWords_RoundTrip(t *testing.T) {
	oldText := "spray copper oxychloride at 3g per litre in the evening"
	newText := "spray copper oxychloride at 2g per litre early morning"

	var oldSide, newSide []string
	for _, c := range Words(oldText, newText) {
		switch c.Op {
		case OpUnchanged:
			oldSide = append(oldSide, c.Text)
			newSide = append(newSide, c.Text)
		case OpRemoved:
			oldSide = append(oldSide, c.Text)
		case OpAdded:
			newSide = append(newSide, c.Text)
		}
	}
	assert.Equal(t, oldText, join(oldSide))
	assert.Equal(t, newText, join(newSide))
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
