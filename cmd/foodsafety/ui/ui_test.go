package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	return &stdout, &stderr
}

func TestMessages(t *testing.T) {
	stdout, stderr := capture(t)
	Success("stored %d", 3)
	Warning("careful")
	Error("failed: %s", "boom")

	assert.Equal(t, "✓ stored 3\n⚠ careful\n", stdout.String())
	assert.Equal(t, "✗ failed: boom\n", stderr.String())
}

func TestTable(t *testing.T) {
	stdout, _ := capture(t)
	Table([]string{"NAME", "CLASS"}, [][]string{{"Tuna", "Class I"}, {"Romaine lettuce", "Class II"}})

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "NAME             CLASS", lines[0])
	assert.Equal(t, "----             -----", lines[1])
	assert.Equal(t, "Romaine lettuce  Class II", lines[3])
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, Wrap("one two three", 8))
	assert.Equal(t, []string{"a", "", "b"}, Wrap("a\n\nb", 10))
	assert.Equal(t, []string{"supercalifragilistic"}, Wrap("supercalifragilistic", 5))
}

func TestBox(t *testing.T) {
	stdout, _ := capture(t)
	Box("Answer", "Tuna is fine in moderation.", 20)
	out := stdout.String()
	assert.Contains(t, out, "│ Answer               │")
	assert.Contains(t, out, "│ Tuna is fine in      │")
	assert.Contains(t, out, "│ moderation.          │")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "tunaf…", Truncate("tunafish salad", 6))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}
