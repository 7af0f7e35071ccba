package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	sectionColor = color.New(color.FgMagenta, color.Bold)
	keyColor     = color.New(color.FgYellow)
)

// Success displays a success message.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(errOut, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	warningColor.Fprintf(out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	infoColor.Fprintf(out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Step displays a step indicator message.
func Step(format string, args ...interface{}) {
	fmt.Fprintf(out, "→ %s\n", fmt.Sprintf(format, args...))
}

// Newline prints a newline.
func Newline() {
	fmt.Fprintln(out)
}

// Section displays a section header.
func Section(title string) {
	fmt.Fprintln(out)
	sectionColor.Fprintf(out, "━━━ %s ━━━\n", strings.ToUpper(title))
	fmt.Fprintln(out)
}

// KeyValue displays a key-value pair.
func KeyValue(key string, value interface{}) {
	keyColor.Fprintf(out, "  %s: ", key)
	fmt.Fprintf(out, "%v\n", value)
}

// Table displays rows aligned under headers.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	separator := make([]string, len(headers))
	for i, h := range headers {
		separator[i] = strings.Repeat("-", utf8.RuneCountInString(h))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// Box displays text wrapped to width inside a border.
func Box(title, content string, width int) {
	if width < 20 {
		width = 20
	}
	lines := Wrap(content, width)
	if n := utf8.RuneCountInString(title); n > width {
		width = n
	}

	fmt.Fprintf(out, "┌%s┐\n", strings.Repeat("─", width+2))
	if title != "" {
		fmt.Fprintf(out, "│ %s │\n", pad(title, width))
		fmt.Fprintf(out, "├%s┤\n", strings.Repeat("─", width+2))
	}
	for _, line := range lines {
		fmt.Fprintf(out, "│ %s │\n", pad(line, width))
	}
	fmt.Fprintf(out, "└%s┘\n", strings.Repeat("─", width+2))
}

// Wrap breaks text into lines of at most width runes, splitting on spaces.
// Paragraph breaks are kept as empty lines.
func Wrap(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			switch {
			case line == "":
				line = word
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) > width:
				lines = append(lines, line)
				line = word
			default:
				line += " " + word
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
