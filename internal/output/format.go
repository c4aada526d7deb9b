// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todosync/internal/profile"
	"todosync/internal/service"
)

const (
	// ListSeparator separates successive snapshots in watch output.
	ListSeparator = "------------"

	// EmptyList is printed for a snapshot with no tasks.
	EmptyList = "(no tasks)"
)

// FormatTask formats one task line.
// Format: "{N:>4}  [x] {TEXT}\n" (4-wide right-aligned number, two spaces, marker, text)
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, marker(task.Completed), normalizeText(task.Text))
}

// FormatTasks formats a whole snapshot, numbering from 1.
func FormatTasks(w io.Writer, tasks []service.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, EmptyList)
		return
	}
	for i, task := range tasks {
		FormatTask(w, i+1, task)
	}
}

// FormatProfile formats the profile screen.
func FormatProfile(w io.Writer, p profile.Profile) {
	name := p.DisplayName
	if strings.TrimSpace(name) == "" {
		name = "(not set)"
	}
	fmt.Fprintf(w, "Name:  %s\n", name)
	fmt.Fprintf(w, "Email: %s\n", p.Email)
	fmt.Fprintf(w, "Image: %s\n", describeImage(p.Image))
}

func marker(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// normalizeText normalizes task text for display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}

func describeImage(uri string) string {
	if uri == "" {
		return "(none)"
	}
	mime, data, err := profile.DecodeDataURI(uri)
	if err != nil {
		return "(unreadable)"
	}
	return fmt.Sprintf("%s, %d bytes", mime, len(data))
}
