package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todosync/internal/service"
)

// TaskRef represents a parsed task reference: either a 1-based position in
// the current list or a task ID.
type TaskRef struct {
	Num int    // 1-based task number, 0 when ID is set
	ID  string // task ID, empty when Num is set
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. No args, or a blank arg → ErrTaskRefRequired
// 2. All digits → task number (must be >= 1)
// 3. Anything else without whitespace or '/' → task ID
// 4. More than one arg → error: invalid task reference
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", strings.Join(args, " "))
	}

	arg := args[0]
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %d", num)
		}
		return TaskRef{Num: num}, nil
	}

	if strings.ContainsFunc(arg, func(r rune) bool { return r == '/' || unicode.IsSpace(r) }) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{ID: arg}, nil
}

// Resolve finds the referenced task in tasks.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID == "" {
		if r.Num < 1 || r.Num > len(tasks) {
			return service.Task{}, invalid(fmt.Sprintf("task number out of range: %d", r.Num))
		}
		return tasks[r.Num-1], nil
	}

	for _, t := range tasks {
		if t.ID == r.ID {
			return t, nil
		}
	}
	return service.Task{}, invalid("task not found: " + r.ID)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
