package commands

import (
	"errors"
	"testing"

	"todosync/internal/service"
)

func TestParseTaskRef_Number(t *testing.T) {
	ref, err := ParseTaskRef([]string{"5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 5 || ref.ID != "" {
		t.Errorf("expected Num 5, got %+v", ref)
	}
}

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef([]string{"aB3xYz9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "aB3xYz9" || ref.Num != 0 {
		t.Errorf("expected ID aB3xYz9, got %+v", ref)
	}
}

func TestParseTaskRef_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero", []string{"0"}, "task number out of range: 0"},
		{"two args", []string{"1", "2"}, "invalid task reference: 1 2"},
		{"slash", []string{"todos/abc"}, "invalid task reference: todos/abc"},
		{"inner space", []string{"a b"}, "invalid task reference: a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskRef(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParseTaskRef_Required(t *testing.T) {
	for _, args := range [][]string{nil, {}, {"  "}} {
		_, err := ParseTaskRef(args)
		if !errors.Is(err, ErrTaskRefRequired) {
			t.Errorf("ParseTaskRef(%q): expected ErrTaskRefRequired, got %v", args, err)
		}
	}
}

func TestTaskRef_Resolve(t *testing.T) {
	tasks := []service.Task{
		{ID: "a", Text: "first"},
		{ID: "b", Text: "second"},
	}

	got, err := TaskRef{Num: 2}.Resolve(tasks)
	if err != nil || got.ID != "b" {
		t.Errorf("Num 2: got %+v, %v", got, err)
	}

	got, err = TaskRef{ID: "a"}.Resolve(tasks)
	if err != nil || got.Text != "first" {
		t.Errorf("ID a: got %+v, %v", got, err)
	}
}

func TestTaskRef_ResolveMisses(t *testing.T) {
	tasks := []service.Task{{ID: "a"}}

	_, err := TaskRef{Num: 2}.Resolve(tasks)
	if err == nil || err.Error() != "task number out of range: 2" {
		t.Errorf("unexpected error: %v", err)
	}

	_, err = TaskRef{ID: "zz"}.Resolve(tasks)
	if err == nil || err.Error() != "task not found: zz" {
		t.Errorf("unexpected error: %v", err)
	}
	var inputErr *inputError
	if !errors.As(err, &inputErr) {
		t.Error("expected an input error")
	}
}

func TestIsAllDigits(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"123", true},
		{"0", true},
		{"", false},
		{"12a", false},
		{"-1", false},
	}
	for _, tt := range tests {
		if got := isAllDigits(tt.input); got != tt.want {
			t.Errorf("isAllDigits(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
