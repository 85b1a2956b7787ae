package sim_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/evanjt06/lrusim/sim"
)

func TestParseScript(t *testing.T) {
	input := `{"op":"SET","key":"A","value":"1"}

{"op":"get","key":"A"}
  {"op":"Set","key":"B","value":""}
`
	ops, err := sim.ParseScript(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}

	want := []sim.Operation{sim.Set("A", "1"), sim.Get("A"), sim.Set("B", "")}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("Expected %+v, got %+v", want, ops)
	}
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		invalid bool
	}{
		{"bad json", `{"op":"SET",`, false},
		{"unknown op", `{"op":"DELETE","key":"A"}`, true},
		{"empty key", `{"op":"GET","key":""}`, true},
		{"set without value", `{"op":"SET","key":"A"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{"op":"GET","key":"ok"}` + "\n" + tt.input
			_, err := sim.ParseScript(strings.NewReader(input))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), "line 2") {
				t.Errorf("Expected error to name line 2, got %v", err)
			}
			if got := errors.Is(err, sim.ErrInvalidOperation); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalidOperation) = %v, want %v (%v)", got, tt.invalid, err)
			}
		})
	}
}

func TestWriteScriptRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := sim.WriteScript(&buf, sim.DemoScript()); err != nil {
		t.Fatalf("WriteScript failed: %v", err)
	}

	ops, err := sim.ParseScript(&buf)
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	if !reflect.DeepEqual(ops, sim.DemoScript()) {
		t.Errorf("Round trip mismatch: %+v", ops)
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.jsonl")
	content := `{"op":"SET","key":"user","value":"evan"}` + "\n" + `{"op":"GET","key":"user"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ops, err := sim.LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	if want := []sim.Operation{sim.Set("user", "evan"), sim.Get("user")}; !reflect.DeepEqual(ops, want) {
		t.Errorf("Expected %+v, got %+v", want, ops)
	}

	if _, err := sim.LoadScript(filepath.Join(t.TempDir(), "nope.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
