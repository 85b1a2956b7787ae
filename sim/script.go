package sim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/evanjt06/lrusim/internal"
)

// scriptLine is the on-disk form of an operation, one JSON object per line.
// Records written by a Sequencer decode as scriptLines too; their extra
// fields are ignored.
type scriptLine struct {
	Op    string  `json:"op"`
	Key   string  `json:"key"`
	Value *string `json:"value,omitempty"`
}

// LoadScript reads a JSON-lines script from path.
func LoadScript(path string) ([]Operation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	ops, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

// ParseScript decodes one operation per non-blank line. Unlike replaying a
// record log, a malformed line is an error.
func ParseScript(r io.Reader) ([]Operation, error) {
	var ops []Operation

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var sl scriptLine
		if err := json.Unmarshal([]byte(line), &sl); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		op, err := sl.operation()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	return ops, nil
}

func (sl scriptLine) operation() (Operation, error) {
	name, err := internal.NormalizeOp(sl.Op)
	if err != nil {
		return Operation{}, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}

	op := Operation{Type: OpType(name), Key: sl.Key}
	if op.Type == OpSet {
		if sl.Value == nil {
			return Operation{}, fmt.Errorf("%w: set %q has no value", ErrInvalidOperation, sl.Key)
		}
		op.Value = *sl.Value
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// WriteScript encodes ops in the format ParseScript reads.
func WriteScript(w io.Writer, ops []Operation) error {
	enc := json.NewEncoder(w)
	for _, op := range ops {
		sl := scriptLine{Op: strings.ToUpper(string(op.Type)), Key: op.Key}
		if op.Type == OpSet {
			v := op.Value
			sl.Value = &v
		}
		if err := enc.Encode(sl); err != nil {
			return fmt.Errorf("failed to encode %s: %w", op, err)
		}
	}
	return nil
}

// DemoScript is the walkthrough sequence for a cache of four: the get on A
// after the cache fills promotes it, so inserting E evicts B rather than A.
func DemoScript() []Operation {
	return []Operation{
		Get("X"),
		Set("A", "1"),
		Set("B", "2"),
		Set("C", "3"),
		Set("D", "4"),
		Get("A"),
		Set("E", "5"),
		Get("B"),
		Get("A"),
	}
}
