package sim

import (
	"errors"
	"fmt"

	"github.com/evanjt06/lrusim/internal"
)

type OpType string

const (
	OpGet OpType = "get"
	OpSet OpType = "set"
)

var ErrInvalidOperation = errors.New("invalid operation")

// Operation is one scripted step. Value is ignored for gets.
type Operation struct {
	Type  OpType
	Key   string
	Value string
}

func Get(key string) Operation        { return Operation{Type: OpGet, Key: key} }
func Set(key, value string) Operation { return Operation{Type: OpSet, Key: key, Value: value} }

func (op Operation) Validate() error {
	if op.Type != OpGet && op.Type != OpSet {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, op.Type)
	}
	if err := internal.ValidateKey(op.Key); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	return nil
}

func (op Operation) String() string {
	if op.Type == OpSet {
		return fmt.Sprintf("set(%s,%q)", op.Key, op.Value)
	}
	return fmt.Sprintf("get(%s)", op.Key)
}

// OperationRecord is the log entry produced for each executed operation.
// Result and Hit apply to gets, EvictedKey to sets.
type OperationRecord struct {
	Step       int    `json:"step"`
	Type       OpType `json:"op"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	Result     string `json:"result,omitempty"`
	Hit        bool   `json:"hit,omitempty"`
	EvictedKey string `json:"evicted,omitempty"`
}

func (r OperationRecord) Evicted() bool {
	return r.EvictedKey != ""
}

func (r OperationRecord) String() string {
	switch r.Type {
	case OpGet:
		if r.Hit {
			return fmt.Sprintf("#%d get(%s) -> %q HIT", r.Step, r.Key, r.Result)
		}
		return fmt.Sprintf("#%d get(%s) -> MISS", r.Step, r.Key)
	default:
		if r.Evicted() {
			return fmt.Sprintf("#%d set(%s,%q) evicted %s", r.Step, r.Key, r.Value, r.EvictedKey)
		}
		return fmt.Sprintf("#%d set(%s,%q)", r.Step, r.Key, r.Value)
	}
}
