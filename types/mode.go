package types

import (
	"encoding/json"
	"fmt"
)

// CallMode distinguishes non-mutating reads from state-mutating writes.
type CallMode uint8

const (
	ReadMode CallMode = iota
	WriteMode
)

func (m CallMode) String() string {
	switch m {
	case ReadMode:
		return "read"
	case WriteMode:
		return "write"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// InterpreterType selects the backend that runs a contract's code.
type InterpreterType uint8

const (
	Binary     InterpreterType = 1
	JavaScript InterpreterType = 2
)

func (t InterpreterType) String() string {
	switch t {
	case Binary:
		return "Binary"
	case JavaScript:
		return "JavaScript"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

func ParseInterpreterType(s string) (InterpreterType, error) {
	switch s {
	case "Binary", "binary", "bin":
		return Binary, nil
	case "JavaScript", "javascript", "js", "Duktape":
		return JavaScript, nil
	}
	return 0, fmt.Errorf("unknown interpreter type %q", s)
}

func (t InterpreterType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *InterpreterType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseInterpreterType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
