package codec

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/types"
)

// Payload is a typed key/value mapping serialized as a JSON object.
type Payload struct {
	fields map[string]interface{}
}

func NewPayload() *Payload {
	return &Payload{fields: make(map[string]interface{})}
}

func (p *Payload) Set(key string, value interface{}) *Payload {
	p.fields[key] = value
	return p
}

// Bytes serializes the payload with sorted keys.
func (p *Payload) Bytes() ([]byte, error) {
	b, err := json.Marshal(p.fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hosterrors.ErrSerde, err)
	}
	return b, nil
}

// Text converts bytes carried as a JSON string. Bytes that are not valid
// UTF-8 would be replaced on the wire, so they are rejected.
func Text(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %d bytes are not valid UTF-8", hosterrors.ErrSerde, len(b))
	}
	return string(b), nil
}

// ExecPayload builds the {address, args} payload of a riscv exec or call.
func ExecPayload(addr AddressText, args []byte) ([]byte, error) {
	text, err := Text(args)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(types.ExecPayload{Address: addr.String(), Args: text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hosterrors.ErrSerde, err)
	}
	return b, nil
}

// DecodeJSON unmarshals a service payload, mapping failures to ErrSerde.
func DecodeJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", hosterrors.ErrSerde, err)
	}
	return nil
}

// EncodeJSON marshals a service response, mapping failures to ErrSerde.
func EncodeJSON(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hosterrors.ErrSerde, err)
	}
	return b, nil
}

// DecodeStringResponse unwraps a JSON string response into raw bytes.
func DecodeStringResponse(resp []byte) ([]byte, error) {
	var s string
	if err := DecodeJSON(resp, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}
