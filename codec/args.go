package codec

import (
	"bytes"
	"fmt"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
)

// AddressOperandEnd is the end offset of the address operand that follows
// the method byte.
const AddressOperandEnd = 1 + common.AddressTextLength

// ArgumentRecord is a decoded ArgumentBuffer: a one byte method selector
// followed by method specific operands.
type ArgumentRecord struct {
	Method   byte
	Operands []byte
}

func NewRecord(method byte, operands ...[]byte) ArgumentRecord {
	return ArgumentRecord{Method: method, Operands: bytes.Join(operands, nil)}
}

// Bytes re-encodes the record into an ArgumentBuffer.
func (r ArgumentRecord) Bytes() []byte {
	out := make([]byte, 0, 1+len(r.Operands))
	out = append(out, r.Method)
	return append(out, r.Operands...)
}

func (r ArgumentRecord) String() string {
	return string(r.Bytes())
}

// MinLength reports the minimum buffer length of a method, zero when the
// method has no operands.
type MinLength func(method byte) int

// Decode reads the method selector and checks the method's minimum length.
func Decode(buf []byte, min MinLength) (ArgumentRecord, error) {
	if len(buf) == 0 {
		return ArgumentRecord{}, fmt.Errorf("%w: empty argument buffer", hosterrors.ErrArgTooShort)
	}
	method := buf[0]
	need := 1
	if min != nil {
		if n := min(method); n > need {
			need = n
		}
	}
	if len(buf) < need {
		return ArgumentRecord{}, fmt.Errorf("%w: method %q needs %d bytes, got %d", hosterrors.ErrArgTooShort, method, need, len(buf))
	}
	operands := make([]byte, len(buf)-1)
	copy(operands, buf[1:])
	return ArgumentRecord{Method: method, Operands: operands}, nil
}

// AddressText is the 40 character account form carried in argument buffers.
type AddressText [common.AddressTextLength]byte

func TextOf(addr common.Address) AddressText {
	var t AddressText
	copy(t[:], addr.String())
	return t
}

func (a AddressText) String() string {
	return string(a[:])
}

// Address parses the text. Extraction never validates, parsing does.
func (a AddressText) Address() (common.Address, error) {
	addr, err := common.ParseAddress(a.String())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", hosterrors.ErrAddressDecode, err)
	}
	return addr, nil
}

// ExtractAddress copies exactly the 40 bytes at offset 1, ignoring any
// trailing bytes.
func ExtractAddress(buf []byte) (AddressText, error) {
	var t AddressText
	if len(buf) < AddressOperandEnd {
		return t, fmt.Errorf("%w: address operand needs %d bytes, got %d", hosterrors.ErrArgTooShort, AddressOperandEnd, len(buf))
	}
	copy(t[:], buf[1:AddressOperandEnd])
	return t, nil
}

// EncodeBytes is the raw passthrough form.
func EncodeBytes(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// EncodeString is the null-terminated form.
func EncodeString(s string) []byte {
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out
}

// CString reads up to the first NUL.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
