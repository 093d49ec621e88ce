package common

import (
	"encoding/json"
	"fmt"
	"strings"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	HashLength    = ethereumCommon.HashLength
	AddressLength = ethereumCommon.AddressLength
	// AddressTextLength is the length of the textual form handed to contracts.
	AddressTextLength = 2 * AddressLength
)

// Hash is a custom type based on Ethereum's common.Hash
type Hash ethereumCommon.Hash

// Address is a custom type based on Ethereum's common.Address
type Address ethereumCommon.Address

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte {
	return ethereumCommon.Hash(h).Bytes()
}

// String returns the string representation of the hash.
func (h Hash) String() string {
	return ethereumCommon.Hash(h).String()
}

// Hex returns the hexadecimal string representation of the hash.
func (h Hash) Hex() string {
	return ethereumCommon.Hash(h).Hex()
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Skips "0x" and prints the first and last 4 characters
func Str(hash Hash) string {
	hex := hash.Hex()
	return fmt.Sprintf("%s..%s", hex[2:6], hex[len(hex)-4:])
}

// BytesToHash converts a byte slice to a Hash.
func BytesToHash(b []byte) Hash {
	return Hash(ethereumCommon.BytesToHash(b))
}

// HexToHash converts a hexadecimal string to a Hash.
func HexToHash(s string) Hash {
	return Hash(ethereumCommon.HexToHash(s))
}

func Bytes2Hex(d []byte) string {
	return hexutil.Encode(d)
}

func FromHex(b string) []byte {
	return ethereumCommon.FromHex(b)
}

// DecodeHex is the strict variant of FromHex, with or without the 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

// MarshalJSON custom marshaler to convert Hash to hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// UnmarshalJSON custom unmarshaler to handle hex strings for Hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	b, err := DecodeHex(hexStr)
	if err != nil {
		return err
	}
	if len(b) != HashLength {
		return fmt.Errorf("invalid hash length %d", len(b))
	}
	*h = BytesToHash(b)
	return nil
}

// Address methods

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte {
	return ethereumCommon.Address(a).Bytes()
}

// Hex returns the 0x-prefixed checksummed form.
func (a Address) Hex() string {
	return ethereumCommon.Address(a).Hex()
}

// String returns the 40 character lowercase form used on the contract ABI.
func (a Address) String() string {
	return ethereumCommon.Bytes2Hex(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// HexToAddress converts a hexadecimal string to an Address without validation.
func HexToAddress(s string) Address {
	return Address(ethereumCommon.HexToAddress(s))
}

// ParseAddress accepts exactly 40 hex characters, optionally 0x-prefixed.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != AddressTextLength {
		return Address{}, fmt.Errorf("invalid address length %d", len(s))
	}
	b, err := DecodeHex(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return BytesToAddress(b), nil
}

// BytesToAddress converts a byte slice to an Address.
func BytesToAddress(b []byte) Address {
	return Address(ethereumCommon.BytesToAddress(b))
}

// MarshalJSON custom marshaler to convert Address to its ABI text form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON custom unmarshaler to handle hex strings for Address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	addr, err := ParseAddress(hexStr)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
