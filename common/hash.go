package common

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// ComputeHash computes the BLAKE2b hash of the given data
func ComputeHash(data []byte) []byte {
	hash := blake2b.Sum256(data)
	return hash[:]
}

func Blake2Hash(data ...[]byte) Hash {
	h, _ := blake2b.New256(nil)
	for _, d := range data {
		h.Write(d)
	}
	return BytesToHash(h.Sum(nil))
}

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, val)
	return bytes
}

func BytesToUint64(data []byte) uint64 {
	if len(data) < 8 {
		padded := make([]byte, 8)
		copy(padded, data)
		data = padded
	}
	return binary.LittleEndian.Uint64(data)
}

// CombineKey scopes a contract storage key to the contract account.
func CombineKey(addr Address, key []byte) Hash {
	return Blake2Hash(addr.Bytes(), key)
}

// ContractAddress derives a contract account from the deploying transaction
// and the chain-wide deploy sequence number.
func ContractAddress(txHash Hash, seq uint64) Address {
	h := Blake2Hash(txHash.Bytes(), Uint64ToBytes(seq))
	return BytesToAddress(h.Bytes()[:AddressLength])
}
