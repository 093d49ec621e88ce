// Package writeread is a contract exercising storage and chained read and
// write invocations against itself.
//
//	         write           write
//	c<addr> -------> b<addr> -------> w
//	         read            write
//	f<addr> -------> e<addr> -------> w     (always fails)
//	         read            read
//	y<addr> -------> x<addr> -------> r
//
// Status codes:
//
//	1000  method not found
//	1001  address operand missing or undecodable
//	1002  nested call failed
package writeread

import (
	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/contract"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
)

const Name = "writeread"

const (
	ErrMethodNotFound = 1000
	ErrGetAddress     = 1001
	ErrCallFailed     = 1002
)

const (
	StorageKey = "crpd"
	Message    = "1vz411b7WB"

	readCapacity = 100
)

var Codes = contract.StatusCodes{
	MethodNotFound: ErrMethodNotFound,
	AddressDecode:  ErrGetAddress,
	CallFailed:     ErrCallFailed,
}

func New() *contract.Entrypoint {
	withAddr := codec.AddressOperandEnd
	return contract.NewEntrypoint(Name, contract.ByteSelector, Codes,
		contract.Route{Command: "r", Handler: read},
		contract.Route{Command: "w", Handler: write},
		contract.Route{Command: "m", Handler: message},
		contract.Route{Command: "b", MinLen: withAddr, Handler: forward(types.WriteMode, 'w', false)},
		contract.Route{Command: "c", MinLen: withAddr, Handler: forward(types.WriteMode, 'b', true)},
		contract.Route{Command: "e", MinLen: withAddr, Handler: forward(types.WriteMode, 'w', false)},
		contract.Route{Command: "f", MinLen: withAddr, Handler: forward(types.ReadMode, 'e', true)},
		contract.Route{Command: "x", MinLen: withAddr, Handler: forward(types.ReadMode, 'r', false)},
		contract.Route{Command: "y", MinLen: withAddr, Handler: forward(types.ReadMode, 'x', true)},
	)
}

func read(h pvm.Host, _ codec.ArgumentRecord) error {
	v, err := contract.ReadStorage(h, []byte(StorageKey), readCapacity)
	if err != nil {
		return err
	}
	return h.ReturnBytes(v)
}

func write(h pvm.Host, _ codec.ArgumentRecord) error {
	return h.SetStorage([]byte(StorageKey), []byte(Message))
}

func message(h pvm.Host, _ codec.ArgumentRecord) error {
	return h.ReturnString(Message)
}

// forward invokes next on the contract named by the address operand. With
// chain set, the address is passed on so next can forward again. The raw
// riscv response becomes the return value.
func forward(mode types.CallMode, next byte, chain bool) contract.Handler {
	return func(h pvm.Host, rec codec.ArgumentRecord) error {
		target, err := codec.ExtractAddress(rec.Bytes())
		if err != nil {
			return err
		}
		if _, err := target.Address(); err != nil {
			return err
		}
		call := contract.Call{Target: target, Mode: mode, Args: codec.NewRecord(next)}
		if chain {
			call = contract.ChainCall(target, mode, next, target)
		}
		resp, err := contract.Invoke(h, call)
		if err != nil {
			return err
		}
		return h.ReturnBytes(resp)
	}
}
