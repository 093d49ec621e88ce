// Package assertion is a contract whose `a` method always fails its
// assertion.
//
// Status codes: 1000 method not found, 1001 address decode, 1002 nested
// call failed.
package assertion

import (
	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/contract"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
)

const (
	Name       = "assertion"
	AssertMsg  = "1 should never bigger than 2"
	IgnoredRet = "ignored"
)

var Codes = contract.StatusCodes{MethodNotFound: 1000, AddressDecode: 1001, CallFailed: 1002}

func New() *contract.Entrypoint {
	return contract.NewEntrypoint(Name, contract.ByteSelector, Codes,
		contract.Route{Command: "a", Handler: assertAlways},
		contract.Route{Command: "b", MinLen: codec.AddressOperandEnd, Handler: callAssert(contract.Propagate)},
		contract.Route{Command: "i", MinLen: codec.AddressOperandEnd, Handler: callAssert(contract.Ignore)},
	)
}

func assertAlways(h pvm.Host, _ codec.ArgumentRecord) error {
	one, two := 1, 2
	return h.Assert(one > two, AssertMsg)
}

// callAssert reads `a` on the contract named by the address operand.
func callAssert(policy contract.ErrorPolicy) contract.Handler {
	return func(h pvm.Host, rec codec.ArgumentRecord) error {
		target, err := codec.ExtractAddress(rec.Bytes())
		if err != nil {
			return err
		}
		if _, err := target.Address(); err != nil {
			return err
		}
		resp, err := contract.Invoke(h, contract.Call{
			Target: target,
			Mode:   types.ReadMode,
			Args:   codec.NewRecord('a'),
			Policy: policy,
		})
		if err != nil {
			return err
		}
		if resp == nil {
			return h.ReturnString(IgnoredRet)
		}
		return h.ReturnBytes(resp)
	}
}
