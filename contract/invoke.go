package contract

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
)

// ErrorPolicy decides what a failed nested call does to the caller.
type ErrorPolicy uint8

const (
	Propagate ErrorPolicy = iota
	Ignore
)

func (p ErrorPolicy) String() string {
	if p == Ignore {
		return "ignore"
	}
	return "propagate"
}

// Call describes one nested contract invocation. Chained calls are built by
// nesting descriptors in Args rather than by formatting strings.
type Call struct {
	Target codec.AddressText
	Mode   types.CallMode
	Args   codec.ArgumentRecord
	Policy ErrorPolicy
}

// ChainCall builds the record that asks the target to run method against
// its own address operand.
func ChainCall(target codec.AddressText, mode types.CallMode, method byte, next codec.AddressText) Call {
	return Call{Target: target, Mode: mode, Args: codec.NewRecord(method, next[:])}
}

// Invoke runs the call through riscv.exec or riscv.call and returns the
// raw service response. With Ignore, a failed call yields a nil response
// and no error, except for fatal errors, which always propagate.
func Invoke(h pvm.Host, c Call) ([]byte, error) {
	payload, err := codec.ExecPayload(c.Target, c.Args.Bytes())
	if err != nil {
		return nil, err
	}
	var resp []byte
	if c.Mode == types.WriteMode {
		resp, err = h.ServiceWrite(pvm.ContractService, "exec", payload)
	} else {
		resp, err = h.ServiceRead(pvm.ContractService, "call", payload)
	}
	if err == nil {
		return resp, nil
	}
	if c.Policy == Ignore && !hosterrors.IsFatal(err) {
		h.Debug([]byte(fmt.Sprintf("ignored %s %s: %v", c.Mode, c.Target, err)))
		return nil, nil
	}
	return nil, err
}

// ReadStorage reads key into a destination of the given capacity.
func ReadStorage(h pvm.Host, key []byte, capacity int) ([]byte, error) {
	v, err := h.GetStorage(key)
	if err != nil {
		return nil, err
	}
	return codec.Bounded(v, capacity, hosterrors.ErrStorageValueTooLarge)
}
