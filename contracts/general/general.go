// Package general is a contract that echoes the host environment. Commands
// are whole argument strings naming a host function; the init invocation
// returns its arguments.
//
// Status code 69 covers both an empty buffer and an unknown command.
package general

import (
	"strconv"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/contract"
	"github.com/colorfulnotion/pvmhost/pvm"
)

const (
	Name = "general"

	ErrMethodNotFound = 69

	EventName = "event_name"
	EventData = "event_data"
)

var Codes = contract.StatusCodes{
	MethodNotFound: ErrMethodNotFound,
	AddressDecode:  ErrMethodNotFound,
	CallFailed:     ErrMethodNotFound,
}

func New() *contract.Entrypoint {
	routes := []contract.Route{
		ret("pvm_load_args", func(h pvm.Host) string { return "pvm_load_args" }),
		ret("pvm_ret", func(h pvm.Host) string { return "pvm_ret" }),
		ret("pvm_cycle_limit", func(h pvm.Host) string { return u64(h.CycleLimit()) }),
		ret("pvm_cycle_used", func(h pvm.Host) string { return u64(h.CycleUsed()) }),
		ret("pvm_cycle_price", func(h pvm.Host) string { return u64(h.CyclePrice()) }),
		ret("pvm_origin", func(h pvm.Host) string { return h.Origin().String() }),
		ret("pvm_caller", func(h pvm.Host) string { return h.Caller().String() }),
		ret("pvm_address", func(h pvm.Host) string { return h.Self().String() }),
		ret("pvm_block_height", func(h pvm.Host) string { return u64(h.BlockHeight()) }),
		ret("pvm_timestamp", func(h pvm.Host) string { return u64(h.Timestamp()) }),
		ret("pvm_extra", func(h pvm.Host) string {
			extra, _ := h.Extra()
			return string(extra)
		}),
		ret("pvm_tx_hash", func(h pvm.Host) string {
			if hash, ok := h.TxHash(); ok {
				return hash.Hex()
			}
			return ""
		}),
		ret("pvm_tx_nonce", func(h pvm.Host) string {
			if nonce, ok := h.TxNonce(); ok {
				return nonce.Hex()
			}
			return ""
		}),
		{Command: "pvm_emit_event", Handler: func(h pvm.Host, _ codec.ArgumentRecord) error {
			if err := h.EmitEvent([]byte(EventName), []byte(EventData)); err != nil {
				return err
			}
			return h.ReturnString("")
		}},
	}
	return contract.NewEntrypoint(Name, contract.WholeSelector, Codes, routes...).
		WithInit(func(h pvm.Host, args []byte) error {
			return h.ReturnBytes(args)
		})
}

func ret(cmd contract.Command, fn func(h pvm.Host) string) contract.Route {
	return contract.Route{Command: cmd, Handler: func(h pvm.Host, _ codec.ArgumentRecord) error {
		return h.ReturnString(fn(h))
	}}
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}
