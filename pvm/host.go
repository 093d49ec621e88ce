package pvm

import (
	"github.com/colorfulnotion/pvmhost/common"
)

// Host is the ABI a contract entrypoint runs against. Every fallible call
// may return a wrapped ErrOutOfCycles; once it does, the invocation is over
// and every later call fails the same way.
type Host interface {
	LoadArgs() []byte
	ReturnBytes(data []byte) error
	ReturnString(s string) error
	IsInit() bool

	CycleLimit() uint64
	CycleUsed() uint64
	CyclePrice() uint64

	Origin() common.Address
	Caller() common.Address
	Self() common.Address

	BlockHeight() uint64
	Timestamp() uint64
	Extra() ([]byte, bool)
	TxHash() (common.Hash, bool)
	TxNonce() (common.Hash, bool)

	EmitEvent(name, payload []byte) error
	GetStorage(key []byte) ([]byte, error)
	SetStorage(key, value []byte) error
	ServiceRead(service, method string, payload []byte) ([]byte, error)
	ServiceWrite(service, method string, payload []byte) ([]byte, error)
	ContractCall(address common.Address, args []byte) ([]byte, error)

	Assert(cond bool, msg string) error
	Debug(msg []byte)
}

// Host function names, shared by the JavaScript binding and logs.
const (
	LOAD_ARGS     = "load_args"
	RET           = "ret"
	IS_INIT       = "is_init"
	CYCLE_LIMIT   = "cycle_limit"
	CYCLE_USED    = "cycle_used"
	CYCLE_PRICE   = "cycle_price"
	ORIGIN        = "origin"
	CALLER        = "caller"
	ADDRESS       = "address"
	BLOCK_HEIGHT  = "block_height"
	TIMESTAMP     = "timestamp"
	EXTRA         = "extra"
	TX_HASH       = "tx_hash"
	TX_NONCE      = "tx_nonce"
	EMIT_EVENT    = "emit_event"
	GET_STORAGE   = "get_storage"
	SET_STORAGE   = "set_storage"
	SERVICE_READ  = "service_read"
	SERVICE_WRITE = "service_write"
	CONTRACT_CALL = "contract_call"
	ASSERT        = "assert"
	DEBUG         = "debug"
)
