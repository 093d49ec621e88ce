package general

import (
	"testing"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/stretchr/testify/require"
)

const (
	nonce  = "0x1122334455667788990012223344556677889900112233445566778899001122"
	txHash = "0x1234112233445566778899001222334455667788990011223344556677889900"
)

func newHost(args string) *pvm.MockHost {
	h := pvm.NewMockHost([]byte(args))
	hash, n := common.HexToHash(txHash), common.HexToHash(nonce)
	h.Hash, h.NonceHash = &hash, &n
	h.Limit, h.Used, h.Price = 1024*1024*1024, 3, 1
	h.Height, h.Time = 1, 1234
	h.ExtraData = []byte("extra")
	h.SelfAddr = common.HexToAddress("0x0000000000000000000000000000000000000003")
	h.CallerAddr = common.HexToAddress("0x0000000000000000000000000000000000000002")
	h.OriginAddr = common.HexToAddress("0x0000000000000000000000000000000000000001")
	return h
}

func TestEnvironmentCommands(t *testing.T) {
	cases := map[string]string{
		"pvm_load_args":    "pvm_load_args",
		"pvm_ret":          "pvm_ret",
		"pvm_cycle_limit":  "1073741824",
		"pvm_cycle_price":  "1",
		"pvm_origin":       "0000000000000000000000000000000000000001",
		"pvm_caller":       "0000000000000000000000000000000000000002",
		"pvm_address":      "0000000000000000000000000000000000000003",
		"pvm_block_height": "1",
		"pvm_timestamp":    "1234",
		"pvm_extra":        "extra",
		"pvm_tx_hash":      txHash,
		"pvm_tx_nonce":     nonce,
	}
	for args, want := range cases {
		h := newHost(args)
		require.Equal(t, uint64(0), New().Main(h), args)
		require.Equal(t, want, string(h.Ret()), args)
	}
}

func TestCycleUsedGrows(t *testing.T) {
	h := newHost("pvm_cycle_used")
	require.Equal(t, uint64(0), New().Main(h))
	require.Equal(t, "3", string(h.Ret()))
}

func TestEmitEvent(t *testing.T) {
	h := newHost("pvm_emit_event")
	require.Equal(t, uint64(0), New().Main(h))
	require.Equal(t, []types.Event{{Service: "riscv", Name: EventName, Data: EventData}}, h.Events)
}

func TestInitEchoesArgs(t *testing.T) {
	h := newHost("anything at all")
	h.Init = true
	require.Equal(t, uint64(0), New().Main(h))
	require.Equal(t, "anything at all", string(h.Ret()))
}

func TestNotFound(t *testing.T) {
	for _, args := range []string{"", "pvm_unknown", "pvm_ret_"} {
		h := newHost(args)
		require.Equal(t, uint64(ErrMethodNotFound), New().Main(h), args)
		require.Equal(t, "method not found", string(h.Ret()))
	}
}
