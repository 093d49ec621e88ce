package writeread

import (
	"encoding/json"
	"testing"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/stretchr/testify/require"
)

var self = common.HexToAddress("0x2fd1a5a3bb2c1c4ba3e6e5fe3a04e8d26b8c0b1a")

func TestMessageAndStorage(t *testing.T) {
	ep := New()

	h := pvm.NewMockHost([]byte("m"))
	require.Equal(t, uint64(0), ep.Main(h))
	require.Equal(t, Message, string(h.Ret()))

	h = pvm.NewMockHost([]byte("w"))
	require.Equal(t, uint64(0), ep.Main(h))
	require.Equal(t, Message, string(h.Storage[StorageKey]))

	storage := h.Storage
	h = pvm.NewMockHost([]byte("r"))
	h.Storage = storage
	require.Equal(t, uint64(0), ep.Main(h))
	require.Equal(t, Message, string(h.Ret()))
}

func TestEmptyAndUnknown(t *testing.T) {
	for _, args := range []string{"", "q"} {
		h := pvm.NewMockHost([]byte(args))
		require.Equal(t, uint64(ErrMethodNotFound), New().Main(h))
		require.Equal(t, "method not found", string(h.Ret()))
	}
}

func TestShortAddressOperand(t *testing.T) {
	for _, cmd := range []string{"b", "c", "e", "f", "x", "y"} {
		h := pvm.NewMockHost([]byte(cmd + self.String()[:39]))
		require.Equal(t, uint64(ErrGetAddress), New().Main(h), cmd)
		require.Empty(t, h.SideEffects, cmd)
		require.Empty(t, h.Calls, cmd)
	}

	h := pvm.NewMockHost([]byte("b" + "zz" + self.String()[2:]))
	require.Equal(t, uint64(ErrGetAddress), New().Main(h))
	require.Empty(t, h.Calls)
}

func TestForwardingPayloads(t *testing.T) {
	cases := []struct {
		args   string
		method string
		inner  string
	}{
		{"b", "riscv.exec", "w"},
		{"c", "riscv.exec", "b" + self.String()},
		{"e", "riscv.exec", "w"},
		{"f", "riscv.call", "e" + self.String()},
		{"x", "riscv.call", "r"},
		{"y", "riscv.call", "x" + self.String()},
	}
	for _, tc := range cases {
		h := pvm.NewMockHost([]byte(tc.args + self.String() + "trailing"))
		var gotMethod string
		var got types.ExecPayload
		handler := func(service, method string, payload []byte) ([]byte, error) {
			gotMethod = service + "." + method
			require.NoError(t, json.Unmarshal(payload, &got))
			return []byte(`"1vz411b7WB"`), nil
		}
		h.ReadHandler, h.WriteHandler = handler, handler

		require.Equal(t, uint64(0), New().Main(h), tc.args)
		require.Equal(t, tc.method, gotMethod, tc.args)
		require.Equal(t, self.String(), got.Address, tc.args)
		require.Equal(t, tc.inner, got.Args, tc.args)
		require.Equal(t, `"1vz411b7WB"`, string(h.Ret()), tc.args)
	}
}

func TestNestedFailurePropagates(t *testing.T) {
	h := pvm.NewMockHost([]byte("c" + self.String()))
	h.WriteHandler = func(string, string, []byte) ([]byte, error) {
		return nil, hosterrors.ErrNonZeroExit
	}
	require.Equal(t, uint64(ErrCallFailed), New().Main(h))
	require.Contains(t, string(h.Ret()), "NonZeroExit")

	h = pvm.NewMockHost([]byte("e" + self.String()))
	h.ReadOnly = true
	require.Equal(t, uint64(ErrCallFailed), New().Main(h))
	require.Contains(t, string(h.Ret()), "WriteInReadonlyContext")
	require.Empty(t, h.SideEffects)
}

func TestReadRejectsOversizedValue(t *testing.T) {
	h := pvm.NewMockHost([]byte("r"))
	h.Storage[StorageKey] = make([]byte, readCapacity+1)
	require.Equal(t, uint64(ErrCallFailed), New().Main(h))
	require.Contains(t, string(h.Ret()), "StorageValueTooLarge")
}
