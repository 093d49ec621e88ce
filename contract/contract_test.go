package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	target = common.HexToAddress("0x1111111111111111111111111111111111111111")
	codes  = StatusCodes{MethodNotFound: 1000, AddressDecode: 1001, CallFailed: 1002}
)

func sideEffectEntrypoint() *Entrypoint {
	write := func(h pvm.Host, rec codec.ArgumentRecord) error {
		if err := h.SetStorage([]byte("k"), []byte("v")); err != nil {
			return err
		}
		if err := h.EmitEvent([]byte("Touched"), rec.Operands); err != nil {
			return err
		}
		_, err := Invoke(h, Call{Target: codec.TextOf(target), Mode: types.WriteMode, Args: codec.NewRecord('w')})
		return err
	}
	return NewEntrypoint("probe", ByteSelector, codes,
		Route{Command: "s", MinLen: codec.AddressOperandEnd, Handler: write},
		Route{Command: "n", Handler: func(h pvm.Host, rec codec.ArgumentRecord) error {
			return h.ReturnString("no operands")
		}},
	)
}

func TestShortBufferHasNoSideEffects(t *testing.T) {
	ep := sideEffectEntrypoint()
	for n := 1; n < codec.AddressOperandEnd; n++ {
		args := "s" + strings.Repeat("a", n-1)
		h := pvm.NewMockHost([]byte(args))
		h.WriteHandler = func(string, string, []byte) ([]byte, error) { return []byte(`""`), nil }

		code := ep.Main(h)
		require.Equal(t, codes.AddressDecode, code, "len %d", n)
		require.Empty(t, h.SideEffects, "len %d", n)
		require.Contains(t, string(h.Ret()), "ArgTooShort")
	}

	h := pvm.NewMockHost([]byte("s" + target.String()))
	h.WriteHandler = func(string, string, []byte) ([]byte, error) { return []byte(`""`), nil }
	require.Equal(t, uint64(0), ep.Main(h))
	require.Equal(t, []string{pvm.SET_STORAGE, pvm.EMIT_EVENT, pvm.SERVICE_WRITE}, h.SideEffects)
}

func TestMethodNotFound(t *testing.T) {
	ep := sideEffectEntrypoint()
	for _, args := range []string{"", "z", "zzzz"} {
		h := pvm.NewMockHost([]byte(args))
		require.Equal(t, codes.MethodNotFound, ep.Main(h))
		require.Equal(t, MsgMethodNotFound, string(h.Ret()))
	}

	h := pvm.NewMockHost([]byte("n"))
	require.Equal(t, uint64(0), ep.Main(h))
	require.Equal(t, "no operands", string(h.Ret()))
}

func TestHandlerErrorsMapToCodes(t *testing.T) {
	ep := NewEntrypoint("errs", ByteSelector, codes,
		Route{Command: "a", Handler: func(h pvm.Host, rec codec.ArgumentRecord) error {
			_, err := codec.AddressText{'z'}.Address()
			return err
		}},
		Route{Command: "c", Handler: func(h pvm.Host, rec codec.ArgumentRecord) error {
			_, err := h.ServiceRead("missing", "m", nil)
			return err
		}},
	)

	h := pvm.NewMockHost([]byte("a"))
	require.Equal(t, codes.AddressDecode, ep.Main(h))
	require.Contains(t, string(h.Ret()), "AddressDecode")

	h = pvm.NewMockHost([]byte("c"))
	require.Equal(t, codes.CallFailed, ep.Main(h))
	require.Contains(t, string(h.Ret()), "ServiceNotFound")
}

func TestWholeSelectorAndInit(t *testing.T) {
	ep := NewEntrypoint("whole", WholeSelector, StatusCodes{MethodNotFound: 69},
		Route{Command: "pvm_ret", Handler: func(h pvm.Host, rec codec.ArgumentRecord) error {
			return h.ReturnString("pvm_ret")
		}},
	).WithInit(func(h pvm.Host, args []byte) error {
		return h.ReturnBytes(args)
	})

	h := pvm.NewMockHost([]byte("pvm_ret\x00trailing"))
	require.Equal(t, uint64(0), ep.Main(h))
	require.Equal(t, "pvm_ret", string(h.Ret()))

	h = pvm.NewMockHost([]byte("pvm_re"))
	require.Equal(t, uint64(69), ep.Main(h))

	h = pvm.NewMockHost([]byte("anything"))
	h.Init = true
	require.Equal(t, uint64(0), ep.Main(h))
	require.Equal(t, "anything", string(h.Ret()))
}

func TestDuplicateCommandPanics(t *testing.T) {
	noop := func(pvm.Host, codec.ArgumentRecord) error { return nil }
	require.Panics(t, func() {
		NewEntrypoint("dup", ByteSelector, codes, Route{Command: "a", Handler: noop}, Route{Command: "a", Handler: noop})
	})
}

func TestInvokeBuildsStructuredPayload(t *testing.T) {
	h := pvm.NewMockHost(nil)
	var got types.ExecPayload
	var gotMethod string
	h.ReadHandler = func(service, method string, payload []byte) ([]byte, error) {
		gotMethod = service + "." + method
		require.NoError(t, json.Unmarshal(payload, &got))
		return []byte(`"ok"`), nil
	}

	call := ChainCall(codec.TextOf(target), types.ReadMode, 'x', codec.TextOf(target))
	call.Args.Operands = append(call.Args.Operands, []byte(`"quoted\"`)...)
	resp, err := Invoke(h, call)
	require.NoError(t, err)
	require.Equal(t, `"ok"`, string(resp))
	require.Equal(t, "riscv.call", gotMethod)
	require.Equal(t, target.String(), got.Address)
	require.Equal(t, "x"+target.String()+`"quoted\"`, got.Args)
}

func TestInvokeErrorPolicy(t *testing.T) {
	failing := func(string, string, []byte) ([]byte, error) {
		return nil, hosterrors.ErrNonZeroExit
	}
	call := Call{Target: codec.TextOf(target), Mode: types.WriteMode, Args: codec.NewRecord('w')}

	h := pvm.NewMockHost(nil)
	h.WriteHandler = failing
	_, err := Invoke(h, call)
	require.True(t, errors.Is(err, hosterrors.ErrServiceCall))
	require.True(t, errors.Is(err, hosterrors.ErrNonZeroExit))

	call.Policy = Ignore
	resp, err := Invoke(h, call)
	require.NoError(t, err)
	require.Nil(t, resp)

	// exhaustion is never ignored
	h = pvm.NewMockHost(nil)
	h.Limit = h.Conf.ContractCallCycles - 1
	h.WriteHandler = failing
	_, err = Invoke(h, call)
	require.True(t, errors.Is(err, hosterrors.ErrResourceExhausted))
}

func TestReadStorage(t *testing.T) {
	h := pvm.NewMockHost(nil)
	h.Storage["k"] = []byte("1vz411b7WB")

	v, err := ReadStorage(h, []byte("k"), 100)
	require.NoError(t, err)
	assert.Equal(t, "1vz411b7WB", string(v))

	_, err = ReadStorage(h, []byte("k"), 4)
	require.True(t, errors.Is(err, hosterrors.ErrStorageValueTooLarge))

	v, err = ReadStorage(h, []byte("absent"), 4)
	require.NoError(t, err)
	assert.Empty(t, v)
}
