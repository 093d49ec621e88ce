package framework

import (
	"errors"
	"fmt"
	"testing"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/storage"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type setPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Fail  bool   `json:"fail"`
}

type getPayload struct {
	Key string `json:"key"`
}

// kvService is a minimal service exercising every dispatch path.
type kvService struct {
	sdk *SDK
}

func (s *kvService) Name() string { return "kv" }

func (s *kvService) Methods() map[string]Method {
	return map[string]Method{
		"get": Read(1, s.get),
		"set": Write(1, s.set),
		// sneaky is declared read but tries to write
		"sneaky": Read(1, func(ctx *types.ServiceContext, p setPayload) (Empty, error) {
			return Empty{}, s.sdk.Store(ctx, "kv").Set([]byte(p.Key), []byte(p.Value))
		}),
		"panic": Write(1, func(ctx *types.ServiceContext, _ Empty) (Empty, error) {
			panic("boom")
		}),
		"chain": Write(1, s.chain),
	}
}

func (s *kvService) get(ctx *types.ServiceContext, p getPayload) (string, error) {
	v, _, err := s.sdk.Store(ctx, "kv").Get([]byte(p.Key))
	return string(v), err
}

func (s *kvService) set(ctx *types.ServiceContext, p setPayload) (Empty, error) {
	if err := s.sdk.Store(ctx, "kv").Set([]byte(p.Key), []byte(p.Value)); err != nil {
		return Empty{}, err
	}
	ctx.EmitEvent("Set", p.Key)
	if p.Fail {
		return Empty{}, fmt.Errorf("%w: requested", hosterrors.ErrAssertFailed)
	}
	return Empty{}, nil
}

// chain writes a, then calls set for b which fails when asked to.
func (s *kvService) chain(ctx *types.ServiceContext, p setPayload) (Empty, error) {
	if err := s.sdk.Store(ctx, "kv").Set([]byte("a"), []byte(p.Value)); err != nil {
		return Empty{}, err
	}
	payload := fmt.Sprintf(`{"key":"b","value":%q,"fail":%v}`, p.Value, p.Fail)
	_, err := s.sdk.Write(ctx, nil, "kv", "set", []byte(payload))
	return Empty{}, err
}

func newTestSDK(t *testing.T, opts ...Option) (*SDK, *Executor) {
	ps, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { ps.Close() })
	state, err := storage.NewStateDB(ps, 64)
	require.NoError(t, err)
	sdk := NewSDK(state, opts...)
	require.NoError(t, sdk.Register(&kvService{sdk: sdk}))
	return sdk, NewExecutor(sdk)
}

func newCtx(mode types.CallMode) *types.ServiceContext {
	tx := common.Blake2Hash([]byte("tx"))
	return types.NewServiceContext(types.ServiceContextParams{
		TxHash:      &tx,
		CyclesLimit: 1000,
		Caller:      common.HexToAddress("0x01"),
		Mode:        mode,
		MaxDepth:    4,
	})
}

func query(t *testing.T, exec *Executor, key string) string {
	out, err := exec.Query(newCtx(types.ReadMode), "kv", "get", []byte(`{"key":"`+key+`"}`))
	require.NoError(t, err)
	return string(out)
}

func TestExecCommits(t *testing.T) {
	_, exec := newTestSDK(t)
	receipt, err := exec.Exec(newCtx(types.WriteMode), "kv", "set", []byte(`{"key":"k","value":"v"}`))
	require.NoError(t, err)
	require.False(t, receipt.Response.IsError(), receipt.Response.ErrorMessage)
	require.Equal(t, 1, receipt.Committed)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, `"v"`, query(t, exec, "k"))
	require.Len(t, receipt.Changes, 1)
	require.Empty(t, receipt.Changes[0].Before)
	require.NotEmpty(t, receipt.Changes[0].After)

	receipt, err = exec.Exec(newCtx(types.WriteMode), "kv", "set", []byte(`{"key":"k","value":"w"}`))
	require.NoError(t, err)
	require.Len(t, receipt.Changes, 1)
	require.NotEmpty(t, receipt.Changes[0].Before)
}

func TestWriteMethodUnreachableFromRead(t *testing.T) {
	_, exec := newTestSDK(t)
	_, err := exec.Query(newCtx(types.ReadMode), "kv", "set", []byte(`{"key":"k","value":"v"}`))
	require.True(t, errors.Is(err, hosterrors.ErrWriteInReadonlyContext))
	require.Equal(t, `""`, query(t, exec, "k"))
}

func TestReadModeViolationRejected(t *testing.T) {
	sdk, exec := newTestSDK(t)
	ctx := newCtx(types.WriteMode)

	// even inside a write transaction a read call cannot write
	_, err := sdk.Read(ctx, nil, "kv", "sneaky", []byte(`{"key":"k","value":"v"}`))
	require.True(t, errors.Is(err, hosterrors.ErrReadModeViolation))

	out, err := sdk.Read(ctx, nil, "kv", "get", []byte(`{"key":"k"}`))
	require.NoError(t, err)
	require.Equal(t, `""`, string(out))
	require.Empty(t, sdk.State().Dirty())
	require.Equal(t, `""`, query(t, exec, "k"))
}

func TestFailedWriteReverts(t *testing.T) {
	_, exec := newTestSDK(t)
	receipt, err := exec.Exec(newCtx(types.WriteMode), "kv", "chain", []byte(`{"value":"x","fail":true}`))
	require.NoError(t, err)
	require.Equal(t, uint64(113), receipt.Response.Code)
	require.Empty(t, receipt.Events)
	require.Equal(t, `""`, query(t, exec, "a"))
	require.Equal(t, `""`, query(t, exec, "b"))

	receipt, err = exec.Exec(newCtx(types.WriteMode), "kv", "chain", []byte(`{"value":"y"}`))
	require.NoError(t, err)
	require.False(t, receipt.Response.IsError(), receipt.Response.ErrorMessage)
	require.Equal(t, `"y"`, query(t, exec, "a"))
	require.Equal(t, `"y"`, query(t, exec, "b"))
}

func TestNestedFailureRevertsOnlyCallee(t *testing.T) {
	sdk, _ := newTestSDK(t)
	ctx := newCtx(types.WriteMode)
	_, err := sdk.Write(ctx, nil, "kv", "set", []byte(`{"key":"keep","value":"1"}`))
	require.NoError(t, err)
	_, err = sdk.Write(ctx, nil, "kv", "set", []byte(`{"key":"drop","value":"2","fail":true}`))
	require.Error(t, err)

	require.Len(t, ctx.Events(), 1)
	require.Equal(t, "keep", ctx.Events()[0].Data)
	require.Len(t, sdk.State().Dirty(), 1)
}

func TestDispatchErrors(t *testing.T) {
	sdk, _ := newTestSDK(t)
	ctx := newCtx(types.WriteMode)

	_, err := sdk.Write(ctx, nil, "nope", "set", nil)
	require.True(t, errors.Is(err, hosterrors.ErrServiceNotFound))
	_, err = sdk.Write(ctx, nil, "kv", "nope", nil)
	require.True(t, errors.Is(err, hosterrors.ErrMethodNotFound))
	_, err = sdk.Write(ctx, nil, "kv", "set", []byte(`{`))
	require.True(t, errors.Is(err, hosterrors.ErrSerde))
	_, err = sdk.Write(ctx, nil, "kv", "panic", nil)
	require.True(t, errors.Is(err, hosterrors.ErrVM))
}

func TestCyclesCharged(t *testing.T) {
	sdk, _ := newTestSDK(t)
	tx := common.Blake2Hash([]byte("tx"))
	ctx := types.NewServiceContext(types.ServiceContextParams{TxHash: &tx, CyclesLimit: 2, Mode: types.WriteMode})
	_, err := sdk.Write(ctx, nil, "kv", "chain", []byte(`{"value":"v"}`))
	require.NoError(t, err)
	_, err = sdk.Write(ctx, nil, "kv", "set", []byte(`{"key":"k","value":"v"}`))
	require.True(t, errors.Is(err, hosterrors.ErrOutOfCycles))
	require.Equal(t, uint64(2), ctx.CyclesUsed())
}

func TestSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	sdk, _ := newTestSDK(t, WithTracerProvider(tp))

	_, err := sdk.Write(newCtx(types.WriteMode), nil, "kv", "chain", []byte(`{"value":"v","fail":true}`))
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	inner, outer := spans[0], spans[1]
	require.Equal(t, "kv.set", inner.Name())
	require.Equal(t, "kv.chain", outer.Name())
	require.Equal(t, outer.SpanContext().SpanID(), inner.Parent().SpanID())
	require.Equal(t, codes.Error, inner.Status().Code)
	require.Equal(t, "AssertFailed", inner.Status().Description)
}

func TestStoreNamespaces(t *testing.T) {
	sdk, _ := newTestSDK(t)
	ctx := newCtx(types.WriteMode)
	a := sdk.Store(ctx, "svc").Map("a")
	b := sdk.Store(ctx, "svc").Map("b")
	require.NoError(t, a.Set([]byte("k"), []byte("1")))
	ok, err := b.Contains([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, a.SetJSON([]byte("j"), map[string]int{"n": 1}))
	var out map[string]int
	ok, err = a.GetJSON([]byte("j"), &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, out["n"])

	require.NoError(t, a.Delete([]byte("k")))
	ok, _ = a.Contains([]byte("k"))
	require.False(t, ok)
}
