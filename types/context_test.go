package types

import (
	"errors"
	"strings"
	"testing"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/stretchr/testify/require"
)

func newTestContext(mode CallMode, limit uint64) *ServiceContext {
	tx := common.Blake2Hash([]byte("tx"))
	return NewServiceContext(ServiceContextParams{
		TxHash:      &tx,
		CyclesLimit: limit,
		CyclesPrice: 1,
		Caller:      common.HexToAddress("0xaa"),
		Height:      7,
		Mode:        mode,
		MaxDepth:    3,
	})
}

func TestSharedCycles(t *testing.T) {
	ctx := newTestContext(WriteMode, 100)
	child, err := ctx.Enter("riscv", "exec", WriteMode, nil, nil)
	require.NoError(t, err)

	require.NoError(t, child.SubCycles(60))
	require.Equal(t, uint64(60), ctx.CyclesUsed())
	err = ctx.SubCycles(41)
	require.True(t, errors.Is(err, hosterrors.ErrOutOfCycles))
	require.Equal(t, uint64(100), child.CyclesUsed())
}

func TestEnterDepthAndMode(t *testing.T) {
	ctx := newTestContext(ReadMode, 100)
	c1, err := ctx.Enter("riscv", "call", WriteMode, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ReadMode, c1.Mode())

	addr := common.HexToAddress("0xbb")
	c2, err := c1.Enter("riscv", "call", ReadMode, &addr, nil)
	require.NoError(t, err)
	require.Equal(t, addr, c2.Caller())
	require.Equal(t, common.HexToAddress("0xaa"), c2.Origin())

	c3, err := c2.Enter("riscv", "call", ReadMode, nil, nil)
	require.NoError(t, err)
	_, err = c3.Enter("riscv", "call", ReadMode, nil, nil)
	require.True(t, errors.Is(err, hosterrors.ErrCallDepthExceeded))
}

func TestEventsShared(t *testing.T) {
	ctx := newTestContext(WriteMode, 100)
	child, err := ctx.Enter("riscv", "exec", WriteMode, nil, nil)
	require.NoError(t, err)
	n := ctx.EventCount()
	child.EmitEvent("Grant", "{}")
	child.EmitEvent("Revoke", "{}")
	require.Len(t, ctx.Events(), 2)
	require.Equal(t, "riscv", ctx.Events()[0].Service)

	ctx.TruncateEvents(n)
	require.Empty(t, child.Events())
}

func TestCallFrameTree(t *testing.T) {
	ctx := newTestContext(WriteMode, 100)
	c1, _ := ctx.Enter("riscv", "exec", WriteMode, nil, nil)
	c2, _ := c1.Enter("riscv", "exec", WriteMode, nil, nil)
	c2.Frame().Finish(hosterrors.ErrAssertFailed)

	out := ctx.Frame().String()
	require.True(t, strings.HasPrefix(out, "tx [write]"))
	require.Contains(t, out, "riscv.exec [write]")
	require.Contains(t, out, "AssertFailed")
}
