package assertion

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/stretchr/testify/require"
)

var self = common.HexToAddress("0x5bd1a5a3bb2c1c4ba3e6e5fe3a04e8d26b8c0b1b")

func TestAssertAlwaysAborts(t *testing.T) {
	for i := 0; i < 3; i++ {
		h := pvm.NewMockHost([]byte("a"))
		New().Main(h)
		require.True(t, errors.Is(h.Fatal(), hosterrors.ErrAssertFailed))
		require.Contains(t, h.Fatal().Error(), "never bigger than")
		require.Equal(t, AssertMsg, h.Asserted)
	}
}

func assertingCallee(service, method string, payload []byte) ([]byte, error) {
	return nil, errors.Join(hosterrors.ErrAssertFailed, errors.New(AssertMsg))
}

func TestNestedAssertPropagates(t *testing.T) {
	h := pvm.NewMockHost([]byte("b" + self.String()))
	h.ReadHandler = assertingCallee
	require.Equal(t, Codes.CallFailed, New().Main(h))
	require.Nil(t, h.Fatal())
	require.Contains(t, string(h.Ret()), AssertMsg)
	require.Equal(t, []string{`service_read riscv.call {"address":"` + self.String() + `","args":"a"}`}, h.Calls)
}

func TestNestedAssertIgnored(t *testing.T) {
	h := pvm.NewMockHost([]byte("i" + self.String()))
	h.ReadHandler = assertingCallee
	require.Equal(t, uint64(0), New().Main(h))
	require.Equal(t, IgnoredRet, string(h.Ret()))
}

func TestAddressRequired(t *testing.T) {
	h := pvm.NewMockHost([]byte("b"))
	require.Equal(t, Codes.AddressDecode, New().Main(h))
	require.Empty(t, h.Calls)

	h = pvm.NewMockHost(nil)
	require.Equal(t, Codes.MethodNotFound, New().Main(h))
}
