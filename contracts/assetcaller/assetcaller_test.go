package assetcaller

import (
	"strings"
	"testing"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/require"
)

var (
	user    = common.HexToAddress("0x755cdba6ae4f479f7164792b318b2a06c759833b")
	assetID = common.Blake2Hash([]byte("native"))
)

func idText(id common.Hash) string {
	return strings.TrimPrefix(id.Hex(), "0x")
}

func requireJSON(t *testing.T, want string, got []byte) {
	t.Helper()
	opts := jsondiff.DefaultConsoleOptions()
	diff, desc := jsondiff.Compare(got, []byte(want), &opts)
	require.Equal(t, jsondiff.FullMatch, diff, desc)
}

func TestBalance(t *testing.T) {
	h := pvm.NewMockHost([]byte("b" + user.String() + idText(assetID)))
	var payload []byte
	h.ReadHandler = func(service, method string, p []byte) ([]byte, error) {
		require.Equal(t, AssetService, service)
		require.Equal(t, "get_balance", method)
		payload = p
		return []byte(`{"asset_id":"` + assetID.Hex() + `","user":"` + user.String() + `","balance":"1000"}`), nil
	}

	require.Equal(t, uint64(0), New().Main(h))
	require.Equal(t, "1000", string(h.Ret()))
	requireJSON(t, `{"asset_id":"`+assetID.Hex()+`","user":"`+user.String()+`"}`, payload)
	require.Empty(t, h.SideEffects)
}

func TestTransfer(t *testing.T) {
	h := pvm.NewMockHost([]byte("t" + user.String() + idText(assetID) + "25"))
	var payload []byte
	h.WriteHandler = func(service, method string, p []byte) ([]byte, error) {
		require.Equal(t, "transfer", method)
		payload = p
		return []byte(`{}`), nil
	}

	require.Equal(t, uint64(0), New().Main(h))
	require.Equal(t, "25", string(h.Ret()))
	requireJSON(t, `{"asset_id":"`+assetID.Hex()+`","to":"`+user.String()+`","value":"25","memo":"assetcaller"}`, payload)
	require.Equal(t, []string{pvm.SERVICE_WRITE}, h.SideEffects)
}

func TestOperandErrors(t *testing.T) {
	cases := map[string]string{
		"short":       "b" + user.String() + idText(assetID)[:10],
		"bad account": "b" + strings.Repeat("z", 40) + idText(assetID),
		"bad id":      "b" + user.String() + strings.Repeat("g", 64),
		"no value":    "t" + user.String() + idText(assetID),
	}
	for name, args := range cases {
		h := pvm.NewMockHost([]byte(args))
		require.Equal(t, uint64(Codes.AddressDecode), New().Main(h), name)
		require.Empty(t, h.Calls, name)
	}
}

func TestAssetFailure(t *testing.T) {
	h := pvm.NewMockHost([]byte("t" + user.String() + idText(assetID) + "5000"))
	h.WriteHandler = func(string, string, []byte) ([]byte, error) {
		return nil, hosterrors.ErrInsufficientBalance
	}
	require.Equal(t, uint64(Codes.CallFailed), New().Main(h))
	require.Contains(t, string(h.Ret()), "InsufficientBalance")

	h = pvm.NewMockHost([]byte("b" + user.String() + idText(assetID)))
	h.ReadHandler = func(string, string, []byte) ([]byte, error) {
		return []byte(`not json`), nil
	}
	require.Equal(t, uint64(Codes.CallFailed), New().Main(h))
	require.Contains(t, string(h.Ret()), "Serde")
}
