package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/storage"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x755cdba6ae4f479f7164792b318b2a06c759833b")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	carol = common.HexToAddress("0x0000000000000000000000000000000000000003")

	nativeID = common.Blake2Hash([]byte("native"))
)

type harness struct {
	t    *testing.T
	exec *framework.Executor
	seq  uint64
}

func newHarness(t *testing.T) *harness {
	ps, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { ps.Close() })
	state, err := storage.NewStateDB(ps, 64)
	require.NoError(t, err)
	sdk := framework.NewSDK(state)
	require.NoError(t, sdk.Register(New(sdk)))
	h := &harness{t: t, exec: framework.NewExecutor(sdk)}

	genesis := InitGenesisPayload{ID: nativeID, Name: "Native", Symbol: "NAT", Supply: "1000", Precision: 8, Issuer: alice}
	raw, err := json.Marshal(genesis)
	require.NoError(t, err)
	require.NoError(t, h.exec.InitGenesis(h.ctx(alice, types.WriteMode), map[string]json.RawMessage{ServiceName: raw}))
	return h
}

func (h *harness) ctx(caller common.Address, mode types.CallMode) *types.ServiceContext {
	h.seq++
	tx := common.Blake2Hash([]byte(fmt.Sprintf("tx-%d", h.seq)))
	return types.NewServiceContext(types.ServiceContextParams{
		TxHash:      &tx,
		CyclesLimit: 1 << 30,
		CyclesPrice: 1,
		Caller:      caller,
		Mode:        mode,
	})
}

func (h *harness) write(caller common.Address, method string, payload interface{}) *framework.Receipt {
	raw, err := json.Marshal(payload)
	require.NoError(h.t, err)
	receipt, err := h.exec.Exec(h.ctx(caller, types.WriteMode), ServiceName, method, raw)
	require.NoError(h.t, err)
	return receipt
}

func (h *harness) read(method string, payload interface{}, out interface{}) error {
	raw, err := json.Marshal(payload)
	require.NoError(h.t, err)
	resp, err := h.exec.Query(h.ctx(alice, types.ReadMode), ServiceName, method, raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(resp, out)
}

func (h *harness) balance(id common.Hash, user common.Address) string {
	var resp GetBalanceResponse
	require.NoError(h.t, h.read("get_balance", GetBalancePayload{AssetID: id, User: user}, &resp))
	return resp.Balance
}

func TestNativeAsset(t *testing.T) {
	h := newHarness(t)
	var a Asset
	require.NoError(t, h.read("get_native_asset", struct{}{}, &a))
	require.Equal(t, nativeID, a.ID)
	require.Equal(t, "1000", a.Supply)
	require.Equal(t, "1000", h.balance(nativeID, alice))
	require.Equal(t, "0", h.balance(nativeID, bob))
}

func TestCreateAndTransfer(t *testing.T) {
	h := newHarness(t)
	receipt := h.write(bob, "create_asset", CreateAssetPayload{Name: "Token", Symbol: "TKN", Supply: "115792089237316195423570985008687907853269984665640564039457584007913129639935"})
	require.Zero(t, receipt.Response.Code, receipt.Response.ErrorMessage)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, EventCreateAsset, receipt.Events[0].Name)

	var created Asset
	require.NoError(t, json.Unmarshal([]byte(receipt.Response.SucceedData), &created))
	require.Equal(t, bob, created.Issuer)

	receipt = h.write(bob, "transfer", TransferPayload{AssetID: created.ID, To: carol, Value: "5", Memo: "hi"})
	require.Zero(t, receipt.Response.Code, receipt.Response.ErrorMessage)
	require.Equal(t, ServiceName, receipt.Events[0].Service)
	require.Equal(t, EventTransferAsset, receipt.Events[0].Name)
	require.Equal(t, "5", h.balance(created.ID, carol))

	receipt = h.write(carol, "transfer", TransferPayload{AssetID: created.ID, To: bob, Value: "5"})
	require.Zero(t, receipt.Response.Code)
	require.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", h.balance(created.ID, bob))
}

func TestTransferFailuresKeepState(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		from    common.Address
		payload TransferPayload
		want    error
	}{
		{bob, TransferPayload{AssetID: nativeID, To: carol, Value: "1"}, hosterrors.ErrInsufficientBalance},
		{alice, TransferPayload{AssetID: nativeID, To: alice, Value: "1"}, hosterrors.ErrTransferToSelf},
		{alice, TransferPayload{AssetID: nativeID, To: bob, Value: "-1"}, hosterrors.ErrInvalidAmount},
		{alice, TransferPayload{AssetID: common.Blake2Hash([]byte("nope")), To: bob, Value: "1"}, hosterrors.ErrAssetNotFound},
	}
	for _, tc := range cases {
		receipt := h.write(tc.from, "transfer", tc.payload)
		require.Equal(t, hosterrors.Code(tc.want), receipt.Response.Code, receipt.Response.ErrorMessage)
		require.Empty(t, receipt.Events)
	}
	require.Equal(t, "1000", h.balance(nativeID, alice))
}

func TestApproveAndTransferFrom(t *testing.T) {
	h := newHarness(t)

	receipt := h.write(alice, "approve", ApprovePayload{AssetID: nativeID, To: bob, Value: "300"})
	require.Zero(t, receipt.Response.Code, receipt.Response.ErrorMessage)
	require.Equal(t, EventApproveAsset, receipt.Events[0].Name)

	receipt = h.write(alice, "approve", ApprovePayload{AssetID: nativeID, To: alice, Value: "1"})
	require.Equal(t, hosterrors.Code(hosterrors.ErrApproveToSelf), receipt.Response.Code)

	receipt = h.write(bob, "transfer_from", TransferFromPayload{AssetID: nativeID, Sender: alice, Recipient: carol, Value: "200"})
	require.Zero(t, receipt.Response.Code, receipt.Response.ErrorMessage)

	receipt = h.write(bob, "transfer_from", TransferFromPayload{AssetID: nativeID, Sender: alice, Recipient: carol, Value: "101"})
	require.Equal(t, hosterrors.Code(hosterrors.ErrInsufficientBalance), receipt.Response.Code)

	var allowance GetAllowanceResponse
	require.NoError(t, h.read("get_allowance", GetAllowancePayload{AssetID: nativeID, Grantor: alice, Grantee: bob}, &allowance))
	require.Equal(t, "100", allowance.Value)
	require.Equal(t, "800", h.balance(nativeID, alice))
	require.Equal(t, "200", h.balance(nativeID, carol))
}

func TestBalanceOverflow(t *testing.T) {
	ps, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer ps.Close()
	state, err := storage.NewStateDB(ps, 16)
	require.NoError(t, err)
	svc := New(framework.NewSDK(state))
	ctx := types.NewServiceContext(types.ServiceContextParams{CyclesLimit: 1 << 30, Caller: bob, Mode: types.WriteMode})

	max, err := parseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	one, err := parseAmount("1")
	require.NoError(t, err)
	require.NoError(t, svc.setBalance(ctx, nativeID, carol, max))
	require.NoError(t, svc.setBalance(ctx, nativeID, bob, one))

	err = svc.move(ctx, nativeID, bob, carol, one)
	require.True(t, errors.Is(err, hosterrors.ErrBalanceOverflow))
	bal, err := svc.balance(ctx, nativeID, bob)
	require.NoError(t, err)
	require.Equal(t, "1", bal.Dec())
}

func TestCreateAssetRequiresTx(t *testing.T) {
	h := newHarness(t)
	ctx := types.NewServiceContext(types.ServiceContextParams{CyclesLimit: 1 << 30, Caller: bob, Mode: types.WriteMode})
	receipt, err := h.exec.Exec(ctx, ServiceName, "create_asset", []byte(`{"name":"x","symbol":"x","supply":"1"}`))
	require.NoError(t, err)
	require.Equal(t, hosterrors.Code(hosterrors.ErrNotInExecContext), receipt.Response.Code)
}
