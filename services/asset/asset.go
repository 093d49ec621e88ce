// Package asset is a fungible asset service with 256-bit balances.
package asset

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/holiman/uint256"
)

const ServiceName = "asset"

// Event names
const (
	EventCreateAsset   = "CreateAsset"
	EventTransferAsset = "TransferAsset"
	EventApproveAsset  = "ApproveAsset"
	EventTransferFrom  = "TransferFrom"
)

const (
	readCycles  = 1_000
	writeCycles = 21_000
)

var nativeKey = []byte("native")

type Service struct {
	sdk *framework.SDK
}

func New(sdk *framework.SDK) *Service {
	return &Service{sdk: sdk}
}

func (s *Service) Name() string { return ServiceName }

func (s *Service) Methods() map[string]framework.Method {
	return map[string]framework.Method{
		"get_native_asset": framework.Read(readCycles, s.getNativeAsset),
		"get_asset":        framework.Read(readCycles, s.getAsset),
		"get_balance":      framework.Read(readCycles, s.getBalance),
		"get_allowance":    framework.Read(readCycles, s.getAllowance),
		"create_asset":     framework.Write(writeCycles, s.createAsset),
		"transfer":         framework.Write(writeCycles, s.transfer),
		"approve":          framework.Write(writeCycles, s.approve),
		"transfer_from":    framework.Write(writeCycles, s.transferFrom),
	}
}

func (s *Service) assets(ctx *types.ServiceContext) *framework.Store {
	return s.sdk.Store(ctx, ServiceName).Map("assets")
}

func (s *Service) balances(ctx *types.ServiceContext) *framework.Store {
	return s.sdk.Store(ctx, ServiceName).Map("balances")
}

func (s *Service) allowances(ctx *types.ServiceContext) *framework.Store {
	return s.sdk.Store(ctx, ServiceName).Map("allowances")
}

// InitGenesis creates the native asset with the whole supply held by the
// issuer.
func (s *Service) InitGenesis(ctx *types.ServiceContext, raw json.RawMessage) error {
	var p InitGenesisPayload
	if err := codec.DecodeJSON(raw, &p); err != nil {
		return err
	}
	supply, err := parseAmount(p.Supply)
	if err != nil {
		return err
	}
	a := Asset{ID: p.ID, Name: p.Name, Symbol: p.Symbol, Supply: supply.Dec(), Precision: p.Precision, Issuer: p.Issuer}
	if err := s.assets(ctx).SetJSON(a.ID.Bytes(), a); err != nil {
		return err
	}
	if err := s.setBalance(ctx, a.ID, a.Issuer, supply); err != nil {
		return err
	}
	log.Info(log.AssetMonitoring, "native asset", "id", a.ID, "symbol", a.Symbol, "supply", a.Supply)
	return s.sdk.Store(ctx, ServiceName).Set(nativeKey, a.ID.Bytes())
}

func (s *Service) loadAsset(ctx *types.ServiceContext, id common.Hash) (Asset, error) {
	var a Asset
	ok, err := s.assets(ctx).GetJSON(id.Bytes(), &a)
	if err != nil {
		return a, err
	}
	if !ok {
		return a, fmt.Errorf("%w: %s", hosterrors.ErrAssetNotFound, id)
	}
	return a, nil
}

func (s *Service) getNativeAsset(ctx *types.ServiceContext, _ framework.Empty) (Asset, error) {
	id, ok, err := s.sdk.Store(ctx, ServiceName).Get(nativeKey)
	if err != nil {
		return Asset{}, err
	}
	if !ok {
		return Asset{}, fmt.Errorf("%w: no native asset", hosterrors.ErrAssetNotFound)
	}
	return s.loadAsset(ctx, common.BytesToHash(id))
}

func (s *Service) getAsset(ctx *types.ServiceContext, p GetAssetPayload) (Asset, error) {
	return s.loadAsset(ctx, p.ID)
}

func (s *Service) getBalance(ctx *types.ServiceContext, p GetBalancePayload) (GetBalanceResponse, error) {
	if _, err := s.loadAsset(ctx, p.AssetID); err != nil {
		return GetBalanceResponse{}, err
	}
	bal, err := s.balance(ctx, p.AssetID, p.User)
	if err != nil {
		return GetBalanceResponse{}, err
	}
	return GetBalanceResponse{AssetID: p.AssetID, User: p.User, Balance: bal.Dec()}, nil
}

func (s *Service) getAllowance(ctx *types.ServiceContext, p GetAllowancePayload) (GetAllowanceResponse, error) {
	if _, err := s.loadAsset(ctx, p.AssetID); err != nil {
		return GetAllowanceResponse{}, err
	}
	v, err := s.allowance(ctx, p.AssetID, p.Grantor, p.Grantee)
	if err != nil {
		return GetAllowanceResponse{}, err
	}
	return GetAllowanceResponse{AssetID: p.AssetID, Grantor: p.Grantor, Grantee: p.Grantee, Value: v.Dec()}, nil
}

func (s *Service) createAsset(ctx *types.ServiceContext, p CreateAssetPayload) (Asset, error) {
	txHash, ok := ctx.TxHash()
	if !ok {
		return Asset{}, fmt.Errorf("%w: asset create_asset", hosterrors.ErrNotInExecContext)
	}
	supply, err := parseAmount(p.Supply)
	if err != nil {
		return Asset{}, err
	}
	caller := ctx.Caller()
	id := common.Blake2Hash(caller.Bytes(), []byte(p.Name), txHash.Bytes())
	if exists, err := s.assets(ctx).Contains(id.Bytes()); err != nil {
		return Asset{}, err
	} else if exists {
		return Asset{}, fmt.Errorf("%w: %s", hosterrors.ErrAssetExists, id)
	}

	a := Asset{ID: id, Name: p.Name, Symbol: p.Symbol, Supply: supply.Dec(), Precision: p.Precision, Issuer: caller}
	if err := s.assets(ctx).SetJSON(id.Bytes(), a); err != nil {
		return Asset{}, err
	}
	if err := s.setBalance(ctx, id, caller, supply); err != nil {
		return Asset{}, err
	}
	if err := emit(ctx, EventCreateAsset, a); err != nil {
		return Asset{}, err
	}
	log.Debug(log.AssetMonitoring, "create_asset", "id", id, "issuer", caller, "supply", a.Supply)
	return a, nil
}

func (s *Service) transfer(ctx *types.ServiceContext, p TransferPayload) (framework.Empty, error) {
	value, err := parseAmount(p.Value)
	if err != nil {
		return framework.Empty{}, err
	}
	if _, err := s.loadAsset(ctx, p.AssetID); err != nil {
		return framework.Empty{}, err
	}
	from := ctx.Caller()
	if err := s.move(ctx, p.AssetID, from, p.To, value); err != nil {
		return framework.Empty{}, err
	}
	ev := TransferEvent{AssetID: p.AssetID, From: from, To: p.To, Value: value.Dec(), Memo: p.Memo}
	return framework.Empty{}, emit(ctx, EventTransferAsset, ev)
}

func (s *Service) approve(ctx *types.ServiceContext, p ApprovePayload) (framework.Empty, error) {
	value, err := parseAmount(p.Value)
	if err != nil {
		return framework.Empty{}, err
	}
	grantor := ctx.Caller()
	if grantor == p.To {
		return framework.Empty{}, hosterrors.ErrApproveToSelf
	}
	if _, err := s.loadAsset(ctx, p.AssetID); err != nil {
		return framework.Empty{}, err
	}
	if err := s.setAllowance(ctx, p.AssetID, grantor, p.To, value); err != nil {
		return framework.Empty{}, err
	}
	ev := ApproveEvent{AssetID: p.AssetID, Grantor: grantor, Grantee: p.To, Value: value.Dec(), Memo: p.Memo}
	return framework.Empty{}, emit(ctx, EventApproveAsset, ev)
}

func (s *Service) transferFrom(ctx *types.ServiceContext, p TransferFromPayload) (framework.Empty, error) {
	value, err := parseAmount(p.Value)
	if err != nil {
		return framework.Empty{}, err
	}
	if _, err := s.loadAsset(ctx, p.AssetID); err != nil {
		return framework.Empty{}, err
	}
	caller := ctx.Caller()
	allowed, err := s.allowance(ctx, p.AssetID, p.Sender, caller)
	if err != nil {
		return framework.Empty{}, err
	}
	if allowed.Lt(value) {
		return framework.Empty{}, fmt.Errorf("%w: allowance %s, value %s", hosterrors.ErrInsufficientBalance, allowed.Dec(), value.Dec())
	}
	if err := s.move(ctx, p.AssetID, p.Sender, p.Recipient, value); err != nil {
		return framework.Empty{}, err
	}
	if err := s.setAllowance(ctx, p.AssetID, p.Sender, caller, new(uint256.Int).Sub(allowed, value)); err != nil {
		return framework.Empty{}, err
	}
	ev := TransferFromEvent{AssetID: p.AssetID, Caller: caller, Sender: p.Sender, Recipient: p.Recipient, Value: value.Dec(), Memo: p.Memo}
	return framework.Empty{}, emit(ctx, EventTransferFrom, ev)
}

func (s *Service) move(ctx *types.ServiceContext, id common.Hash, from, to common.Address, value *uint256.Int) error {
	if from == to {
		return hosterrors.ErrTransferToSelf
	}
	fromBal, err := s.balance(ctx, id, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(value) {
		return fmt.Errorf("%w: balance %s, value %s", hosterrors.ErrInsufficientBalance, fromBal.Dec(), value.Dec())
	}
	toBal, err := s.balance(ctx, id, to)
	if err != nil {
		return err
	}
	toBal, overflow := new(uint256.Int).AddOverflow(toBal, value)
	if overflow {
		return hosterrors.ErrBalanceOverflow
	}
	if err := s.setBalance(ctx, id, from, new(uint256.Int).Sub(fromBal, value)); err != nil {
		return err
	}
	return s.setBalance(ctx, id, to, toBal)
}

func (s *Service) balance(ctx *types.ServiceContext, id common.Hash, user common.Address) (*uint256.Int, error) {
	return loadAmount(s.balances(ctx), id.Bytes(), user.Bytes())
}

func (s *Service) setBalance(ctx *types.ServiceContext, id common.Hash, user common.Address, v *uint256.Int) error {
	return storeAmount(s.balances(ctx), v, id.Bytes(), user.Bytes())
}

func (s *Service) allowance(ctx *types.ServiceContext, id common.Hash, grantor, grantee common.Address) (*uint256.Int, error) {
	return loadAmount(s.allowances(ctx), id.Bytes(), grantor.Bytes(), grantee.Bytes())
}

func (s *Service) setAllowance(ctx *types.ServiceContext, id common.Hash, grantor, grantee common.Address, v *uint256.Int) error {
	return storeAmount(s.allowances(ctx), v, id.Bytes(), grantor.Bytes(), grantee.Bytes())
}

func loadAmount(store *framework.Store, parts ...[]byte) (*uint256.Int, error) {
	raw, ok, err := store.Get(joinKey(parts...))
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func storeAmount(store *framework.Store, v *uint256.Int, parts ...[]byte) error {
	b := v.Bytes32()
	return store.Set(joinKey(parts...), b[:])
}

func joinKey(parts ...[]byte) []byte {
	var key []byte
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", hosterrors.ErrInvalidAmount, s, err)
	}
	return v, nil
}

func emit(ctx *types.ServiceContext, name string, v interface{}) error {
	data, err := codec.EncodeJSON(v)
	if err != nil {
		return err
	}
	ctx.EmitEvent(name, string(data))
	return nil
}
