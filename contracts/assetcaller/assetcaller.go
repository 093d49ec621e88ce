// Package assetcaller is a contract reaching the asset service through the
// host. Operands follow the method byte: a 40 character account, a 64
// character hex asset id, and for transfers a decimal value.
//
//	b<account><asset id>          balance of account
//	t<account><asset id><value>   transfer value from this contract to account
//
// Status codes: 1000 method not found, 1001 operand decode, 1002 asset call
// failed.
package assetcaller

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/contract"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/pvm"
)

const (
	Name         = "assetcaller"
	AssetService = "asset"

	assetIDLength = 2 * common.HashLength
	assetIDEnd    = codec.AddressOperandEnd + assetIDLength
)

var Codes = contract.StatusCodes{MethodNotFound: 1000, AddressDecode: 1001, CallFailed: 1002}

func New() *contract.Entrypoint {
	return contract.NewEntrypoint(Name, contract.ByteSelector, Codes,
		contract.Route{Command: "b", MinLen: assetIDEnd, Handler: balance},
		contract.Route{Command: "t", MinLen: assetIDEnd + 1, Handler: transfer},
	)
}

func operands(rec codec.ArgumentRecord) (common.Address, common.Hash, error) {
	buf := rec.Bytes()
	text, err := codec.ExtractAddress(buf)
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	account, err := text.Address()
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	id, err := common.DecodeHex(string(buf[codec.AddressOperandEnd:assetIDEnd]))
	if err != nil || len(id) != common.HashLength {
		return common.Address{}, common.Hash{}, fmt.Errorf("%w: asset id %q", hosterrors.ErrAddressDecode, buf[codec.AddressOperandEnd:assetIDEnd])
	}
	return account, common.BytesToHash(id), nil
}

func balance(h pvm.Host, rec codec.ArgumentRecord) error {
	account, id, err := operands(rec)
	if err != nil {
		return err
	}
	payload, err := codec.NewPayload().Set("asset_id", id).Set("user", account).Bytes()
	if err != nil {
		return err
	}
	resp, err := h.ServiceRead(AssetService, "get_balance", payload)
	if err != nil {
		return err
	}
	var out struct {
		Balance string `json:"balance"`
	}
	if err := codec.DecodeJSON(resp, &out); err != nil {
		return err
	}
	return h.ReturnString(out.Balance)
}

func transfer(h pvm.Host, rec codec.ArgumentRecord) error {
	to, id, err := operands(rec)
	if err != nil {
		return err
	}
	value := codec.CString(rec.Bytes()[assetIDEnd:])
	payload, err := codec.NewPayload().
		Set("asset_id", id).
		Set("to", to).
		Set("value", value).
		Set("memo", Name).
		Bytes()
	if err != nil {
		return err
	}
	if _, err := h.ServiceWrite(AssetService, "transfer", payload); err != nil {
		return err
	}
	return h.ReturnString(value)
}
