package asset

import "github.com/colorfulnotion/pvmhost/common"

// Amounts cross the JSON boundary as decimal strings of 256-bit integers.

type Asset struct {
	ID        common.Hash    `json:"id"`
	Name      string         `json:"name"`
	Symbol    string         `json:"symbol"`
	Supply    string         `json:"supply"`
	Precision uint64         `json:"precision"`
	Issuer    common.Address `json:"issuer"`
}

type InitGenesisPayload struct {
	ID        common.Hash    `json:"id"`
	Name      string         `json:"name"`
	Symbol    string         `json:"symbol"`
	Supply    string         `json:"supply"`
	Precision uint64         `json:"precision"`
	Issuer    common.Address `json:"issuer"`
}

type CreateAssetPayload struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Supply    string `json:"supply"`
	Precision uint64 `json:"precision"`
}

type GetAssetPayload struct {
	ID common.Hash `json:"id"`
}

type GetBalancePayload struct {
	AssetID common.Hash    `json:"asset_id"`
	User    common.Address `json:"user"`
}

type GetBalanceResponse struct {
	AssetID common.Hash    `json:"asset_id"`
	User    common.Address `json:"user"`
	Balance string         `json:"balance"`
}

type TransferPayload struct {
	AssetID common.Hash    `json:"asset_id"`
	To      common.Address `json:"to"`
	Value   string         `json:"value"`
	Memo    string         `json:"memo"`
}

type TransferEvent struct {
	AssetID common.Hash    `json:"asset_id"`
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
	Value   string         `json:"value"`
	Memo    string         `json:"memo"`
}

type ApprovePayload = TransferPayload

type ApproveEvent struct {
	AssetID common.Hash    `json:"asset_id"`
	Grantor common.Address `json:"grantor"`
	Grantee common.Address `json:"grantee"`
	Value   string         `json:"value"`
	Memo    string         `json:"memo"`
}

type GetAllowancePayload struct {
	AssetID common.Hash    `json:"asset_id"`
	Grantor common.Address `json:"grantor"`
	Grantee common.Address `json:"grantee"`
}

type GetAllowanceResponse struct {
	AssetID common.Hash    `json:"asset_id"`
	Grantor common.Address `json:"grantor"`
	Grantee common.Address `json:"grantee"`
	Value   string         `json:"value"`
}

type TransferFromPayload struct {
	AssetID   common.Hash    `json:"asset_id"`
	Sender    common.Address `json:"sender"`
	Recipient common.Address `json:"recipient"`
	Value     string         `json:"value"`
	Memo      string         `json:"memo"`
}

type TransferFromEvent struct {
	AssetID   common.Hash    `json:"asset_id"`
	Caller    common.Address `json:"caller"`
	Sender    common.Address `json:"sender"`
	Recipient common.Address `json:"recipient"`
	Value     string         `json:"value"`
	Memo      string         `json:"memo"`
}
