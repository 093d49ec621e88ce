package types

import "github.com/colorfulnotion/pvmhost/common"

// ExecPayload addresses a contract entrypoint through the riscv service.
// Address stays textual here; the service validates it.
type ExecPayload struct {
	Address string `json:"address"`
	Args    string `json:"args"`
}

type DeployPayload struct {
	Code     string          `json:"code"`
	IntpType InterpreterType `json:"intp_type"`
	InitArgs string          `json:"init_args"`
}

type DeployResp struct {
	Address common.Address `json:"address"`
	InitRet string         `json:"init_ret"`
}

type GetContractPayload struct {
	Address     string   `json:"address"`
	GetCode     bool     `json:"get_code"`
	StorageKeys []string `json:"storage_keys"`
}

type GetContractResp struct {
	CodeHash      common.Hash     `json:"code_hash"`
	IntpType      InterpreterType `json:"intp_type"`
	Deployer      common.Address  `json:"deployer"`
	Authorizer    *common.Address `json:"authorizer,omitempty"`
	Code          string          `json:"code"`
	StorageValues []string        `json:"storage_values"`
}

type AddressList struct {
	Addresses []common.Address `json:"addresses"`
}

type InitGenesisPayload struct {
	EnableAuthorization bool             `json:"enable_authorization"`
	Admins              []common.Address `json:"admins"`
	DeployAuth          []common.Address `json:"deploy_auth"`
}

// Contract is the persisted account record of a deployed contract.
type Contract struct {
	CodeHash common.Hash
	IntpType InterpreterType
	Deployer common.Address
}
