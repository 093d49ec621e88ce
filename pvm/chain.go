package pvm

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/types"
)

// ContractService is the service that runs contract entrypoints.
const ContractService = "riscv"

// ChainInterface is what a running contract can reach beyond its own frame.
type ChainInterface interface {
	GetStorage(key []byte) ([]byte, error)
	SetStorage(key, value []byte) error
	ContractCall(address common.Address, args []byte) ([]byte, error)
	ServiceRead(service, method string, payload []byte) ([]byte, error)
	ServiceWrite(service, method string, payload []byte) ([]byte, error)
}

// ContractStore is the namespace holding every contract's storage records.
func ContractStore(sdk *framework.SDK, ctx *types.ServiceContext) *framework.Store {
	return sdk.Store(ctx, ContractService).Map("storage")
}

// WriteableChain backs contracts running in a write context.
type WriteableChain struct {
	ctx      *types.ServiceContext
	sdk      *framework.SDK
	contract common.Address
}

func NewWriteableChain(ctx *types.ServiceContext, sdk *framework.SDK, contract common.Address) *WriteableChain {
	return &WriteableChain{ctx: ctx, sdk: sdk, contract: contract}
}

func (c *WriteableChain) GetStorage(key []byte) ([]byte, error) {
	return getStorage(c.sdk, c.ctx, c.contract, key)
}

func (c *WriteableChain) SetStorage(key, value []byte) error {
	return ContractStore(c.sdk, c.ctx).Set(common.CombineKey(c.contract, key).Bytes(), value)
}

func (c *WriteableChain) ContractCall(address common.Address, args []byte) ([]byte, error) {
	return contractCall(c.sdk, c.ctx, c.contract, address, args, types.WriteMode)
}

func (c *WriteableChain) ServiceRead(service, method string, payload []byte) ([]byte, error) {
	return c.sdk.Read(c.ctx, &c.contract, service, method, payload)
}

func (c *WriteableChain) ServiceWrite(service, method string, payload []byte) ([]byte, error) {
	return c.sdk.Write(c.ctx, &c.contract, service, method, payload)
}

// ReadonlyChain backs contracts running in a read context; every mutation
// is rejected locally before reaching the state.
type ReadonlyChain struct {
	ctx      *types.ServiceContext
	sdk      *framework.SDK
	contract common.Address
}

func NewReadonlyChain(ctx *types.ServiceContext, sdk *framework.SDK, contract common.Address) *ReadonlyChain {
	return &ReadonlyChain{ctx: ctx, sdk: sdk, contract: contract}
}

func (c *ReadonlyChain) GetStorage(key []byte) ([]byte, error) {
	return getStorage(c.sdk, c.ctx, c.contract, key)
}

func (c *ReadonlyChain) SetStorage(key, value []byte) error {
	return fmt.Errorf("%w: set_storage", hosterrors.ErrWriteInReadonlyContext)
}

func (c *ReadonlyChain) ContractCall(address common.Address, args []byte) ([]byte, error) {
	return contractCall(c.sdk, c.ctx, c.contract, address, args, types.ReadMode)
}

func (c *ReadonlyChain) ServiceRead(service, method string, payload []byte) ([]byte, error) {
	return c.sdk.Read(c.ctx, &c.contract, service, method, payload)
}

func (c *ReadonlyChain) ServiceWrite(service, method string, payload []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: service_write %s.%s", hosterrors.ErrWriteInReadonlyContext, service, method)
}

func getStorage(sdk *framework.SDK, ctx *types.ServiceContext, contract common.Address, key []byte) ([]byte, error) {
	v, ok, err := ContractStore(sdk, ctx).Get(common.CombineKey(contract, key).Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte{}, nil
	}
	return v, nil
}

func contractCall(sdk *framework.SDK, ctx *types.ServiceContext, from, to common.Address, args []byte, mode types.CallMode) ([]byte, error) {
	payload, err := codec.ExecPayload(codec.TextOf(to), args)
	if err != nil {
		return nil, err
	}
	var resp []byte
	if mode == types.WriteMode {
		resp, err = sdk.Write(ctx, &from, ContractService, "exec", payload)
	} else {
		resp, err = sdk.Read(ctx, &from, ContractService, "call", payload)
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeStringResponse(resp)
}
