package riscv

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/types"
)

// authKind selects an authorization list.
type authKind uint8

const (
	deployAuth authKind = iota
	contractAuth
)

func (k authKind) String() string {
	if k == contractAuth {
		return "contract_auth"
	}
	return "deploy_auth"
}

var enabledKey = []byte("enable_authorization")

// authorization keeps the deploy whitelist and the approved contract set.
// Both only apply when authorization is enabled at genesis.
type authorization struct {
	sdk *framework.SDK
}

func (a authorization) root(ctx *types.ServiceContext) *framework.Store {
	return a.sdk.Store(ctx, ServiceName).Map("auth")
}

func (a authorization) list(ctx *types.ServiceContext, kind authKind) *framework.Store {
	return a.root(ctx).Map(kind.String())
}

func (a authorization) initGenesis(ctx *types.ServiceContext, p types.InitGenesisPayload) error {
	if p.EnableAuthorization && len(p.Admins) == 0 {
		return fmt.Errorf("%w: authorization enabled without admins", hosterrors.ErrNonAuthorized)
	}
	if p.EnableAuthorization {
		if err := a.root(ctx).Set(enabledKey, []byte{1}); err != nil {
			return err
		}
	}
	for _, addr := range p.DeployAuth {
		if err := a.grant(ctx, addr, deployAuth, nil); err != nil {
			return err
		}
	}
	admins := a.root(ctx).Map("admins")
	for _, addr := range p.Admins {
		if err := admins.Set(addr.Bytes(), []byte{1}); err != nil {
			return err
		}
	}
	return nil
}

func (a authorization) enabled(ctx *types.ServiceContext) (bool, error) {
	return a.root(ctx).Contains(enabledKey)
}

func (a authorization) isAdmin(ctx *types.ServiceContext) (bool, error) {
	caller := ctx.Caller()
	return a.root(ctx).Map("admins").Contains(caller.Bytes())
}

func (a authorization) requireAdmin(ctx *types.ServiceContext) error {
	ok, err := a.isAdmin(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not an admin", hosterrors.ErrNonAuthorized, ctx.Caller())
	}
	return nil
}

// granted reports whether addr may act; always true when disabled.
func (a authorization) granted(ctx *types.ServiceContext, addr common.Address, kind authKind) (bool, error) {
	on, err := a.enabled(ctx)
	if err != nil || !on {
		return !on, err
	}
	return a.list(ctx, kind).Contains(addr.Bytes())
}

func (a authorization) contains(ctx *types.ServiceContext, addr common.Address, kind authKind) (bool, error) {
	return a.list(ctx, kind).Contains(addr.Bytes())
}

// authorizer returns who granted addr, nil for genesis grants or absent entries.
func (a authorization) authorizer(ctx *types.ServiceContext, addr common.Address, kind authKind) (*common.Address, error) {
	v, ok, err := a.list(ctx, kind).Get(addr.Bytes())
	if err != nil || !ok || len(v) == 0 {
		return nil, err
	}
	by := common.BytesToAddress(v)
	return &by, nil
}

func (a authorization) grant(ctx *types.ServiceContext, addr common.Address, kind authKind, by *common.Address) error {
	v := []byte{}
	if by != nil {
		v = by.Bytes()
	}
	return a.list(ctx, kind).Set(addr.Bytes(), v)
}

func (a authorization) revoke(ctx *types.ServiceContext, addr common.Address, kind authKind) error {
	return a.list(ctx, kind).Delete(addr.Bytes())
}
