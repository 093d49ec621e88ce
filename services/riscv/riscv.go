// Package riscv is the contract service: it deploys contract code and runs
// contract entrypoints in read and write contexts.
package riscv

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru/v2"
)

const ServiceName = pvm.ContractService

// Event names
const (
	EventGrantAuth       = "GrantAuth"
	EventRevokeAuth      = "RevokeAuth"
	EventApproveContract = "ApproveContract"
	EventRevokeContract  = "RevokeContract"
)

// Cycle costs
const (
	codeByteCycles       = 10
	grantCycles          = 10_000
	checkCycles          = 1_000
	getContractCycles    = 21_000
	DefaultCodeCacheSize = 256
)

var deploySeqKey = []byte("deploy_seq")

type Service struct {
	sdk      *framework.SDK
	programs *pvm.Registry
	conf     pvm.InterpreterConf
	auth     authorization
	codes    *lru.Cache[common.Hash, []byte]
}

func New(sdk *framework.SDK, programs *pvm.Registry, conf pvm.InterpreterConf, codeCacheSize int) (*Service, error) {
	if codeCacheSize <= 0 {
		codeCacheSize = DefaultCodeCacheSize
	}
	codes, err := lru.New[common.Hash, []byte](codeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("code cache: %w", err)
	}
	return &Service{
		sdk:      sdk,
		programs: programs,
		conf:     conf,
		auth:     authorization{sdk: sdk},
		codes:    codes,
	}, nil
}

func (s *Service) Name() string { return ServiceName }

func (s *Service) Methods() map[string]framework.Method {
	return map[string]framework.Method{
		"deploy":             framework.Write(0, s.deploy),
		"exec":               framework.Write(0, s.exec),
		"call":               framework.Read(0, s.call),
		"get_contract":       framework.Read(getContractCycles, s.getContract),
		"grant_deploy_auth":  framework.Write(0, s.grantDeployAuth),
		"revoke_deploy_auth": framework.Write(0, s.revokeDeployAuth),
		"check_deploy_auth":  framework.Read(0, s.checkDeployAuth),
		"approve_contracts":  framework.Write(0, s.approveContracts),
		"revoke_contracts":   framework.Write(0, s.revokeContracts),
	}
}

func (s *Service) InitGenesis(ctx *types.ServiceContext, raw json.RawMessage) error {
	var p types.InitGenesisPayload
	if err := codec.DecodeJSON(raw, &p); err != nil {
		return err
	}
	log.Info(log.RiscvMonitoring, "riscv genesis", "authorization", p.EnableAuthorization, "admins", len(p.Admins), "deploy_auth", len(p.DeployAuth))
	return s.auth.initGenesis(ctx, p)
}

func (s *Service) store(ctx *types.ServiceContext) *framework.Store {
	return s.sdk.Store(ctx, ServiceName)
}

func (s *Service) loadContract(ctx *types.ServiceContext, addr common.Address) (types.Contract, error) {
	var c types.Contract
	raw, ok, err := s.store(ctx).Map("contracts").Get(addr.Bytes())
	if err != nil {
		return c, err
	}
	if !ok {
		return c, fmt.Errorf("%w: %s", hosterrors.ErrContractNotFound, addr)
	}
	if err := rlp.DecodeBytes(raw, &c); err != nil {
		return c, fmt.Errorf("%w: contract %s: %v", hosterrors.ErrSerde, addr, err)
	}
	return c, nil
}

func (s *Service) loadCode(ctx *types.ServiceContext, codeHash common.Hash) ([]byte, error) {
	if code, ok := s.codes.Get(codeHash); ok {
		return code, nil
	}
	code, ok, err := s.store(ctx).Map("code").Get(codeHash.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", hosterrors.ErrCodeNotFound, codeHash)
	}
	s.codes.Add(codeHash, code)
	return code, nil
}

func (s *Service) nextDeploySeq(ctx *types.ServiceContext) (uint64, error) {
	meta := s.store(ctx).Map("meta")
	raw, _, err := meta.Get(deploySeqKey)
	if err != nil {
		return 0, err
	}
	seq := common.BytesToUint64(raw)
	return seq, meta.Set(deploySeqKey, common.Uint64ToBytes(seq+1))
}

func (s *Service) deploy(ctx *types.ServiceContext, p types.DeployPayload) (types.DeployResp, error) {
	caller := ctx.Caller()
	granted, err := s.auth.granted(ctx, caller, deployAuth)
	if err != nil {
		return types.DeployResp{}, err
	}
	if !granted {
		return types.DeployResp{}, fmt.Errorf("%w: %s may not deploy", hosterrors.ErrNonAuthorized, caller)
	}
	txHash, ok := ctx.TxHash()
	if !ok {
		return types.DeployResp{}, fmt.Errorf("%w: riscv deploy", hosterrors.ErrNotInExecContext)
	}
	code, err := common.DecodeHex(p.Code)
	if err != nil {
		return types.DeployResp{}, fmt.Errorf("%w: code: %v", hosterrors.ErrHexDecode, err)
	}
	if p.IntpType != types.Binary && p.IntpType != types.JavaScript {
		return types.DeployResp{}, fmt.Errorf("%w: unsupported interpreter %s", hosterrors.ErrVM, p.IntpType)
	}
	if err := ctx.SubCycles(uint64(len(code)) * codeByteCycles); err != nil {
		return types.DeployResp{}, err
	}

	codeHash := common.Blake2Hash(code)
	if err := s.store(ctx).Map("code").Set(codeHash.Bytes(), code); err != nil {
		return types.DeployResp{}, err
	}
	seq, err := s.nextDeploySeq(ctx)
	if err != nil {
		return types.DeployResp{}, err
	}
	addr := common.ContractAddress(txHash, seq)
	if addr.IsZero() {
		return types.DeployResp{}, hosterrors.ErrInvalidContractAddress
	}
	raw, err := rlp.EncodeToBytes(types.Contract{CodeHash: codeHash, IntpType: p.IntpType, Deployer: caller})
	if err != nil {
		return types.DeployResp{}, fmt.Errorf("%w: %v", hosterrors.ErrSerde, err)
	}
	if err := s.store(ctx).Map("contracts").Set(addr.Bytes(), raw); err != nil {
		return types.DeployResp{}, err
	}
	log.Debug(log.RiscvMonitoring, "deploy", "address", addr, "code_hash", codeHash, "intp", p.IntpType, "size", len(code), "deployer", caller)

	if p.InitArgs == "" {
		return types.DeployResp{Address: addr}, nil
	}
	ret, err := s.run(ctx, addr, []byte(p.InitArgs), true)
	if err != nil {
		return types.DeployResp{}, err
	}
	return types.DeployResp{Address: addr, InitRet: ret}, nil
}

func (s *Service) exec(ctx *types.ServiceContext, p types.ExecPayload) (string, error) {
	return s.runPayload(ctx, p)
}

func (s *Service) call(ctx *types.ServiceContext, p types.ExecPayload) (string, error) {
	return s.runPayload(ctx, p)
}

func (s *Service) runPayload(ctx *types.ServiceContext, p types.ExecPayload) (string, error) {
	addr, err := common.ParseAddress(p.Address)
	if err != nil {
		return "", fmt.Errorf("%w: %q", hosterrors.ErrInvalidContractAddress, p.Address)
	}
	approved, err := s.auth.granted(ctx, addr, contractAuth)
	if err != nil {
		return "", err
	}
	if !approved {
		return "", fmt.Errorf("%w: contract %s is not approved", hosterrors.ErrNonAuthorized, addr)
	}
	return s.run(ctx, addr, []byte(p.Args), false)
}

// run executes the entrypoint of addr. A non-zero exit is an error carrying
// the code and the returned message.
func (s *Service) run(ctx *types.ServiceContext, addr common.Address, args []byte, isInit bool) (string, error) {
	c, err := s.loadContract(ctx, addr)
	if err != nil {
		return "", err
	}
	code, err := s.loadCode(ctx, c.CodeHash)
	if err != nil {
		return "", err
	}

	var chain pvm.ChainInterface
	if ctx.IsReadOnly() {
		chain = pvm.NewReadonlyChain(ctx, s.sdk, addr)
	} else {
		chain = pvm.NewWriteableChain(ctx, s.sdk, addr)
	}
	params := pvm.InterpreterParams{Address: addr, Code: code, Args: args, IsInit: isInit}
	exit, err := pvm.NewInterpreter(ctx, c.IntpType, s.conf, params, chain, s.programs).Run()
	if err != nil {
		log.Debug(log.RiscvMonitoring, "run aborted", "address", addr, "mode", ctx.Mode(), "depth", ctx.Depth(), "err", err)
		return "", err
	}
	if exit.Code != 0 {
		return "", fmt.Errorf("%w: code %d msg %s", hosterrors.ErrNonZeroExit, exit.Code, exit.Data)
	}
	out, err := codec.Text(exit.Data)
	if err != nil {
		return "", fmt.Errorf("return data of %s: %w", addr, err)
	}
	return out, nil
}

func (s *Service) getContract(ctx *types.ServiceContext, p types.GetContractPayload) (types.GetContractResp, error) {
	addr, err := common.ParseAddress(p.Address)
	if err != nil {
		return types.GetContractResp{}, fmt.Errorf("%w: %q", hosterrors.ErrInvalidContractAddress, p.Address)
	}
	c, err := s.loadContract(ctx, addr)
	if err != nil {
		return types.GetContractResp{}, err
	}
	resp := types.GetContractResp{CodeHash: c.CodeHash, IntpType: c.IntpType, Deployer: c.Deployer, StorageValues: []string{}}
	if resp.Authorizer, err = s.auth.authorizer(ctx, addr, contractAuth); err != nil {
		return types.GetContractResp{}, err
	}
	if p.GetCode {
		code, err := s.loadCode(ctx, c.CodeHash)
		if err != nil {
			return types.GetContractResp{}, err
		}
		if err := ctx.SubCycles(uint64(len(code))); err != nil {
			return types.GetContractResp{}, err
		}
		resp.Code = common.Bytes2Hex(code)
	}
	storage := pvm.ContractStore(s.sdk, ctx)
	for _, key := range p.StorageKeys {
		if err := ctx.SubCycles(uint64(len(key))); err != nil {
			return types.GetContractResp{}, err
		}
		k, err := common.DecodeHex(key)
		if err != nil {
			return types.GetContractResp{}, fmt.Errorf("%w: %q should be a hex string", hosterrors.ErrInvalidKey, key)
		}
		v, _, err := storage.Get(common.CombineKey(addr, k).Bytes())
		if err != nil {
			return types.GetContractResp{}, err
		}
		if err := ctx.SubCycles(uint64(len(v))); err != nil {
			return types.GetContractResp{}, err
		}
		resp.StorageValues = append(resp.StorageValues, common.Bytes2Hex(v))
	}
	return resp, nil
}

func (s *Service) grantDeployAuth(ctx *types.ServiceContext, p types.AddressList) (framework.Empty, error) {
	return framework.Empty{}, s.updateAuth(ctx, p, deployAuth, true, EventGrantAuth)
}

func (s *Service) revokeDeployAuth(ctx *types.ServiceContext, p types.AddressList) (framework.Empty, error) {
	return framework.Empty{}, s.updateAuth(ctx, p, deployAuth, false, EventRevokeAuth)
}

func (s *Service) approveContracts(ctx *types.ServiceContext, p types.AddressList) (framework.Empty, error) {
	return framework.Empty{}, s.updateAuth(ctx, p, contractAuth, true, EventApproveContract)
}

func (s *Service) revokeContracts(ctx *types.ServiceContext, p types.AddressList) (framework.Empty, error) {
	return framework.Empty{}, s.updateAuth(ctx, p, contractAuth, false, EventRevokeContract)
}

func (s *Service) updateAuth(ctx *types.ServiceContext, p types.AddressList, kind authKind, grant bool, event string) error {
	if err := s.auth.requireAdmin(ctx); err != nil {
		return err
	}
	if err := ctx.SubCycles(uint64(len(p.Addresses)) * grantCycles); err != nil {
		return err
	}
	by := ctx.Caller()
	for _, addr := range p.Addresses {
		var err error
		if grant {
			err = s.auth.grant(ctx, addr, kind, &by)
		} else {
			err = s.auth.revoke(ctx, addr, kind)
		}
		if err != nil {
			return err
		}
	}
	data, err := codec.EncodeJSON(p)
	if err != nil {
		return err
	}
	ctx.EmitEvent(event, string(data))
	log.Debug(log.RiscvMonitoring, event, "kind", kind, "by", by, "addresses", len(p.Addresses))
	return nil
}

func (s *Service) checkDeployAuth(ctx *types.ServiceContext, p types.AddressList) (types.AddressList, error) {
	if err := ctx.SubCycles(uint64(len(p.Addresses)) * checkCycles); err != nil {
		return types.AddressList{}, err
	}
	res := types.AddressList{Addresses: []common.Address{}}
	for _, addr := range p.Addresses {
		ok, err := s.auth.contains(ctx, addr, deployAuth)
		if err != nil {
			return types.AddressList{}, err
		}
		if ok {
			res.Addresses = append(res.Addresses, addr)
		}
	}
	return res, nil
}
