package pvm

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/types"
)

// hostEnv is the Host of one entrypoint invocation.
type hostEnv struct {
	ctx    *types.ServiceContext
	conf   InterpreterConf
	params InterpreterParams
	chain  ChainInterface
	ret    *codec.BoundedBuffer

	// fatal is latched by the first aborting error.
	fatal   error
	onFatal func(error)
}

func newHostEnv(ctx *types.ServiceContext, conf InterpreterConf, params InterpreterParams, chain ChainInterface) *hostEnv {
	return &hostEnv{
		ctx:    ctx,
		conf:   conf,
		params: params,
		chain:  chain,
		ret:    codec.NewBoundedBuffer(conf.MaxReturnSize),
	}
}

func (env *hostEnv) fail(err error) error {
	if env.fatal == nil {
		env.fatal = err
		log.Debug(log.RiscvMonitoring, "invocation aborted", "contract", env.params.Address, "err", err)
		if env.onFatal != nil {
			env.onFatal(err)
		}
	}
	return env.fatal
}

func (env *hostEnv) charge(cycles uint64) error {
	if env.fatal != nil {
		return env.fatal
	}
	if err := env.ctx.Context().Err(); err != nil {
		return env.fail(hosterrors.Interrupted(err))
	}
	if err := env.ctx.SubCycles(cycles); err != nil {
		return env.fail(err)
	}
	return nil
}

// downstream classifies the error of a nested call: exhaustion anywhere in
// the transaction aborts this invocation too.
func (env *hostEnv) downstream(wrap error, err error) error {
	if hosterrors.IsFatal(err) {
		return env.fail(hosterrors.Interrupted(err))
	}
	return fmt.Errorf("%w: %w", wrap, err)
}

func (env *hostEnv) LoadArgs() []byte {
	return codec.EncodeBytes(env.params.Args)
}

func (env *hostEnv) ReturnBytes(data []byte) error {
	if err := env.charge(env.conf.HostCallCycles); err != nil {
		return err
	}
	return env.ret.Set(data)
}

func (env *hostEnv) ReturnString(s string) error {
	return env.ReturnBytes([]byte(s))
}

func (env *hostEnv) IsInit() bool { return env.params.IsInit }

func (env *hostEnv) CycleLimit() uint64 { return env.ctx.CyclesLimit() }
func (env *hostEnv) CycleUsed() uint64  { return env.ctx.CyclesUsed() }
func (env *hostEnv) CyclePrice() uint64 { return env.ctx.CyclesPrice() }

func (env *hostEnv) Origin() common.Address { return env.ctx.Origin() }
func (env *hostEnv) Caller() common.Address { return env.ctx.Caller() }
func (env *hostEnv) Self() common.Address   { return env.params.Address }

func (env *hostEnv) BlockHeight() uint64 { return env.ctx.Height() }
func (env *hostEnv) Timestamp() uint64   { return env.ctx.Timestamp() }

func (env *hostEnv) Extra() ([]byte, bool) {
	extra := env.ctx.Extra()
	if len(extra) == 0 {
		return nil, false
	}
	return codec.EncodeBytes(extra), true
}

func (env *hostEnv) TxHash() (common.Hash, bool)  { return env.ctx.TxHash() }
func (env *hostEnv) TxNonce() (common.Hash, bool) { return env.ctx.Nonce() }

func (env *hostEnv) EmitEvent(name, payload []byte) error {
	if err := env.charge(env.conf.HostCallCycles); err != nil {
		return err
	}
	if len(name) == 0 {
		return hosterrors.ErrInvalidEventName
	}
	if size := len(name) + len(payload); size > env.conf.MaxEventSize {
		return fmt.Errorf("%w: %d bytes, max %d", hosterrors.ErrEventTooLarge, size, env.conf.MaxEventSize)
	}
	env.ctx.EmitEvent(string(name), string(payload))
	return nil
}

func (env *hostEnv) GetStorage(key []byte) ([]byte, error) {
	if err := env.charge(env.conf.HostCallCycles); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, hosterrors.ErrInvalidKey
	}
	return env.chain.GetStorage(key)
}

func (env *hostEnv) SetStorage(key, value []byte) error {
	if err := env.charge(env.conf.HostCallCycles); err != nil {
		return err
	}
	if len(key) == 0 {
		return hosterrors.ErrInvalidKey
	}
	if len(value) > env.conf.MaxStorageValueSize {
		return fmt.Errorf("%w: %d bytes, max %d", hosterrors.ErrStorageValueTooLarge, len(value), env.conf.MaxStorageValueSize)
	}
	return env.chain.SetStorage(key, value)
}

func (env *hostEnv) ServiceRead(service, method string, payload []byte) ([]byte, error) {
	return env.serviceCall(service, method, payload, types.ReadMode)
}

func (env *hostEnv) ServiceWrite(service, method string, payload []byte) ([]byte, error) {
	return env.serviceCall(service, method, payload, types.WriteMode)
}

func (env *hostEnv) serviceCall(service, method string, payload []byte, mode types.CallMode) ([]byte, error) {
	if err := env.charge(env.conf.ContractCallCycles); err != nil {
		return nil, err
	}
	log.Trace(log.RiscvMonitoring, "service call", "contract", env.params.Address, "service", service, "method", method, "mode", mode)
	var resp []byte
	var err error
	if mode == types.WriteMode {
		resp, err = env.chain.ServiceWrite(service, method, payload)
	} else {
		resp, err = env.chain.ServiceRead(service, method, payload)
	}
	if err != nil {
		return nil, env.downstream(hosterrors.ErrServiceCall, err)
	}
	return codec.Bounded(resp, env.conf.MaxResponseSize, hosterrors.ErrResponseTooLarge)
}

func (env *hostEnv) ContractCall(address common.Address, args []byte) ([]byte, error) {
	if err := env.charge(env.conf.ContractCallCycles); err != nil {
		return nil, err
	}
	resp, err := env.chain.ContractCall(address, args)
	if err != nil {
		return nil, env.downstream(hosterrors.ErrContractCall, err)
	}
	return codec.Bounded(resp, env.conf.MaxResponseSize, hosterrors.ErrResponseTooLarge)
}

func (env *hostEnv) Assert(cond bool, msg string) error {
	if err := env.charge(env.conf.HostCallCycles); err != nil {
		return err
	}
	if cond {
		return nil
	}
	log.Warn(log.ContractDebug, "assert failed", "contract", env.params.Address, "msg", msg)
	return env.fail(fmt.Errorf("%w: %s", hosterrors.ErrAssertFailed, msg))
}

func (env *hostEnv) Debug(msg []byte) {
	log.Debug(log.ContractDebug, "pvm_debug", "contract", env.params.Address, "msg", string(msg))
}
