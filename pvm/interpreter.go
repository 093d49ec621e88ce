package pvm

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/types"
)

type InterpreterParams struct {
	Address common.Address
	Code    []byte
	Args    []byte
	IsInit  bool
}

// Exit is the ExecutionResult of one entrypoint invocation.
type Exit struct {
	Code       uint64
	Data       []byte
	CyclesUsed uint64
}

type Interpreter struct {
	ctx      *types.ServiceContext
	typ      types.InterpreterType
	conf     InterpreterConf
	params   InterpreterParams
	chain    ChainInterface
	programs *Registry
}

func NewInterpreter(ctx *types.ServiceContext, typ types.InterpreterType, conf InterpreterConf, params InterpreterParams, chain ChainInterface, programs *Registry) *Interpreter {
	return &Interpreter{
		ctx:      ctx,
		typ:      typ,
		conf:     conf,
		params:   params,
		chain:    chain,
		programs: programs,
	}
}

// Run executes the entrypoint. A returned error means the invocation was
// aborted (out of cycles, failed assertion, interpreter fault); a non-zero
// Exit.Code is the contract's own failure signal.
func (intp *Interpreter) Run() (*Exit, error) {
	if len(intp.params.Args) > intp.conf.MaxArgsSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", hosterrors.ErrArgTooLarge, len(intp.params.Args), intp.conf.MaxArgsSize)
	}
	env := newHostEnv(intp.ctx, intp.conf, intp.params, intp.chain)
	before := intp.ctx.CyclesUsed()

	var code uint64
	var err error
	switch intp.typ {
	case types.Binary:
		code, err = intp.runNative(env)
	case types.JavaScript:
		code, err = intp.runScript(env)
	default:
		err = fmt.Errorf("%w: unsupported interpreter %s", hosterrors.ErrVM, intp.typ)
	}
	if env.fatal != nil {
		return nil, env.fatal
	}
	if err != nil {
		return nil, err
	}

	exit := &Exit{Code: code, Data: env.ret.Bytes(), CyclesUsed: intp.ctx.CyclesUsed() - before}
	log.Trace(log.RiscvMonitoring, "exit", "contract", intp.params.Address, "code", exit.Code, "ret", len(exit.Data), "cycles", exit.CyclesUsed)
	return exit, nil
}

func (intp *Interpreter) runNative(env *hostEnv) (code uint64, err error) {
	if intp.programs == nil {
		return 0, fmt.Errorf("%w: no native programs", hosterrors.ErrCodeNotFound)
	}
	prog, err := intp.programs.Resolve(intp.params.Code)
	if err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: program panicked: %v", hosterrors.ErrVM, r)
		}
	}()
	return prog.Main(env), nil
}
