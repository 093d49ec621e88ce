package pvm

import (
	"errors"
	"fmt"
	"time"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/dop251/goja"
)

var errScriptTimeout = fmt.Errorf("%w: script timeout", hosterrors.ErrOutOfCycles)

// runScript executes a script defining main() with the host ABI bound
// under the global pvm object. Aborting errors interrupt the runtime so
// they cannot be caught by the script.
func (intp *Interpreter) runScript(env *hostEnv) (uint64, error) {
	vm := goja.New()
	env.onFatal = func(err error) { vm.Interrupt(err) }

	if err := vm.Set("pvm", bindHost(vm, env)); err != nil {
		return 0, fmt.Errorf("%w: %v", hosterrors.ErrVM, err)
	}
	if intp.conf.ScriptTimeout > 0 {
		timer := time.AfterFunc(intp.conf.ScriptTimeout, func() { vm.Interrupt(errScriptTimeout) })
		defer timer.Stop()
	}

	if _, err := vm.RunString(string(intp.params.Code)); err != nil {
		return 0, scriptError(env, err)
	}
	main, ok := goja.AssertFunction(vm.Get("main"))
	if !ok {
		return 0, fmt.Errorf("%w: script does not define main", hosterrors.ErrVM)
	}
	res, err := main(goja.Undefined())
	if err != nil {
		return 0, scriptError(env, err)
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return 0, nil
	}
	return uint64(res.ToInteger()), nil
}

func scriptError(env *hostEnv, err error) error {
	if env.fatal != nil {
		return env.fatal
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if v, ok := interrupted.Value().(error); ok {
			return v
		}
		return errScriptTimeout
	}
	return fmt.Errorf("%w: %v", hosterrors.ErrVM, err)
}

func hashValue(vm *goja.Runtime, h common.Hash, ok bool) goja.Value {
	if !ok {
		return goja.Null()
	}
	return vm.ToValue(h.Hex())
}

func bindHost(vm *goja.Runtime, env *hostEnv) *goja.Object {
	obj := vm.NewObject()
	set := func(name string, fn interface{}) {
		obj.Set(name, fn)
	}
	set(LOAD_ARGS, func() string { return string(env.LoadArgs()) })
	set(RET, func(s string) error { return env.ReturnString(s) })
	set(IS_INIT, env.IsInit)
	set(CYCLE_LIMIT, env.CycleLimit)
	set(CYCLE_USED, env.CycleUsed)
	set(CYCLE_PRICE, env.CyclePrice)
	set(ORIGIN, func() string { return env.Origin().String() })
	set(CALLER, func() string { return env.Caller().String() })
	set(ADDRESS, func() string { return env.Self().String() })
	set(BLOCK_HEIGHT, env.BlockHeight)
	set(TIMESTAMP, env.Timestamp)
	set(EXTRA, func() goja.Value {
		extra, ok := env.Extra()
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(string(extra))
	})
	set(TX_HASH, func() goja.Value {
		h, ok := env.TxHash()
		return hashValue(vm, h, ok)
	})
	set(TX_NONCE, func() goja.Value {
		h, ok := env.TxNonce()
		return hashValue(vm, h, ok)
	})
	set(EMIT_EVENT, func(name, data string) error {
		return env.EmitEvent([]byte(name), []byte(data))
	})
	set(GET_STORAGE, func(key string) (string, error) {
		v, err := env.GetStorage([]byte(key))
		return string(v), err
	})
	set(SET_STORAGE, func(key, value string) error {
		return env.SetStorage([]byte(key), []byte(value))
	})
	set(SERVICE_READ, func(service, method, payload string) (string, error) {
		resp, err := env.ServiceRead(service, method, []byte(payload))
		return string(resp), err
	})
	set(SERVICE_WRITE, func(service, method, payload string) (string, error) {
		resp, err := env.ServiceWrite(service, method, []byte(payload))
		return string(resp), err
	})
	set(CONTRACT_CALL, func(address, args string) (string, error) {
		addr, err := common.ParseAddress(address)
		if err != nil {
			return "", fmt.Errorf("%w: %v", hosterrors.ErrAddressDecode, err)
		}
		resp, err := env.ContractCall(addr, []byte(args))
		return string(resp), err
	})
	set(ASSERT, func(cond bool, msg string) error {
		return env.Assert(cond, msg)
	})
	set(DEBUG, func(msg string) { env.Debug([]byte(msg)) })
	return obj
}
