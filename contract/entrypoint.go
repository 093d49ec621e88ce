// Package contract is the guest side of the host ABI: a command dispatcher
// for contract entrypoints and structured helpers for nested calls.
package contract

import (
	"errors"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/pvm"
)

const MsgMethodNotFound = "method not found"

// Command names one entrypoint method.
type Command string

// Handler executes a decoded command. A nil error exits with status 0.
type Handler func(h pvm.Host, rec codec.ArgumentRecord) error

type Route struct {
	Command Command
	// MinLen is the minimum argument buffer length, method byte included.
	MinLen  int
	Handler Handler
}

// Selector maps a non-empty argument buffer to a command.
type Selector func(args []byte) Command

// ByteSelector selects on the leading discriminant byte.
func ByteSelector(args []byte) Command {
	return Command(args[:1])
}

// WholeSelector selects on the whole buffer read as a C string.
func WholeSelector(args []byte) Command {
	return Command(codec.CString(args))
}

// StatusCodes are the per-contract exit codes.
type StatusCodes struct {
	MethodNotFound uint64
	AddressDecode  uint64
	CallFailed     uint64
}

// InitFunc runs on the deployment invocation.
type InitFunc func(h pvm.Host, args []byte) error

// Entrypoint is a pvm.Program dispatching on a total command table:
// Start -> Decode -> {Execute -> Return | MethodNotFound -> ReturnError}.
type Entrypoint struct {
	name     string
	selector Selector
	codes    StatusCodes
	routes   map[Command]Route
	init     InitFunc
}

func NewEntrypoint(name string, selector Selector, codes StatusCodes, routes ...Route) *Entrypoint {
	e := &Entrypoint{
		name:     name,
		selector: selector,
		codes:    codes,
		routes:   make(map[Command]Route, len(routes)),
	}
	for _, r := range routes {
		if _, dup := e.routes[r.Command]; dup {
			panic("contract " + name + ": duplicate command " + string(r.Command))
		}
		e.routes[r.Command] = r
	}
	return e
}

// WithInit sets the hook run instead of dispatch when Host.IsInit is true.
func (e *Entrypoint) WithInit(fn InitFunc) *Entrypoint {
	e.init = fn
	return e
}

func (e *Entrypoint) Name() string { return e.name }

func (e *Entrypoint) Codes() StatusCodes { return e.codes }

// Commands returns the command table.
func (e *Entrypoint) Commands() []Command {
	cmds := make([]Command, 0, len(e.routes))
	for c := range e.routes {
		cmds = append(cmds, c)
	}
	return cmds
}

func (e *Entrypoint) Main(h pvm.Host) uint64 {
	args := h.LoadArgs()
	if len(args) == 0 {
		h.ReturnString(MsgMethodNotFound)
		return e.codes.MethodNotFound
	}
	if e.init != nil && h.IsInit() {
		if err := e.init(h, args); err != nil {
			return e.fail(h, err)
		}
		return 0
	}

	route, ok := e.routes[e.selector(args)]
	if !ok {
		h.ReturnString(MsgMethodNotFound)
		return e.codes.MethodNotFound
	}
	rec, err := codec.Decode(args, func(byte) int { return route.MinLen })
	if err != nil {
		h.ReturnString(err.Error())
		return e.codes.AddressDecode
	}
	if err := route.Handler(h, rec); err != nil {
		return e.fail(h, err)
	}
	return 0
}

func (e *Entrypoint) fail(h pvm.Host, err error) uint64 {
	h.Debug([]byte(e.name + ": " + err.Error()))
	h.ReturnString(err.Error())
	if errors.Is(err, hosterrors.ErrArgTooShort) || errors.Is(err, hosterrors.ErrAddressDecode) {
		return e.codes.AddressDecode
	}
	return e.codes.CallFailed
}
