package types

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
)

const DefaultMaxCallDepth = 16

type ServiceContextParams struct {
	TxHash      *common.Hash
	Nonce       *common.Hash
	CyclesLimit uint64
	CyclesPrice uint64
	Caller      common.Address
	Height      uint64
	Timestamp   uint64
	Extra       []byte
	Mode        CallMode
	MaxDepth    int
	Context     context.Context
}

// ServiceContext carries one call frame of a transaction. Cycles and events
// are shared by every frame derived from the same root.
type ServiceContext struct {
	txHash      *common.Hash
	nonce       *common.Hash
	cyclesLimit uint64
	cyclesPrice uint64
	cyclesUsed  *uint64
	origin      common.Address
	caller      common.Address
	height      uint64
	timestamp   uint64
	extra       []byte

	service string
	method  string
	payload []byte
	mode    CallMode

	depth    int
	maxDepth int
	events   *[]Event
	frame    *CallFrame
	goctx    context.Context
}

func NewServiceContext(p ServiceContextParams) *ServiceContext {
	if p.MaxDepth <= 0 {
		p.MaxDepth = DefaultMaxCallDepth
	}
	if p.Context == nil {
		p.Context = context.Background()
	}
	used := uint64(0)
	events := make([]Event, 0)
	return &ServiceContext{
		txHash:      p.TxHash,
		nonce:       p.Nonce,
		cyclesLimit: p.CyclesLimit,
		cyclesPrice: p.CyclesPrice,
		cyclesUsed:  &used,
		origin:      p.Caller,
		caller:      p.Caller,
		height:      p.Height,
		timestamp:   p.Timestamp,
		extra:       p.Extra,
		mode:        p.Mode,
		maxDepth:    p.MaxDepth,
		events:      &events,
		frame:       &CallFrame{Service: "tx", Mode: p.Mode},
		goctx:       p.Context,
	}
}

// Enter derives the context of a nested call and records it on the call stack.
// A nil caller keeps the current caller. Read contexts only derive read contexts.
func (ctx *ServiceContext) Enter(service, method string, mode CallMode, caller *common.Address, payload []byte) (*ServiceContext, error) {
	if ctx.depth+1 > ctx.maxDepth {
		return nil, fmt.Errorf("%w: %s.%s at depth %d", hosterrors.ErrCallDepthExceeded, service, method, ctx.depth+1)
	}
	if ctx.mode == ReadMode {
		mode = ReadMode
	}
	child := *ctx
	child.service = service
	child.method = method
	child.payload = payload
	child.mode = mode
	child.depth = ctx.depth + 1
	if caller != nil {
		child.caller = *caller
	}
	child.frame = ctx.frame.push(service, method, mode, child.caller)
	return &child, nil
}

// SubCycles charges n cycles against the shared limit.
func (ctx *ServiceContext) SubCycles(n uint64) error {
	used := *ctx.cyclesUsed
	if n > ctx.cyclesLimit || used > ctx.cyclesLimit-n {
		*ctx.cyclesUsed = ctx.cyclesLimit
		ctx.frame.Cycles += n
		return fmt.Errorf("%w: used %d, need %d, limit %d", hosterrors.ErrOutOfCycles, used, n, ctx.cyclesLimit)
	}
	*ctx.cyclesUsed = used + n
	ctx.frame.Cycles += n
	return nil
}

func (ctx *ServiceContext) CyclesUsed() uint64  { return *ctx.cyclesUsed }
func (ctx *ServiceContext) CyclesLimit() uint64 { return ctx.cyclesLimit }
func (ctx *ServiceContext) CyclesPrice() uint64 { return ctx.cyclesPrice }

func (ctx *ServiceContext) TxHash() (common.Hash, bool) {
	if ctx.txHash == nil {
		return common.Hash{}, false
	}
	return *ctx.txHash, true
}

func (ctx *ServiceContext) Nonce() (common.Hash, bool) {
	if ctx.nonce == nil {
		return common.Hash{}, false
	}
	return *ctx.nonce, true
}

// Origin is the transaction signer.
func (ctx *ServiceContext) Origin() common.Address { return ctx.origin }

// Caller is the immediate caller of the current frame.
func (ctx *ServiceContext) Caller() common.Address { return ctx.caller }

func (ctx *ServiceContext) Height() uint64    { return ctx.height }
func (ctx *ServiceContext) Timestamp() uint64 { return ctx.timestamp }
func (ctx *ServiceContext) Extra() []byte     { return ctx.extra }
func (ctx *ServiceContext) Service() string   { return ctx.service }
func (ctx *ServiceContext) Method() string    { return ctx.method }
func (ctx *ServiceContext) Payload() []byte   { return ctx.payload }
func (ctx *ServiceContext) Mode() CallMode    { return ctx.mode }
func (ctx *ServiceContext) Depth() int        { return ctx.depth }
func (ctx *ServiceContext) Frame() *CallFrame { return ctx.frame }

// Context returns the context.Context used for cancellation and tracing.
func (ctx *ServiceContext) Context() context.Context { return ctx.goctx }

func (ctx *ServiceContext) SetContext(c context.Context) {
	ctx.goctx = c
}

func (ctx *ServiceContext) IsReadOnly() bool {
	return ctx.mode == ReadMode
}

// EmitEvent appends an event tagged with the current service.
func (ctx *ServiceContext) EmitEvent(name, data string) {
	*ctx.events = append(*ctx.events, Event{Service: ctx.service, Name: name, Data: data})
}

func (ctx *ServiceContext) EventCount() int {
	return len(*ctx.events)
}

// TruncateEvents drops events emitted after the first n.
func (ctx *ServiceContext) TruncateEvents(n int) {
	if n < len(*ctx.events) {
		*ctx.events = (*ctx.events)[:n]
	}
}

func (ctx *ServiceContext) Events() []Event {
	out := make([]Event, len(*ctx.events))
	copy(out, *ctx.events)
	return out
}
