package framework

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/timing"
	"github.com/colorfulnotion/pvmhost/types"
)

// Receipt is the outcome of one executed transaction.
type Receipt struct {
	TxHash     common.Hash           `json:"tx_hash"`
	Service    string                `json:"service"`
	Method     string                `json:"method"`
	Response   types.ServiceResponse `json:"response"`
	CyclesUsed uint64                `json:"cycles_used"`
	Events     []types.Event         `json:"events"`
	Committed  int                   `json:"committed"`
	Changes    []StateChange         `json:"-"`
	Trace      *types.CallFrame      `json:"-"`
}

// StateChange is one committed write; a nil After is a deletion.
type StateChange struct {
	Key    common.Hash
	Before []byte
	After  []byte
}

// Executor runs top-level calls: a write transaction commits all of its
// nested effects or none of them.
type Executor struct {
	sdk    *SDK
	timers *timing.Recorder
}

func NewExecutor(sdk *SDK) *Executor {
	return &Executor{sdk: sdk, timers: timing.New()}
}

// Timings reports per-call wall time; empty unless built with benchprofile.
func (e *Executor) Timings() []timing.Row {
	return e.timers.Snapshot()
}

func (e *Executor) SDK() *SDK {
	return e.sdk
}

// Exec runs a write transaction. Service failures are reported in the
// receipt; only storage failures are returned as errors.
func (e *Executor) Exec(ctx *types.ServiceContext, service, method string, payload []byte) (*Receipt, error) {
	state := e.sdk.state
	txHash, _ := ctx.TxHash()
	receipt := &Receipt{TxHash: txHash, Service: service, Method: method, Trace: ctx.Frame()}

	stop := e.timers.Start(service + "." + method)
	out, err := e.sdk.Write(ctx, nil, service, method, payload)
	if err == nil {
		// a cancelled transaction never commits, whatever the call returned
		if cerr := ctx.Context().Err(); cerr != nil {
			err = hosterrors.Interrupted(cerr)
		}
	}
	receipt.CyclesUsed = ctx.CyclesUsed()
	stop(receipt.CyclesUsed)
	if err != nil {
		state.Discard()
		receipt.Response = types.ServiceResponse{Code: hosterrors.Code(err), ErrorMessage: err.Error()}
		log.Info(log.FrameworkMonitoring, "tx failed", "tx", common.Str(txHash), "service", service, "method", method, "code", receipt.Response.Code, "err", err)
		return receipt, nil
	}

	changes, err := e.changes()
	if err != nil {
		state.Discard()
		return nil, err
	}
	n, err := state.Commit()
	if err != nil {
		state.Discard()
		return nil, fmt.Errorf("commit tx %s: %w", txHash, err)
	}
	receipt.Committed = n
	receipt.Changes = changes
	receipt.Events = ctx.Events()
	receipt.Response = types.ServiceResponse{SucceedData: string(out)}
	return receipt, nil
}

func (e *Executor) changes() ([]StateChange, error) {
	state := e.sdk.state
	dirty := state.Dirty()
	out := make([]StateChange, 0, len(dirty))
	for _, k := range state.DirtyKeys() {
		before, _, err := state.Committed(k)
		if err != nil {
			return nil, err
		}
		out = append(out, StateChange{Key: k, Before: before, After: dirty[k]})
	}
	return out, nil
}

// Query runs a read call; nothing it does is kept.
func (e *Executor) Query(ctx *types.ServiceContext, service, method string, payload []byte) ([]byte, error) {
	stop := e.timers.Start(service + "." + method)
	out, err := e.sdk.Read(ctx, nil, service, method, payload)
	stop(ctx.CyclesUsed())
	return out, err
}

// InitGenesis hands each genesis service its payload and commits the result.
func (e *Executor) InitGenesis(ctx *types.ServiceContext, payloads map[string]json.RawMessage) error {
	for _, name := range e.sdk.Services() {
		gs, ok := e.sdk.services[name].svc.(GenesisService)
		if !ok {
			continue
		}
		payload, ok := payloads[name]
		if !ok {
			continue
		}
		child, err := ctx.Enter(name, "init_genesis", types.WriteMode, nil, payload)
		if err != nil {
			return err
		}
		if err := gs.InitGenesis(child, payload); err != nil {
			e.sdk.state.Discard()
			return fmt.Errorf("init genesis %s: %w", name, err)
		}
	}
	_, err := e.sdk.state.Commit()
	return err
}
