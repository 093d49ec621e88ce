// Package node wires the state, the services and the native programs into
// a single-process chain that executes transactions one at a time.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/colorfulnotion/pvmhost/chainspecs"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/contracts"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/services/asset"
	"github.com/colorfulnotion/pvmhost/services/riscv"
	"github.com/colorfulnotion/pvmhost/storage"
	"github.com/colorfulnotion/pvmhost/telemetry"
	"github.com/colorfulnotion/pvmhost/timing"
	"github.com/colorfulnotion/pvmhost/types"
)

const module = log.NodeMonitoring

var metaKey = []byte("meta/chain")

// chainMeta is kept outside the service state, next to it in leveldb.
type chainMeta struct {
	Genesis   string `json:"genesis"`
	Timestamp uint64 `json:"timestamp"`
	Height    uint64 `json:"height"`
}

type Node struct {
	cfg       Config
	store     *storage.PersistenceStore
	state     *storage.StateDB
	sdk       *framework.SDK
	exec      *framework.Executor
	programs  *pvm.Registry
	telemetry *telemetry.TelemetryClient

	mu   sync.Mutex
	meta chainMeta
}

// Tx is a top-level write call.
type Tx struct {
	Caller      common.Address
	Service     string
	Method      string
	Payload     []byte
	CyclesLimit uint64
	Extra       []byte
}

func NewNode(ctx context.Context, cfg Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := storage.NewPersistenceStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	n := &Node{cfg: cfg, store: store}
	if err := n.init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return n, nil
}

func (n *Node) init(ctx context.Context) error {
	state, err := storage.NewStateDB(n.store, n.cfg.StateCacheSize)
	if err != nil {
		return err
	}
	n.state = state

	n.telemetry = telemetry.NewTelemetryClient(n.cfg.Telemetry, "")
	if err := n.telemetry.Connect(ctx); err != nil {
		return err
	}
	n.sdk = framework.NewSDK(state, framework.WithTracerProvider(n.telemetry.TracerProvider()))
	n.exec = framework.NewExecutor(n.sdk)

	n.programs, err = contracts.NewRegistry()
	if err != nil {
		return err
	}
	rv, err := riscv.New(n.sdk, n.programs, n.cfg.Interpreter, n.cfg.CodeCacheSize)
	if err != nil {
		return err
	}
	for _, svc := range []framework.Service{rv, asset.New(n.sdk)} {
		if err := n.sdk.Register(svc); err != nil {
			return err
		}
	}

	found, err := n.loadMeta()
	if err != nil {
		return err
	}
	if found {
		log.Info(module, "node resumed", "genesis", n.meta.Genesis, "height", n.meta.Height, "data_dir", n.cfg.DataDir)
		return nil
	}
	return n.applyGenesis(ctx)
}

func (n *Node) applyGenesis(ctx context.Context) error {
	genesis, err := chainspecs.ReadGenesis(n.cfg.Genesis)
	if err != nil {
		return err
	}
	sctx := types.NewServiceContext(types.ServiceContextParams{
		CyclesLimit: n.cfg.CyclesLimit,
		CyclesPrice: n.cfg.CyclesPrice,
		Timestamp:   genesis.Timestamp,
		Mode:        types.WriteMode,
		MaxDepth:    n.cfg.MaxCallDepth,
		Context:     ctx,
	})
	n.meta = chainMeta{Genesis: genesis.ID, Timestamp: genesis.Timestamp}
	if err := n.stageMeta(); err != nil {
		return err
	}
	if err := n.exec.InitGenesis(sctx, genesis.Services); err != nil {
		n.meta = chainMeta{}
		return err
	}
	log.Info(module, "genesis applied", "id", genesis.ID, "services", len(genesis.Services))
	return nil
}

func (n *Node) loadMeta() (bool, error) {
	data, ok, err := n.store.Get(metaKey)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, &n.meta); err != nil {
		return false, fmt.Errorf("chain meta: %w", err)
	}
	return true, nil
}

// stageMeta queues the chain meta into the next state commit.
func (n *Node) stageMeta() error {
	data, err := json.Marshal(n.meta)
	if err != nil {
		return err
	}
	n.sdk.State().StageRaw(metaKey, data)
	return nil
}

// TxHash derives the hash of tx at the given height.
func TxHash(tx Tx, height uint64) common.Hash {
	return common.Blake2Hash(tx.Caller.Bytes(), []byte(tx.Service), []byte{0}, []byte(tx.Method), []byte{0}, tx.Payload, common.Uint64ToBytes(height))
}

func (n *Node) context(ctx context.Context, caller common.Address, mode types.CallMode, limit uint64, txHash *common.Hash, extra []byte) *types.ServiceContext {
	if limit == 0 || limit > n.cfg.CyclesLimit {
		limit = n.cfg.CyclesLimit
	}
	var nonce *common.Hash
	if txHash != nil {
		h := common.Blake2Hash(txHash.Bytes(), caller.Bytes())
		nonce = &h
	}
	return types.NewServiceContext(types.ServiceContextParams{
		TxHash:      txHash,
		Nonce:       nonce,
		CyclesLimit: limit,
		CyclesPrice: n.cfg.CyclesPrice,
		Caller:      caller,
		Height:      n.meta.Height,
		Timestamp:   n.meta.Timestamp + n.meta.Height,
		Extra:       extra,
		Mode:        mode,
		MaxDepth:    n.cfg.MaxCallDepth,
		Context:     ctx,
	})
}

// Exec runs tx as the next block. Only committed transactions advance the
// height.
func (n *Node) Exec(ctx context.Context, tx Tx) (*framework.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	height := n.meta.Height + 1
	hash := TxHash(tx, height)
	n.meta.Height = height
	sctx := n.context(ctx, tx.Caller, types.WriteMode, tx.CyclesLimit, &hash, tx.Extra)
	// the new height commits in the same batch as the tx state, or not at all
	if err := n.stageMeta(); err != nil {
		n.meta.Height--
		return nil, err
	}
	receipt, err := n.exec.Exec(sctx, tx.Service, tx.Method, tx.Payload)
	if err != nil || receipt.Response.IsError() {
		n.meta.Height--
		return receipt, err
	}
	log.Debug(module, "tx", "hash", common.Str(hash), "service", tx.Service, "method", tx.Method, "height", height, "cycles", receipt.CyclesUsed)
	return receipt, nil
}

// Query runs a read call against the latest committed state.
func (n *Node) Query(ctx context.Context, caller common.Address, service, method string, payload []byte) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.exec.Query(n.context(ctx, caller, types.ReadMode, 0, nil, nil), service, method, payload)
}

// Deploy submits a riscv deploy of code.
func (n *Node) Deploy(ctx context.Context, caller common.Address, code []byte, typ types.InterpreterType, initArgs string) (*framework.Receipt, error) {
	payload, err := json.Marshal(types.DeployPayload{Code: common.Bytes2Hex(code), IntpType: typ, InitArgs: initArgs})
	if err != nil {
		return nil, err
	}
	return n.Exec(ctx, Tx{Caller: caller, Service: riscv.ServiceName, Method: "deploy", Payload: payload})
}

// ExecContract runs args against a contract in a write context.
func (n *Node) ExecContract(ctx context.Context, caller, contract common.Address, args string) (*framework.Receipt, error) {
	payload, err := json.Marshal(types.ExecPayload{Address: contract.String(), Args: args})
	if err != nil {
		return nil, err
	}
	return n.Exec(ctx, Tx{Caller: caller, Service: riscv.ServiceName, Method: "exec", Payload: payload})
}

// CallContract runs args against a contract in a read context and returns
// the contract's return value.
func (n *Node) CallContract(ctx context.Context, caller, contract common.Address, args string) (string, error) {
	payload, err := json.Marshal(types.ExecPayload{Address: contract.String(), Args: args})
	if err != nil {
		return "", err
	}
	resp, err := n.Query(ctx, caller, riscv.ServiceName, "call", payload)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.meta.Height
}

func (n *Node) GenesisID() string {
	return n.meta.Genesis
}

func (n *Node) Services() []string {
	return n.sdk.Services()
}

func (n *Node) Programs() []string {
	return n.programs.Names()
}

// Timings is empty unless the binary was built with -tags benchprofile.
func (n *Node) Timings() []timing.Row {
	return n.exec.Timings()
}

func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.telemetry.Close(context.Background()); err != nil {
		log.Warn(module, "telemetry close", "err", err)
	}
	return n.store.Close()
}
