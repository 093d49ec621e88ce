package pvm

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/types"
)

// MockHost implements Host in memory for contract unit tests. Calls with
// side effects are recorded in SideEffects.
type MockHost struct {
	Args     []byte
	Init     bool
	ReadOnly bool
	Conf     InterpreterConf

	SelfAddr   common.Address
	CallerAddr common.Address
	OriginAddr common.Address
	Height     uint64
	Time       uint64
	ExtraData  []byte
	Hash       *common.Hash
	NonceHash  *common.Hash

	Limit uint64
	Used  uint64
	Price uint64

	Storage map[string][]byte
	Events  []types.Event

	ReadHandler     func(service, method string, payload []byte) ([]byte, error)
	WriteHandler    func(service, method string, payload []byte) ([]byte, error)
	ContractHandler func(addr common.Address, args []byte) ([]byte, error)

	SideEffects []string
	Calls       []string
	Logs        []string
	Asserted    string

	ret   *codec.BoundedBuffer
	fatal error
}

func NewMockHost(args []byte) *MockHost {
	conf := DefaultInterpreterConf()
	return &MockHost{
		Args:    args,
		Conf:    conf,
		Limit:   1 << 20,
		Price:   1,
		Storage: make(map[string][]byte),
		ret:     codec.NewBoundedBuffer(conf.MaxReturnSize),
	}
}

// Ret returns the current return buffer.
func (mh *MockHost) Ret() []byte { return mh.ret.Bytes() }

// Fatal returns the error that aborted the invocation, if any.
func (mh *MockHost) Fatal() error { return mh.fatal }

func (mh *MockHost) charge(n uint64) error {
	if mh.fatal != nil {
		return mh.fatal
	}
	if mh.Used+n > mh.Limit {
		mh.Used = mh.Limit
		mh.fatal = fmt.Errorf("%w: mock limit %d", hosterrors.ErrOutOfCycles, mh.Limit)
		return mh.fatal
	}
	mh.Used += n
	return nil
}

func (mh *MockHost) LoadArgs() []byte { return codec.EncodeBytes(mh.Args) }

func (mh *MockHost) ReturnBytes(data []byte) error {
	if err := mh.charge(mh.Conf.HostCallCycles); err != nil {
		return err
	}
	return mh.ret.Set(data)
}

func (mh *MockHost) ReturnString(s string) error { return mh.ReturnBytes([]byte(s)) }
func (mh *MockHost) IsInit() bool                { return mh.Init }
func (mh *MockHost) CycleLimit() uint64          { return mh.Limit }
func (mh *MockHost) CycleUsed() uint64           { return mh.Used }
func (mh *MockHost) CyclePrice() uint64          { return mh.Price }
func (mh *MockHost) Origin() common.Address      { return mh.OriginAddr }
func (mh *MockHost) Caller() common.Address      { return mh.CallerAddr }
func (mh *MockHost) Self() common.Address        { return mh.SelfAddr }
func (mh *MockHost) BlockHeight() uint64         { return mh.Height }
func (mh *MockHost) Timestamp() uint64           { return mh.Time }

func (mh *MockHost) Extra() ([]byte, bool) {
	return mh.ExtraData, len(mh.ExtraData) > 0
}

func (mh *MockHost) TxHash() (common.Hash, bool) {
	if mh.Hash == nil {
		return common.Hash{}, false
	}
	return *mh.Hash, true
}

func (mh *MockHost) TxNonce() (common.Hash, bool) {
	if mh.NonceHash == nil {
		return common.Hash{}, false
	}
	return *mh.NonceHash, true
}

func (mh *MockHost) EmitEvent(name, payload []byte) error {
	if err := mh.charge(mh.Conf.HostCallCycles); err != nil {
		return err
	}
	if len(name) == 0 {
		return hosterrors.ErrInvalidEventName
	}
	if len(name)+len(payload) > mh.Conf.MaxEventSize {
		return hosterrors.ErrEventTooLarge
	}
	mh.SideEffects = append(mh.SideEffects, EMIT_EVENT)
	mh.Events = append(mh.Events, types.Event{Service: ContractService, Name: string(name), Data: string(payload)})
	return nil
}

func (mh *MockHost) GetStorage(key []byte) ([]byte, error) {
	if err := mh.charge(mh.Conf.HostCallCycles); err != nil {
		return nil, err
	}
	mh.Calls = append(mh.Calls, GET_STORAGE)
	if v, ok := mh.Storage[string(key)]; ok {
		return v, nil
	}
	return []byte{}, nil
}

func (mh *MockHost) SetStorage(key, value []byte) error {
	if err := mh.charge(mh.Conf.HostCallCycles); err != nil {
		return err
	}
	if mh.ReadOnly {
		return hosterrors.ErrWriteInReadonlyContext
	}
	if len(value) > mh.Conf.MaxStorageValueSize {
		return hosterrors.ErrStorageValueTooLarge
	}
	mh.SideEffects = append(mh.SideEffects, SET_STORAGE)
	mh.Storage[string(key)] = append([]byte{}, value...)
	return nil
}

func (mh *MockHost) ServiceRead(service, method string, payload []byte) ([]byte, error) {
	if err := mh.charge(mh.Conf.ContractCallCycles); err != nil {
		return nil, err
	}
	mh.Calls = append(mh.Calls, fmt.Sprintf("%s %s.%s %s", SERVICE_READ, service, method, payload))
	if mh.ReadHandler == nil {
		return nil, fmt.Errorf("%w: %s", hosterrors.ErrServiceNotFound, service)
	}
	resp, err := mh.ReadHandler(service, method, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hosterrors.ErrServiceCall, err)
	}
	return resp, nil
}

func (mh *MockHost) ServiceWrite(service, method string, payload []byte) ([]byte, error) {
	if err := mh.charge(mh.Conf.ContractCallCycles); err != nil {
		return nil, err
	}
	if mh.ReadOnly {
		return nil, hosterrors.ErrWriteInReadonlyContext
	}
	mh.SideEffects = append(mh.SideEffects, SERVICE_WRITE)
	mh.Calls = append(mh.Calls, fmt.Sprintf("%s %s.%s %s", SERVICE_WRITE, service, method, payload))
	if mh.WriteHandler == nil {
		return nil, fmt.Errorf("%w: %s", hosterrors.ErrServiceNotFound, service)
	}
	resp, err := mh.WriteHandler(service, method, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hosterrors.ErrServiceCall, err)
	}
	return resp, nil
}

func (mh *MockHost) ContractCall(addr common.Address, args []byte) ([]byte, error) {
	if err := mh.charge(mh.Conf.ContractCallCycles); err != nil {
		return nil, err
	}
	mh.Calls = append(mh.Calls, fmt.Sprintf("%s %s %s", CONTRACT_CALL, addr, args))
	if mh.ContractHandler == nil {
		return nil, fmt.Errorf("%w: %s", hosterrors.ErrContractNotFound, addr)
	}
	resp, err := mh.ContractHandler(addr, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hosterrors.ErrContractCall, err)
	}
	return resp, nil
}

func (mh *MockHost) Assert(cond bool, msg string) error {
	if err := mh.charge(mh.Conf.HostCallCycles); err != nil {
		return err
	}
	if !cond {
		mh.Asserted = msg
		mh.fatal = fmt.Errorf("%w: %s", hosterrors.ErrAssertFailed, msg)
		return mh.fatal
	}
	return nil
}

func (mh *MockHost) Debug(msg []byte) {
	mh.Logs = append(mh.Logs, string(msg))
}
