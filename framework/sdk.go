package framework

import (
	"fmt"
	"sort"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/storage"
	"github.com/colorfulnotion/pvmhost/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/colorfulnotion/pvmhost/framework"

type registered struct {
	svc     Service
	methods map[string]Method
}

// SDK routes service calls and owns the read/write discipline: read calls
// never keep state changes, failed write calls are reverted with their events.
type SDK struct {
	state    *storage.StateDB
	services map[string]registered
	tracer   trace.Tracer
}

type Option func(*SDK)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(sdk *SDK) {
		sdk.tracer = tp.Tracer(tracerName)
	}
}

func NewSDK(state *storage.StateDB, opts ...Option) *SDK {
	sdk := &SDK{
		state:    state,
		services: make(map[string]registered),
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(sdk)
	}
	return sdk
}

func (sdk *SDK) Register(svc Service) error {
	name := svc.Name()
	if _, ok := sdk.services[name]; ok {
		return fmt.Errorf("service %s already registered", name)
	}
	sdk.services[name] = registered{svc: svc, methods: svc.Methods()}
	log.Debug(log.FrameworkMonitoring, "Register", "service", name, "methods", len(sdk.services[name].methods))
	return nil
}

// Services returns the registered service names in order.
func (sdk *SDK) Services() []string {
	names := make([]string, 0, len(sdk.services))
	for name := range sdk.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (sdk *SDK) State() *storage.StateDB {
	return sdk.state
}

// Read invokes a read method. A non-nil caller becomes the callee's caller.
func (sdk *SDK) Read(ctx *types.ServiceContext, caller *common.Address, service, method string, payload []byte) ([]byte, error) {
	return sdk.call(ctx, caller, service, method, payload, types.ReadMode)
}

// Write invokes a write method; it fails inside a read context.
func (sdk *SDK) Write(ctx *types.ServiceContext, caller *common.Address, service, method string, payload []byte) ([]byte, error) {
	return sdk.call(ctx, caller, service, method, payload, types.WriteMode)
}

func (sdk *SDK) call(ctx *types.ServiceContext, caller *common.Address, service, method string, payload []byte, mode types.CallMode) ([]byte, error) {
	if err := ctx.Context().Err(); err != nil {
		return nil, hosterrors.Interrupted(err)
	}
	reg, ok := sdk.services[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hosterrors.ErrServiceNotFound, service)
	}
	m, ok := reg.methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", hosterrors.ErrMethodNotFound, service, method)
	}
	if mode == types.WriteMode && ctx.IsReadOnly() {
		return nil, fmt.Errorf("%w: write %s.%s", hosterrors.ErrWriteInReadonlyContext, service, method)
	}
	if mode == types.ReadMode && m.Mode == types.WriteMode {
		return nil, fmt.Errorf("%w: %s.%s is a write method", hosterrors.ErrWriteInReadonlyContext, service, method)
	}

	child, err := ctx.Enter(service, method, mode, caller, payload)
	if err != nil {
		return nil, err
	}
	goctx, span := sdk.tracer.Start(ctx.Context(), service+"."+method,
		trace.WithAttributes(
			attribute.String("mode", mode.String()),
			attribute.String("caller", child.Caller().String()),
			attribute.Int("depth", child.Depth()),
		))
	defer span.End()
	child.SetContext(goctx)

	rev := sdk.state.Snapshot()
	events := ctx.EventCount()
	before := ctx.CyclesUsed()

	out, err := sdk.run(child, m)
	if err != nil || mode == types.ReadMode {
		sdk.state.RevertToSnapshot(rev)
		ctx.TruncateEvents(events)
	}
	child.Frame().Finish(err)

	span.SetAttributes(attribute.Int64("cycles", int64(ctx.CyclesUsed()-before)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, hosterrors.Name(err))
		log.Debug(log.FrameworkMonitoring, "call failed", "service", service, "method", method, "mode", mode, "depth", child.Depth(), "err", err)
		return nil, err
	}
	log.Trace(log.FrameworkMonitoring, "call", "service", service, "method", method, "mode", mode, "depth", child.Depth(), "resp", len(out))
	return out, nil
}

func (sdk *SDK) run(ctx *types.ServiceContext, m Method) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s.%s panicked: %v", hosterrors.ErrVM, ctx.Service(), ctx.Method(), r)
		}
	}()
	if err := ctx.SubCycles(m.Cycles); err != nil {
		return nil, err
	}
	return m.Handler(ctx, ctx.Payload())
}
