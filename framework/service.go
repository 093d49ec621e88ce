package framework

import (
	"encoding/json"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/types"
)

// Handler runs one service method against a JSON payload and returns the
// JSON encoded result.
type Handler func(ctx *types.ServiceContext, payload []byte) ([]byte, error)

type Method struct {
	Mode    types.CallMode
	Cycles  uint64
	Handler Handler
}

// Service is a platform module exposing named read and write methods.
type Service interface {
	Name() string
	Methods() map[string]Method
}

// GenesisService is implemented by services that take a genesis payload.
type GenesisService interface {
	Service
	InitGenesis(ctx *types.ServiceContext, payload json.RawMessage) error
}

// Empty is the payload or result of methods that take or return nothing.
type Empty struct{}

func bind[P any, R any](fn func(*types.ServiceContext, P) (R, error)) Handler {
	return func(ctx *types.ServiceContext, payload []byte) ([]byte, error) {
		var p P
		if _, empty := any(p).(Empty); !empty {
			if err := codec.DecodeJSON(payload, &p); err != nil {
				return nil, err
			}
		}
		r, err := fn(ctx, p)
		if err != nil {
			return nil, err
		}
		return codec.EncodeJSON(r)
	}
}

// Read binds a typed non-mutating method.
func Read[P any, R any](cycles uint64, fn func(*types.ServiceContext, P) (R, error)) Method {
	return Method{Mode: types.ReadMode, Cycles: cycles, Handler: bind(fn)}
}

// Write binds a typed state-mutating method.
func Write[P any, R any](cycles uint64, fn func(*types.ServiceContext, P) (R, error)) Method {
	return Method{Mode: types.WriteMode, Cycles: cycles, Handler: bind(fn)}
}
