package framework

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/pvmhost/codec"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/hosterrors"
	"github.com/colorfulnotion/pvmhost/storage"
	"github.com/colorfulnotion/pvmhost/types"
)

// Store is a service namespace in the state bound to one call frame.
// Writes fail when the frame is read-only.
type Store struct {
	state  *storage.StateDB
	ctx    *types.ServiceContext
	prefix string
}

func (sdk *SDK) Store(ctx *types.ServiceContext, service string) *Store {
	return &Store{state: sdk.state, ctx: ctx, prefix: service + "/"}
}

// Map returns a nested namespace.
func (s *Store) Map(name string) *Store {
	return &Store{state: s.state, ctx: s.ctx, prefix: s.prefix + name + "/"}
}

func (s *Store) key(k []byte) common.Hash {
	return common.Blake2Hash([]byte(s.prefix), k)
}

func (s *Store) Get(k []byte) ([]byte, bool, error) {
	return s.state.Get(s.key(k))
}

func (s *Store) Contains(k []byte) (bool, error) {
	_, ok, err := s.state.Get(s.key(k))
	return ok, err
}

func (s *Store) Set(k, v []byte) error {
	if s.ctx.IsReadOnly() {
		return fmt.Errorf("%w: set %s%x", hosterrors.ErrWriteInReadonlyContext, s.prefix, k)
	}
	s.state.Set(s.key(k), v)
	return nil
}

func (s *Store) Delete(k []byte) error {
	if s.ctx.IsReadOnly() {
		return fmt.Errorf("%w: delete %s%x", hosterrors.ErrWriteInReadonlyContext, s.prefix, k)
	}
	s.state.Delete(s.key(k))
	return nil
}

func (s *Store) GetJSON(k []byte, v interface{}) (bool, error) {
	data, ok, err := s.Get(k)
	if err != nil || !ok {
		return ok, err
	}
	return true, codec.DecodeJSON(data, v)
}

func (s *Store) SetJSON(k []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", hosterrors.ErrSerde, err)
	}
	return s.Set(k, data)
}
