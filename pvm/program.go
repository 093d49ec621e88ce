package pvm

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/colorfulnotion/pvmhost/hosterrors"
)

// Program is a native entrypoint run by the Binary interpreter.
type Program interface {
	Main(h Host) uint64
}

type ProgramFunc func(h Host) uint64

func (f ProgramFunc) Main(h Host) uint64 {
	return f(h)
}

var nativeMagic = []byte("\x7fPVM")

// NativeImage is the deployable code of a registered native program.
func NativeImage(name string) []byte {
	return append(append([]byte{}, nativeMagic...), name...)
}

// Registry maps native images to programs.
type Registry struct {
	mu       sync.RWMutex
	programs map[string]Program
}

func NewRegistry() *Registry {
	return &Registry{programs: make(map[string]Program)}
}

func (r *Registry) Register(name string, p Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[name]; ok {
		return fmt.Errorf("program %s already registered", name)
	}
	r.programs[name] = p
	return nil
}

func (r *Registry) Resolve(code []byte) (Program, error) {
	if !bytes.HasPrefix(code, nativeMagic) {
		return nil, fmt.Errorf("%w: code is not a native image", hosterrors.ErrVM)
	}
	name := string(code[len(nativeMagic):])
	r.mu.RLock()
	p, ok := r.programs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: native program %q", hosterrors.ErrCodeNotFound, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
