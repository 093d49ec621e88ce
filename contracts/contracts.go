// Package contracts registers the native contract programs shipped with the
// node.
package contracts

import (
	"github.com/colorfulnotion/pvmhost/contract"
	"github.com/colorfulnotion/pvmhost/contracts/assertion"
	"github.com/colorfulnotion/pvmhost/contracts/assetcaller"
	"github.com/colorfulnotion/pvmhost/contracts/general"
	"github.com/colorfulnotion/pvmhost/contracts/writeread"
	"github.com/colorfulnotion/pvmhost/pvm"
)

func All() []*contract.Entrypoint {
	return []*contract.Entrypoint{
		writeread.New(),
		assertion.New(),
		general.New(),
		assetcaller.New(),
	}
}

// Register adds every shipped program to r under its entrypoint name.
func Register(r *pvm.Registry) error {
	for _, ep := range All() {
		if err := r.Register(ep.Name(), ep); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every shipped program.
func NewRegistry() (*pvm.Registry, error) {
	r := pvm.NewRegistry()
	return r, Register(r)
}
