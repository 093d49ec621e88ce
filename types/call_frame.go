package types

import (
	"fmt"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/xlab/treeprint"
)

// CallFrame is one entry of the explicit call stack of a transaction.
type CallFrame struct {
	Service  string
	Method   string
	Mode     CallMode
	Caller   common.Address
	Cycles   uint64
	Err      string
	Children []*CallFrame
}

func (f *CallFrame) push(service, method string, mode CallMode, caller common.Address) *CallFrame {
	child := &CallFrame{Service: service, Method: method, Mode: mode, Caller: caller}
	f.Children = append(f.Children, child)
	return child
}

// Finish records the outcome of the frame.
func (f *CallFrame) Finish(err error) {
	if err != nil {
		f.Err = err.Error()
	}
}

func (f *CallFrame) label() string {
	s := fmt.Sprintf("%s.%s [%s] cycles=%d", f.Service, f.Method, f.Mode, f.Cycles)
	if f.Method == "" {
		s = fmt.Sprintf("%s [%s]", f.Service, f.Mode)
	}
	if f.Err != "" {
		s += " err=" + f.Err
	}
	return s
}

func (f *CallFrame) addTo(tree treeprint.Tree) {
	for _, c := range f.Children {
		branch := tree.AddBranch(c.label())
		c.addTo(branch)
	}
}

// ToTree renders the frame and its nested calls.
func (f *CallFrame) ToTree() treeprint.Tree {
	tree := treeprint.NewWithRoot(f.label())
	f.addTo(tree)
	return tree
}

func (f *CallFrame) String() string {
	return f.ToTree().String()
}
