package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/dop251/goja"
)

// Console evaluates JavaScript against a node. The global `node` object
// exposes exec, query, deploy, run, call and height; `print` writes to out.
type Console struct {
	node   *Node
	vm     *goja.Runtime
	out    io.Writer
	caller common.Address
}

func NewConsole(n *Node, caller common.Address, out io.Writer) (*Console, error) {
	c := &Console{node: n, vm: goja.New(), out: out, caller: caller}
	if err := c.bind(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Console) jsonValue(data []byte) goja.Value {
	var v interface{}
	if json.Unmarshal(data, &v) == nil {
		return c.vm.ToValue(v)
	}
	return c.vm.ToValue(string(data))
}

func (c *Console) receiptValue(r *framework.Receipt, err error) (goja.Value, error) {
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return c.jsonValue(data), nil
}

func (c *Console) bind() error {
	ctx := context.Background()
	obj := c.vm.NewObject()
	set := func(name string, fn interface{}) {
		obj.Set(name, fn)
	}
	set("exec", func(service, method, payload string) (goja.Value, error) {
		return c.receiptValue(c.node.Exec(ctx, Tx{Caller: c.caller, Service: service, Method: method, Payload: []byte(payload)}))
	})
	set("query", func(service, method, payload string) (goja.Value, error) {
		resp, err := c.node.Query(ctx, c.caller, service, method, []byte(payload))
		if err != nil {
			return nil, err
		}
		return c.jsonValue(resp), nil
	})
	set("deploy", func(program, initArgs string) (goja.Value, error) {
		return c.receiptValue(c.node.Deploy(ctx, c.caller, pvm.NativeImage(program), types.Binary, initArgs))
	})
	set("deploy_script", func(script, initArgs string) (goja.Value, error) {
		return c.receiptValue(c.node.Deploy(ctx, c.caller, []byte(script), types.JavaScript, initArgs))
	})
	set("run", func(address, args string) (goja.Value, error) {
		addr, err := common.ParseAddress(address)
		if err != nil {
			return nil, err
		}
		return c.receiptValue(c.node.ExecContract(ctx, c.caller, addr, args))
	})
	set("call", func(address, args string) (string, error) {
		addr, err := common.ParseAddress(address)
		if err != nil {
			return "", err
		}
		return c.node.CallContract(ctx, c.caller, addr, args)
	})
	set("height", c.node.Height)
	set("caller", func() string { return c.caller.String() })
	set("use", func(address string) error {
		addr, err := common.ParseAddress(address)
		if err != nil {
			return err
		}
		c.caller = addr
		return nil
	})
	if err := c.vm.Set("node", obj); err != nil {
		return err
	}
	return c.vm.Set("print", func(args ...goja.Value) {
		for _, arg := range args {
			fmt.Fprintln(c.out, arg.Export())
		}
	})
}

// Eval runs one line of JavaScript.
func (c *Console) Eval(line string) (goja.Value, error) {
	return c.vm.RunString(line)
}
