package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/colorfulnotion/pvmhost/chainspecs"
	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/colorfulnotion/pvmhost/node"
	"github.com/colorfulnotion/pvmhost/pvm"
	"github.com/colorfulnotion/pvmhost/services/riscv"
	"github.com/colorfulnotion/pvmhost/types"
	"github.com/spf13/cobra"
)

// printReceipt writes the receipt and, when asked, its call tree and state
// diff. A failed transaction is reported as an error.
func printReceipt(w io.Writer, g *globalFlags, receipt *framework.Receipt) error {
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	if g.trace && receipt.Trace != nil {
		fmt.Fprint(w, receipt.Trace.String())
	}
	if g.diff {
		diff, err := node.StateDiff(receipt, false)
		if err != nil {
			return err
		}
		fmt.Fprint(w, diff)
	}
	if receipt.Response.IsError() {
		return fmt.Errorf("tx failed with code %d: %s", receipt.Response.Code, receipt.Response.ErrorMessage)
	}
	return nil
}

func newDeployCmd(g *globalFlags) *cobra.Command {
	var (
		program  string
		script   string
		initArgs string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a native program or a JavaScript contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			var code []byte
			typ := types.Binary
			switch {
			case program != "" && script == "":
				code = pvm.NativeImage(program)
			case script != "" && program == "":
				src, err := os.ReadFile(script)
				if err != nil {
					return err
				}
				code, typ = src, types.JavaScript
			default:
				return fmt.Errorf("exactly one of --program or --script is required")
			}
			caller, err := g.callerAddress()
			if err != nil {
				return err
			}
			n, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer n.Close()
			receipt, err := n.Deploy(cmd.Context(), caller, code, typ, initArgs)
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), g, receipt)
		},
	}
	cmd.Flags().StringVar(&program, "program", "", "native program name")
	cmd.Flags().StringVar(&script, "script", "", "JavaScript contract file")
	cmd.Flags().StringVar(&initArgs, "init", "", "arguments of the init invocation")
	return cmd
}

func newExecCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <contract> <args>",
		Short: "Run a contract in a write context",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := g.callerAddress()
			if err != nil {
				return err
			}
			payload, err := json.Marshal(types.ExecPayload{Address: args[0], Args: args[1]})
			if err != nil {
				return err
			}
			n, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer n.Close()
			receipt, err := n.Exec(cmd.Context(), node.Tx{Caller: caller, Service: riscv.ServiceName, Method: "exec", Payload: payload, CyclesLimit: g.cycles})
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), g, receipt)
		},
	}
}

func newCallCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "call <contract> <args>",
		Short: "Run a contract in a read context",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := g.callerAddress()
			if err != nil {
				return err
			}
			contract, err := common.ParseAddress(args[0])
			if err != nil {
				return err
			}
			n, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer n.Close()
			out, err := n.CallContract(cmd.Context(), caller, contract, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newServiceCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "service <service> <method> <json payload>",
		Short: "Send a write transaction to a service method",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := g.callerAddress()
			if err != nil {
				return err
			}
			n, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer n.Close()
			receipt, err := n.Exec(cmd.Context(), node.Tx{Caller: caller, Service: args[0], Method: args[1], Payload: []byte(args[2]), CyclesLimit: g.cycles})
			if err != nil {
				return err
			}
			return printReceipt(cmd.OutOrStdout(), g, receipt)
		},
	}
}

func newQueryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query <service> <method> <json payload>",
		Short: "Call a service read method",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := g.callerAddress()
			if err != nil {
				return err
			}
			n, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer n.Close()
			resp, err := n.Query(cmd.Context(), caller, args[0], args[1], []byte(args[2]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(resp))
			return nil
		},
	}
}

func newGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis [id]",
		Short: "Print an embedded genesis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, id := range chainspecs.Networks() {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}
			data, err := chainspecs.Raw(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
