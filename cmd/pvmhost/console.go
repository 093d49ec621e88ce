package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/pvmhost/node"
	"github.com/colorfulnotion/pvmhost/timing"
	"github.com/spf13/cobra"
)

func newConsoleCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive JavaScript console bound to the node",
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

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "> ",
				HistoryFile: filepath.Join(g.dataDir, ".pvmhost_history"),
			})
			if err != nil {
				return fmt.Errorf("failed to start readline: %w", err)
			}
			defer rl.Close()

			console, err := node.NewConsole(n, caller, rl.Stdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(rl.Stdout(), "pvmhost console, genesis %s, height %d\n", n.GenesisID(), n.Height())
			fmt.Fprintln(rl.Stdout(), "Use node.deploy, node.run, node.call, node.exec, node.query. '.timings' prints call timings, 'exit' quits.")
			for {
				line, err := rl.Readline()
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "exit" {
					return nil
				}
				if line == "" {
					continue
				}
				if line == ".timings" {
					if err := timing.Print(rl.Stdout(), n.Timings()); err != nil {
						fmt.Fprintln(rl.Stdout(), "error:", err)
					}
					continue
				}
				value, err := console.Eval(line)
				if err != nil {
					fmt.Fprintln(rl.Stdout(), "error:", err)
					continue
				}
				fmt.Fprintln(rl.Stdout(), value)
			}
		},
	}
}
