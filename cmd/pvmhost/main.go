// pvmhost runs contracts and services against a local single-process chain.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/colorfulnotion/pvmhost/common"
	log "github.com/colorfulnotion/pvmhost/log"
	"github.com/colorfulnotion/pvmhost/node"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

type globalFlags struct {
	configFile string
	dataDir    string
	genesis    string
	logLevel   string
	debug      string
	telemetry  string
	caller     string
	cycles     uint64
	trace      bool
	diff       bool
}

func (g *globalFlags) config() (node.Config, error) {
	cfg := node.DefaultConfig()
	if g.configFile != "" {
		if err := node.LoadConfig(g.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	if g.dataDir != "" {
		cfg.DataDir = g.dataDir
	}
	if g.genesis != "" {
		cfg.Genesis = g.genesis
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.debug != "" {
		cfg.DebugModules = g.debug
	}
	if g.telemetry != "" {
		cfg.Telemetry = g.telemetry
	}
	return cfg, cfg.Validate()
}

func (g *globalFlags) callerAddress() (common.Address, error) {
	return common.ParseAddress(g.caller)
}

// open starts logging and the node for one command.
func (g *globalFlags) open(ctx context.Context) (*node.Node, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	if err := log.InitLogger(cfg.LogLevel); err != nil {
		return nil, err
	}
	log.EnableModules(cfg.DebugModules)
	return node.NewNode(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	var rootCmd = &cobra.Command{
		Use:          "pvmhost",
		Short:        "Contract host and service runtime",
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "JSON config file")
	flags.StringVar(&g.dataDir, "datadir", "", "leveldb directory; empty keeps the state in memory")
	flags.StringVar(&g.genesis, "genesis", "", "embedded genesis id (dev, auth) or genesis file")
	flags.StringVar(&g.logLevel, "log-level", "", "trace, debug, info, warn, error")
	flags.StringVar(&g.debug, "debug", "", "comma separated log modules to enable")
	flags.StringVar(&g.telemetry, "telemetry", "", "OTLP/HTTP collector host:port")
	flags.StringVar(&g.caller, "caller", "755cdba6ae4f479f7164792b318b2a06c759833b", "transaction sender")
	flags.Uint64Var(&g.cycles, "cycles", 0, "cycle limit of the transaction; 0 uses the configured limit")
	flags.BoolVar(&g.trace, "trace", false, "print the call tree")
	flags.BoolVar(&g.diff, "diff", false, "print the state diff of committed writes")

	rootCmd.AddCommand(
		newDeployCmd(g),
		newExecCmd(g),
		newCallCmd(g),
		newServiceCmd(g),
		newQueryCmd(g),
		newConsoleCmd(g),
		newGenesisCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "pvmhost %s (commit %s, built %s)\n", Version, Commit, BuildTime)
			},
		},
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
