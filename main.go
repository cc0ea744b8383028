package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version should be set during build
var Version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "walletdash",
		Usage:   "Wallet dashboard for Ethereum accounts",
		Version: Version,
		Description: `Connects to a wallet provider over JSON-RPC, shows the account balance and
the transactions of the last few blocks, and submits native transfers.

Without a command the interactive dashboard is started.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default ~/.walletdash.json)",
				EnvVars: []string{"WALLETDASH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "Wallet provider JSON-RPC URL (overrides the config file)",
				EnvVars: []string{"WALLETDASH_PROVIDER"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
		Action: runDashboard,
		Commands: []*cli.Command{
			serveCommand(),
			checkCommand(),
			balanceCommand(),
			historyCommand(),
			sendCommand(),
			networksCommand(),
			restoreConfigCommand(),
			versionCommand(),
		},
	}
}
