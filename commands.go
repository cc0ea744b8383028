package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"walletdash/pkg/chain"
	"walletdash/pkg/config"
	"walletdash/pkg/models"
	"walletdash/pkg/provider"
	"walletdash/pkg/server"
	"walletdash/pkg/session"
	"walletdash/pkg/tui"
	"walletdash/pkg/utils"

	"github.com/urfave/cli/v2"
)

var errCheckFailed = errors.New("provider check failed")

func runDashboard(c *cli.Context) error {
	rt, err := setup(c, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	rt.watcher.Start(ctx)

	return tui.Start(rt.watcher, rt.injected, rt.cfg, rt.configPath, Version)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run headless with the HTTP and WebSocket API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port for the API server (default from config)",
			},
			&cli.BoolFlag{
				Name:  "connect",
				Usage: "Connect the wallet on startup",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := setup(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			port := rt.cfg.ServerPort
			if c.IsSet("port") {
				port = c.Int("port")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			rt.watcher.Start(ctx)

			if c.Bool("connect") {
				// Failures are published as notifications and logged.
				_, _ = rt.watcher.Connect(ctx)
			}

			srv := server.NewServer(rt.watcher, rt.metrics, rt.registry)
			return srv.Start(ctx, port)
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Probe the configured wallet provider and exit",
		Action: func(c *cli.Context) error {
			rt, err := setup(c, c.Bool("json"))
			if err != nil {
				return err
			}
			defer rt.Close()

			report := probe(c.Context, rt)
			out := stdout(c)
			if c.Bool("json") {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}

			if !report.Reachable || !report.Supported {
				return errCheckFailed
			}
			return nil
		},
	}
}

// probe asks the injected provider for everything the dashboard needs at
// connect time and collects what failed.
func probe(ctx context.Context, rt *stack) models.CheckReport {
	report := models.CheckReport{
		ConfigPath:   rt.configPath,
		ProviderURL:  rt.cfg.ProviderURL,
		SupportedIDs: session.SupportedIDs(),
	}

	p, err := rt.injected.Get()
	if err != nil {
		if rt.dialErr != nil {
			err = rt.dialErr
		}
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	id, err := p.ChainID(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("chain id: %v", err))
		return report
	}
	report.Reachable = true
	report.NetworkID = id
	if n, ok := session.Lookup(id); ok {
		report.Supported = true
		report.NetworkName = n.Name
	} else {
		report.Errors = append(report.Errors, (&session.UnsupportedNetworkError{
			NetworkID: id,
			Supported: session.SupportedNames(),
		}).Error())
	}

	if head, err := p.BlockNumber(ctx); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("head block: %v", err))
	} else {
		report.HeadBlock = head
	}

	if accounts, err := p.RequestAccounts(ctx); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("accounts: %v", err))
	} else {
		report.Accounts = accounts
		if len(accounts) == 0 {
			report.Errors = append(report.Errors, session.ErrNoAccounts.Error())
		}
	}
	return report
}

func printReport(w io.Writer, r models.CheckReport) {
	fmt.Fprintf(w, "Config:    %s\n", r.ConfigPath)
	url := r.ProviderURL
	if url == "" {
		url = "(none)"
	}
	fmt.Fprintf(w, "Provider:  %s\n", url)
	if r.Reachable {
		fmt.Fprintf(w, "Reachable: yes\n")
		name := r.NetworkName
		if !r.Supported {
			name = "unsupported"
		}
		fmt.Fprintf(w, "Network:   %d (%s)\n", r.NetworkID, name)
		fmt.Fprintf(w, "Head:      %d\n", r.HeadBlock)
		fmt.Fprintf(w, "Accounts:  %d\n", len(r.Accounts))
		for _, a := range r.Accounts {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	} else {
		fmt.Fprintf(w, "Reachable: no\n")
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "Error: %s\n", e)
	}
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Print the native balance of an address",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			addr := c.Args().First()
			if addr == "" {
				return fmt.Errorf("address argument is required")
			}
			rt, err := setup(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			bal, err := rt.chain.GetBalance(c.Context, addr)
			if err != nil {
				return fmt.Errorf("fetching balance: %w", err)
			}
			if c.Bool("json") {
				return printJSON(stdout(c), map[string]string{"address": addr, "balance": bal})
			}
			fmt.Fprintf(stdout(c), "%s ETH\n", utils.FormatBalance(bal))
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     fmt.Sprintf("List transactions of an address in the last %d blocks", chain.HistoryWindow),
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			addr := c.Args().First()
			if addr == "" {
				return fmt.Errorf("address argument is required")
			}
			rt, err := setup(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			history, err := rt.chain.GetTransactionHistory(c.Context, addr)
			if err != nil {
				return fmt.Errorf("fetching history: %w", err)
			}
			out := stdout(c)
			if c.Bool("json") {
				return printJSON(out, history)
			}
			if len(history) == 0 {
				fmt.Fprintln(out, "No transactions found.")
				return nil
			}
			for _, tx := range history {
				dir := "IN "
				if strings.EqualFold(tx.From, addr) {
					dir = "OUT"
				}
				fmt.Fprintf(out, "%-9d %s %s %s -> %s %s ETH\n",
					tx.BlockNumber, dir, tx.Hash, utils.ShortAddress(tx.From), utils.ShortAddress(tx.To), utils.FormatEther(tx.Value))
			}
			return nil
		},
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send a native transfer from the wallet's selected account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Usage: "Recipient address", Required: true},
			&cli.StringFlag{Name: "amount", Usage: "Amount in ETH, e.g. 0.05", Required: true},
		},
		Action: func(c *cli.Context) error {
			rt, err := setup(c, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, err := rt.sessions.Connect(c.Context)
			if err != nil {
				return fmt.Errorf("connecting wallet: %w", err)
			}

			req := models.TransferRequest{Recipient: c.String("to"), AmountNative: c.String("amount")}
			hash, err := rt.chain.SendTransaction(c.Context, req)
			if err != nil {
				if errors.Is(err, provider.ErrRejected) {
					return fmt.Errorf("transaction rejected in the wallet")
				}
				return err
			}

			out := stdout(c)
			if c.Bool("json") {
				return printJSON(out, models.TransferData{Request: req, Hash: hash})
			}
			fmt.Fprintf(out, "Transaction sent: %s\n", hash)
			if url := session.TxURL(sess.NetworkID, hash); url != "" {
				fmt.Fprintf(out, "  %s\n", url)
			}
			return nil
		},
	}
}

func networksCommand() *cli.Command {
	return &cli.Command{
		Name:  "networks",
		Usage: "List the networks the dashboard accepts",
		Action: func(c *cli.Context) error {
			nets := session.SupportedNetworks()
			out := stdout(c)
			if c.Bool("json") {
				return printJSON(out, nets)
			}
			for _, n := range nets {
				fmt.Fprintf(out, "%-10d %-18s %s\n", n.ID, n.Name, n.ExplorerURL)
			}
			return nil
		},
	}
}

func restoreConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "restore-config",
		Usage: "Restore the most recent configuration backup",
		Action: func(c *cli.Context) error {
			path, err := config.GetConfigPath(c.String("config"))
			if err != nil {
				return err
			}
			if err := config.RestoreLastBackup(path); err != nil {
				return fmt.Errorf("restoring %s: %w", path, err)
			}
			fmt.Fprintf(stdout(c), "Restored %s from the latest backup\n", path)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(stdout(c), "walletdash version %s\n", Version)
			return nil
		},
	}
}
