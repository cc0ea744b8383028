package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"walletdash/pkg/chain"
	"walletdash/pkg/config"
	"walletdash/pkg/events"
	"walletdash/pkg/log"
	"walletdash/pkg/metrics"
	"walletdash/pkg/provider"
	"walletdash/pkg/session"
	"walletdash/pkg/watcher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

const dialTimeout = 10 * time.Second

// stack holds the wired components shared by every command.
type stack struct {
	cfg        config.Config
	configPath string
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	injected   *provider.Injected
	bus        *events.Bus
	sessions   *session.Manager
	chain      *chain.Client
	watcher    *watcher.Watcher
	logCloser  io.Closer
	// dialErr is why the configured provider could not be reached, if so.
	dialErr    error
}

// setup loads the configuration, applies flag overrides and wires the
// components. quiet silences console logging.
func setup(c *cli.Context, quiet bool) (*stack, error) {
	path, err := config.GetConfigPath(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("determining config path: %w", err)
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if c.IsSet("provider") {
		cfg.ProviderURL = c.String("provider")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	closer, err := log.Init(log.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.LogJSON,
		File:  cfg.LogFile,
		Quiet: quiet,
	})
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	rt := &stack{
		cfg:        cfg,
		configPath: path,
		registry:   prometheus.NewRegistry(),
		injected:   provider.NewInjected(nil),
		bus:        events.NewBus(),
		logCloser:  closer,
	}
	rt.metrics = metrics.NewMetrics(rt.registry)

	if cfg.ProviderURL != "" {
		ctx, cancel := context.WithTimeout(c.Context, dialTimeout)
		p, err := provider.Dial(ctx, cfg.ProviderURL, cfg.PollInterval())
		cancel()
		if err != nil {
			// The wallet stays unavailable; connect attempts report it.
			log.Provider.Warn().Err(err).Str("url", cfg.ProviderURL).Msg("could not dial wallet provider")
			rt.dialErr = err
		} else {
			rt.injected.Replace(p)
		}
	}

	rt.sessions = session.NewManager(rt.injected, rt.bus, rt.metrics)
	rt.chain = chain.NewClient(rt.injected, rt.metrics)
	rt.watcher = watcher.NewWatcher(rt.sessions, rt.chain, rt.bus, rt.metrics, cfg.RefreshInterval())
	return rt, nil
}

func (rt *stack) Close() {
	rt.watcher.Stop()
	rt.sessions.Disconnect()
	if err := rt.injected.Close(); err != nil {
		log.Provider.Debug().Err(err).Msg("closing provider")
	}
	_ = rt.logCloser.Close()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdout(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}
