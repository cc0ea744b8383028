package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"walletdash/pkg/config"
	"walletdash/pkg/events"
	"walletdash/pkg/models"
	"walletdash/pkg/provider"
	"walletdash/pkg/session"
	"walletdash/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

const dialTimeout = 10 * time.Second

// syncFromWatcher copies the watcher's observable state into the model.
func (m *model) syncFromWatcher() {
	snap := m.watcher.Snapshot()
	m.session = snap.Session
	m.balance = snap.Balance
	m.history = snap.History
	m.lastUpdate = snap.LastUpdate
	m.samples = m.watcher.Samples()
	if !m.session.Connected {
		m.showTxList = false
		m.showTxDetail = false
		m.sending = false
		m.txListIdx = 0
	}
	if m.txListIdx >= len(m.getFilteredTransactions()) {
		m.txListIdx = 0
	}
}

// applyEvent folds a bus event into the model and returns a follow-up
// command, if any.
func (m *model) applyEvent(ev events.Event) tea.Cmd {
	switch ev.Type {
	case events.Notification:
		n, ok := ev.Data.(models.Notification)
		if !ok {
			return nil
		}
		msg := n.Title
		if n.Description != "" {
			msg = fmt.Sprintf("%s: %s", n.Title, n.Description)
		}
		return m.setStatus(n.Level, msg)
	case events.SessionConnected, events.AccountChanged:
		m.loading = true
	case events.HistoryUpdated:
		m.loading = false
	case events.SessionDisconnected, events.NetworkChanged:
		m.loading = false
	}
	m.syncFromWatcher()
	return nil
}

func (m *model) setStatus(level models.NotificationLevel, msg string) tea.Cmd {
	m.statusMessage = msg
	m.statusLevel = level
	return tea.Tick(time.Second*4, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m model) getFilteredTransactions() models.TransactionHistory {
	if m.txFilter == "all" || m.txFilter == "" {
		return m.history
	}
	var filtered models.TransactionHistory
	for _, tx := range m.history {
		isFrom := strings.EqualFold(tx.From, m.session.Account)
		if m.txFilter == "in" && !isFrom {
			filtered = append(filtered, tx)
		} else if m.txFilter == "out" && isFrom {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func (m model) selectedTx() (models.TransactionRecord, bool) {
	txs := m.getFilteredTransactions()
	if len(txs) == 0 || m.txListIdx >= len(txs) {
		return models.TransactionRecord{}, false
	}
	return txs[m.txListIdx], true
}

// explorerURL links the selected transaction when one is open, otherwise
// the connected account.
func (m model) explorerURL() string {
	if m.showTxDetail {
		if tx, ok := m.selectedTx(); ok {
			return session.TxURL(m.session.NetworkID, tx.Hash)
		}
		return ""
	}
	return session.AddressURL(m.session.NetworkID, m.session.Account)
}

// providerLabel describes the wallet endpoint currently injected. A
// configured URL that could not be dialed is flagged as unreachable.
func (m model) providerLabel() string {
	if m.injected == nil {
		return m.config.ProviderURL
	}
	if p, err := m.injected.Get(); err == nil {
		if u, ok := p.(interface{ URL() string }); ok {
			return u.URL()
		}
		return "injected"
	}
	if m.config.ProviderURL != "" {
		return m.config.ProviderURL + " (unreachable)"
	}
	return ""
}

func (m model) transferRequest() models.TransferRequest {
	return models.TransferRequest{
		Recipient:    strings.TrimSpace(m.sendInputs[0].Value()),
		AmountNative: strings.TrimSpace(m.sendInputs[1].Value()),
	}
}

func listenForEvents(sub events.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func connectCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		sess, err := w.Connect(context.Background())
		return connectResultMsg{session: sess, err: err}
	}
}

func transferCmd(w *watcher.Watcher, req models.TransferRequest) tea.Cmd {
	return func() tea.Msg {
		hash, err := w.SubmitTransfer(context.Background(), req)
		return transferResultMsg{hash: hash, err: err}
	}
}

func refreshCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		return refreshResultMsg{err: w.Refresh(context.Background())}
	}
}

// setProviderCmd dials url, swaps it into the injected slot and persists it.
// An empty url removes the provider.
func setProviderCmd(w *watcher.Watcher, injected *provider.Injected, cfg config.Config, path, url string) tea.Cmd {
	return func() tea.Msg {
		cfg.ProviderURL = strings.TrimSpace(url)
		if err := cfg.Validate(); err != nil {
			return providerSetMsg{url: url, err: err}
		}

		var next provider.Provider
		if cfg.ProviderURL != "" {
			ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
			defer cancel()
			p, err := provider.Dial(ctx, cfg.ProviderURL, cfg.PollInterval())
			if err != nil {
				return providerSetMsg{url: url, err: err}
			}
			next = p
		}

		w.Disconnect()
		injected.Replace(next)
		if err := config.SaveConfig(cfg, path); err != nil {
			return providerSetMsg{url: cfg.ProviderURL, err: fmt.Errorf("provider set but config not saved: %w", err)}
		}
		return providerSetMsg{url: cfg.ProviderURL}
	}
}
