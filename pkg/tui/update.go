package tui

import (
	"time"

	"walletdash/pkg/events"
	"walletdash/pkg/models"
	"walletdash/pkg/utils"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.Event:
		// Keep listening on the same subscription.
		cmds = append(cmds, listenForEvents(m.sub))
		if cmd := m.applyEvent(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case connectResultMsg:
		m.connecting = false
		if msg.err != nil {
			// The watcher already published the failure notification.
			m.loading = false
		}
		m.syncFromWatcher()

	case transferResultMsg:
		m.submitting = false
		if msg.err == nil {
			m.sending = false
			for i := range m.sendInputs {
				m.sendInputs[i].SetValue("")
			}
		}

	case refreshResultMsg:
		m.loading = false
		m.syncFromWatcher()

	case providerSetMsg:
		m.loading = false
		if msg.err != nil {
			cmds = append(cmds, m.setStatus(models.LevelError, "Provider not changed: "+msg.err.Error()))
			break
		}
		m.config.ProviderURL = msg.url
		m.editingProvider = false
		m.syncFromWatcher()
		text := "Wallet provider removed"
		if msg.url != "" {
			text = "Wallet provider set to " + utils.TruncateString(msg.url, 40)
		}
		cmds = append(cmds, m.setStatus(models.LevelSuccess, text))

	case tea.KeyMsg:
		return m.handleKey(msg)

	case uiTickMsg:
		cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }))

	case clearStatusMsg:
		m.statusMessage = ""
	}

	if m.loading || m.connecting || m.submitting {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.sending {
		return m.updateSendForm(msg)
	}
	if m.editingProvider {
		return m.updateProviderForm(msg)
	}

	if key == "?" {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		if key == "q" || key == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if key == "P" {
		m.privacyMode = !m.privacyMode
		return m, nil
	}

	if m.showGraph {
		if key == "q" || key == "esc" || key == "g" {
			m.showGraph = false
		}
		return m, nil
	}

	if m.showTxDetail {
		switch key {
		case "q", "esc", "backspace":
			m.showTxDetail = false
		case "o":
			cmds = append(cmds, m.openExplorer())
		case "y":
			if tx, ok := m.selectedTx(); ok {
				cmds = append(cmds, m.copyToClipboard(tx.Hash, "Transaction hash copied to clipboard!"))
			}
		}
		return m, tea.Batch(cmds...)
	}

	if m.showTxList {
		switch key {
		case "q", "esc":
			m.showTxList = false
		case "i":
			m.txFilter = "in"
			m.txListIdx = 0
		case "O":
			m.txFilter = "out"
			m.txListIdx = 0
		case "a":
			m.txFilter = "all"
			m.txListIdx = 0
		case "up", "k":
			if m.txListIdx > 0 {
				m.txListIdx--
			}
		case "down", "j":
			if m.txListIdx < len(m.getFilteredTransactions())-1 {
				m.txListIdx++
			}
		case "enter":
			if len(m.getFilteredTransactions()) > 0 {
				m.showTxDetail = true
			}
		case "o":
			if len(m.getFilteredTransactions()) > 0 {
				m.showTxDetail = true
				cmds = append(cmds, m.openExplorer())
			}
		}
		return m, tea.Batch(cmds...)
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "c":
		if m.session.Connected {
			cmds = append(cmds, m.setStatus(models.LevelInfo, "Already connected"))
			break
		}
		if m.connecting {
			break
		}
		m.connecting = true
		m.statusMessage = "Waiting for the wallet to approve the connection..."
		m.statusLevel = models.LevelInfo
		cmds = append(cmds, connectCmd(m.watcher), m.spinner.Tick)

	case "d":
		if m.session.Connected {
			m.watcher.Disconnect()
			m.syncFromWatcher()
			cmds = append(cmds, m.setStatus(models.LevelInfo, "Wallet disconnected"))
		}

	case "s":
		if !m.session.Connected {
			cmds = append(cmds, m.setStatus(models.LevelWarning, "Connect a wallet first"))
			break
		}
		m.sending = true
		m.sendFocus = 0
		m.sendInputs[0].Focus()
		m.sendInputs[1].Blur()

	case "t", "enter":
		if m.session.Connected {
			m.showTxList = true
			m.txListIdx = 0
			if key == "enter" && len(m.getFilteredTransactions()) > 0 {
				m.showTxDetail = true
			}
		}

	case "o":
		if m.session.Connected {
			cmds = append(cmds, m.openExplorer())
		}

	case "y":
		if m.session.Connected {
			text := "Full address copied to clipboard!"
			if m.privacyMode {
				text = "Full address copied (Privacy Mode active)!"
			}
			cmds = append(cmds, m.copyToClipboard(m.session.Account, text))
		}

	case "r":
		if !m.session.Connected {
			break
		}
		m.loading = true
		m.statusMessage = "Refreshing data..."
		m.statusLevel = models.LevelInfo
		cmds = append(cmds, refreshCmd(m.watcher), m.spinner.Tick)

	case "g":
		m.showGraph = true

	case "p":
		m.editingProvider = true
		m.providerInput.SetValue(m.config.ProviderURL)
		m.providerInput.Focus()
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateSendForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sending = false
		return m, nil
	case "tab", "down", "shift+tab", "up":
		m.sendFocus = (m.sendFocus + 1) % len(m.sendInputs)
		for i := range m.sendInputs {
			if i == m.sendFocus {
				m.sendInputs[i].Focus()
			} else {
				m.sendInputs[i].Blur()
			}
		}
		return m, nil
	case "enter":
		if m.sendFocus < len(m.sendInputs)-1 {
			m.sendFocus++
			m.sendInputs[0].Blur()
			m.sendInputs[1].Focus()
			return m, nil
		}
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.statusMessage = "Confirm the transaction in your wallet..."
		m.statusLevel = models.LevelInfo
		return m, tea.Batch(transferCmd(m.watcher, m.transferRequest()), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.sendInputs[m.sendFocus], cmd = m.sendInputs[m.sendFocus].Update(msg)
	return m, cmd
}

func (m model) updateProviderForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingProvider = false
		m.providerInput.Blur()
		return m, nil
	case "enter":
		m.loading = true
		return m, tea.Batch(
			setProviderCmd(m.watcher, m.injected, m.config, m.configPath, m.providerInput.Value()),
			m.spinner.Tick,
		)
	}
	var cmd tea.Cmd
	m.providerInput, cmd = m.providerInput.Update(msg)
	return m, cmd
}

func (m *model) openExplorer() tea.Cmd {
	url := m.explorerURL()
	if url == "" {
		return m.setStatus(models.LevelWarning, "No block explorer for this network")
	}
	if err := openBrowser(url); err != nil {
		return m.setStatus(models.LevelError, "Failed to open browser: "+err.Error())
	}
	return m.setStatus(models.LevelInfo, "Opened in browser")
}

func (m *model) copyToClipboard(text, okMsg string) tea.Cmd {
	if text == "" {
		return m.setStatus(models.LevelWarning, "Nothing to copy")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return m.setStatus(models.LevelError, "Failed to copy to clipboard")
	}
	return m.setStatus(models.LevelSuccess, okMsg)
}
