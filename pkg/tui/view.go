package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"walletdash/pkg/models"
	"walletdash/pkg/session"
	"walletdash/pkg/utils"
)

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	if m.sending {
		return m.viewSendForm()
	}

	if m.editingProvider {
		return m.viewProviderForm()
	}

	if m.showGraph {
		return m.viewBalanceGraph()
	}

	if m.showTxDetail {
		return m.viewTxDetail()
	}

	if m.showTxList {
		return m.viewTxList()
	}

	var content string
	if m.session.Connected {
		content = m.viewConnected()
	} else {
		content = m.viewDisconnected()
	}

	// Footer
	line1 := "c:connect • d:disconnect • s:send • t:txs • r:ref • g:graph"
	line2 := fmt.Sprintf("o:explorer • y:copy • p:provider • P:prv • ?:hlp • q:quit • v%s", Version)

	var footer string
	if m.width > 0 {
		l1 := subtleStyle.Width(m.width).Align(lipgloss.Center).Render(line1)
		l2 := subtleStyle.Width(m.width).Align(lipgloss.Center).Render(line2)
		footer = lipgloss.JoinVertical(lipgloss.Center, l1, l2)
	} else {
		footer = subtleStyle.Render(line1 + "\n" + line2)
	}

	if m.statusMessage != "" {
		footer = lipgloss.JoinVertical(lipgloss.Center, m.statusStyle().Render(m.statusMessage), footer)
	}

	h := m.height - 1
	if h < 0 {
		h = 0
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewTopBar(),
		lipgloss.Place(
			m.width,
			h,
			lipgloss.Center,
			lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
		),
	)
}

func (m model) viewTopBar() string {
	network := "Not connected"
	if m.session.Connected {
		network = m.session.NetworkName
	}
	leftBlock := subtleStyle.Render(" " + network)

	spinnerView := ""
	if m.loading || m.connecting || m.submitting {
		spinnerView = m.spinner.View() + " "
	}
	lastUpd := "never"
	if !m.lastUpdate.IsZero() {
		lastUpd = m.lastUpdate.Format("15:04:05")
	}
	privacyIndicator := ""
	if m.privacyMode {
		privacyIndicator = "🔒 "
	}
	rightBlock := subtleStyle.Render(fmt.Sprintf("%s%sLast updated: %s ", privacyIndicator, spinnerView, lastUpd))

	gap := m.width - lipgloss.Width(leftBlock) - lipgloss.Width(rightBlock)
	if gap < 0 {
		gap = 0
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, leftBlock, strings.Repeat(" ", gap), rightBlock)
}

func (m model) viewDisconnected() string {
	providerLine := errStyle.Render("No wallet provider configured (press p to set one)")
	if label := m.providerLabel(); label != "" {
		providerLine = "Provider: " + utils.TruncateString(label, 56)
	}

	prompt := "Press c to connect your wallet"
	if m.connecting {
		prompt = m.spinner.View() + " Waiting for wallet approval..."
	}

	var nets []string
	for _, n := range session.SupportedNetworks() {
		nets = append(nets, fmt.Sprintf("  %-18s (%d)", n.Name, n.ID))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("walletdash"),
		"\n",
		"Wallet not connected",
		providerLine,
		"\n",
		infoStyle.Render(prompt),
		"\n",
		subtleStyle.Render("Supported networks:"),
		subtleStyle.Render(strings.Join(nets, "\n")),
	))
}

func (m model) viewConnected() string {
	header := titleStyle.Render(fmt.Sprintf("walletdash - %s", m.session.NetworkName))
	addr := fmt.Sprintf("Account: %s", m.maskAddress(m.session.Account))

	targetWidth := m.width - 4
	if targetWidth < 0 {
		targetWidth = 0
	}
	contentWidth := targetWidth - 4
	if contentWidth < 0 {
		contentWidth = 0
	}

	balStr := fmt.Sprintf("%s %s", m.maskString(utils.FormatBalance(m.balance)), nativeSymbol)
	if m.loading && m.lastUpdate.IsZero() {
		balStr = m.spinner.View() + " Loading balance..."
	}
	balanceDisplay := balanceStyle.Width(contentWidth).Render(balStr)

	// Transactions Table
	var txTable string
	if len(m.history) > 0 {
		headers := tableHeaderStyle.Render(fmt.Sprintf("%-4s %-12s %-12s %-12s %14s", "DIR", "HASH", "FROM", "TO", "VALUE"))
		rows := ""
		start := 0
		if len(m.history) > 5 {
			start = len(m.history) - 5
		}
		// Newest last in history; show the most recent five.
		for i := len(m.history) - 1; i >= start; i-- {
			tx := m.history[i]
			rows += m.txRow(tx) + "\n"
		}
		txTable = lipgloss.JoinVertical(lipgloss.Center, headers, rows)
	} else {
		txTable = subtleStyle.Render("No transactions in the last 11 blocks")
	}

	uiBlock := lipgloss.JoinVertical(lipgloss.Center,
		header,
		addr,
		"\n",
		balanceDisplay,
		"\n",
		txTable,
	)
	return boxStyle.Width(targetWidth).Align(lipgloss.Center).Render(uiBlock)
}

func (m model) txRow(tx models.TransactionRecord) string {
	dir := "IN"
	if strings.EqualFold(tx.From, m.session.Account) {
		dir = "OUT"
	}
	to := tx.To
	if to == "" {
		to = "(create)"
	}
	return fmt.Sprintf("%-4s %-12s %-12s %-12s %14s",
		dir,
		m.maskAddress(utils.ShortAddress(tx.Hash)),
		m.maskAddress(utils.ShortAddress(tx.From)),
		m.maskAddress(utils.ShortAddress(to)),
		m.maskString(utils.FormatEther(tx.Value)),
	)
}

func (m model) viewSendForm() string {
	labels := []string{"To", "Amount"}
	var inputs []string
	for i, label := range labels {
		inputs = append(inputs, fmt.Sprintf("%-8s %s", label, m.sendInputs[i].View()))
	}

	status := ""
	if m.submitting {
		status = m.spinner.View() + " Waiting for the wallet..."
	} else if m.statusMessage != "" {
		status = m.statusStyle().Render(m.statusMessage)
	}

	return lipgloss.Place(
		m.width, m.height, lipgloss.Center, lipgloss.Center,
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("Send %s", nativeSymbol)),
			"\n",
			fmt.Sprintf("From:    %s", m.maskAddress(m.session.Account)),
			fmt.Sprintf("Balance: %s %s", m.maskString(m.balance), nativeSymbol),
			"\n",
			strings.Join(inputs, "\n"),
			"\n",
			status,
			subtleStyle.Render("Enter to next/send • Tab to switch • Esc to cancel"),
		)),
	)
}

func (m model) viewProviderForm() string {
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Wallet Provider"),
			"\n",
			"JSON-RPC endpoint of your wallet (http, https, ws or wss).",
			"Leave empty to remove the provider.",
			m.providerInput.View(),
			"\n",
			subtleStyle.Render("Enter to save • Esc to cancel"),
		)),
	)
}

func (m model) viewHelp() string {
	var title string
	var shortcuts []string

	if m.showTxDetail {
		title = "Transaction Details"
		shortcuts = []string{"o: Open in Explorer", "y: Copy Hash", "q/esc: Back"}
	} else if m.showTxList {
		title = "Transactions"
		shortcuts = []string{"↑/k: Up", "↓/j: Down", "i/O/a: Filter In/Out/All", "enter: Details", "o: Open in Explorer", "q/esc: Back"}
	} else if m.showGraph {
		title = "Balance Graph"
		shortcuts = []string{"g/q/esc: Back"}
	} else {
		title = "Main View"
		shortcuts = []string{
			"c: Connect Wallet",
			"d: Disconnect",
			"s: Send",
			"t: Transaction List",
			"enter: Latest Transaction",
			"o: Open Account in Explorer",
			"y: Copy Address",
			"r: Refresh Data",
			"g: Balance Graph",
			"p: Set Wallet Provider",
			"P: Toggle Privacy",
			"q: Quit",
			"?: Toggle Help",
		}
	}

	header := titleStyle.Render(fmt.Sprintf("Help: %s", title))
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(shortcuts, "\n")))
	footer := subtleStyle.Render("Press '?' or 'esc' to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
	)
}

func (m model) viewTxList() string {
	filterDisplay := "All"
	switch m.txFilter {
	case "in":
		filterDisplay = "Incoming"
	case "out":
		filterDisplay = "Outgoing"
	}
	header := titleStyle.Render(fmt.Sprintf("Transactions: %s (%s)", m.maskAddress(m.session.Account), filterDisplay))

	txs := m.getFilteredTransactions()

	if len(txs) == 0 {
		content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", "No transactions found."))
		footer := subtleStyle.Render("i: in • O: out • a: all • q/esc: back")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
	}

	rows := ""
	for i, tx := range txs {
		cursor := "  "
		if i == m.txListIdx {
			cursor = "> "
		}
		rows += fmt.Sprintf("%s%-9d %s\n", cursor, tx.BlockNumber, m.txRow(tx))
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", rows))
	footer := subtleStyle.Render("i: in • O: out • a: all • enter: details • o: explorer • q/esc: back")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewTxDetail() string {
	tx, ok := m.selectedTx()
	if !ok {
		return "No transaction selected."
	}

	header := titleStyle.Render("Transaction Details")

	to := tx.To
	if to == "" {
		to = "(contract creation)"
	}
	gasPrice := "n/a"
	if tx.GasPrice != nil {
		gasPrice = utils.FormatUnits(tx.GasPrice, 9) + " Gwei"
	}

	// Fields
	lines := []string{
		fmt.Sprintf("Hash:      %s", m.maskAddress(tx.Hash)),
		fmt.Sprintf("Block:     %d", tx.BlockNumber),
		fmt.Sprintf("From:      %s", m.maskAddress(tx.From)),
		fmt.Sprintf("To:        %s", m.maskAddress(to)),
		fmt.Sprintf("Value:     %s %s", m.maskString(utils.FormatEther(tx.Value)), nativeSymbol),
		fmt.Sprintf("Gas Limit: %d", tx.GasLimit),
		fmt.Sprintf("Gas Price: %s", gasPrice),
		fmt.Sprintf("Nonce:     %d", tx.Nonce),
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(lines, "\n")))
	footer := subtleStyle.Render("o: open in browser • y: copy hash • q/esc: back")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewBalanceGraph() string {
	header := titleStyle.Render("Balance History")
	var graph string
	switch {
	case m.privacyMode:
		graph = "Hidden in Privacy Mode."
	case len(m.samples) > 1:
		width := m.width - 14
		if width < 10 {
			width = 10
		}
		height := m.height - 12
		if height < 1 {
			height = 1
		}
		graph = asciigraph.Plot(m.samples,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(fmt.Sprintf("Balance (%s) per refresh", nativeSymbol)),
		)
	default:
		graph = "Not enough data to draw graph."
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", graph))
	footer := subtleStyle.Render("g/q/esc: back")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}
