package tui

import (
	"time"

	"walletdash/pkg/config"
	"walletdash/pkg/events"
	"walletdash/pkg/models"
	"walletdash/pkg/provider"
	"walletdash/pkg/watcher"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

const nativeSymbol = "ETH"

// --- Messages ---

type clearStatusMsg struct{}
type uiTickMsg time.Time

type connectResultMsg struct {
	session models.Session
	err     error
}

type transferResultMsg struct {
	hash string
	err  error
}

type refreshResultMsg struct{ err error }

type providerSetMsg struct {
	url string
	err error
}

// --- Model ---

type model struct {
	watcher    *watcher.Watcher
	injected   *provider.Injected
	config     config.Config
	configPath string
	sub        events.Subscriber

	width         int
	height        int
	loading       bool
	connecting    bool
	spinner       spinner.Model
	statusMessage string
	statusLevel   models.NotificationLevel

	session    models.Session
	balance    string
	history    models.TransactionHistory
	samples    []float64
	lastUpdate time.Time

	sending    bool
	submitting bool
	sendInputs []textinput.Model
	sendFocus  int

	showTxList   bool
	txListIdx    int
	showTxDetail bool
	txFilter     string // "all", "in", "out"

	showGraph       bool
	editingProvider bool
	providerInput   textinput.Model
	showHelp        bool
	privacyMode     bool
}

func initialModel(w *watcher.Watcher, injected *provider.Injected, cfg config.Config, configPath string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	sis := make([]textinput.Model, 2)
	for i := range sis {
		sis[i] = textinput.New()
		sis[i].Width = 44
	}
	sis[0].Placeholder = "Recipient (0x...)"
	sis[1].Placeholder = "Amount (e.g. 0.05)"

	pi := textinput.New()
	pi.Placeholder = "http://127.0.0.1:8545"
	pi.Width = 50

	return model{
		watcher:       w,
		injected:      injected,
		config:        cfg,
		configPath:    configPath,
		sub:           w.Bus().Subscribe(),
		spinner:       s,
		balance:       "0",
		history:       models.TransactionHistory{},
		sendInputs:    sis,
		providerInput: pi,
		txFilter:      "all",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForEvents(m.sub),
		m.spinner.Tick,
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
	)
}
