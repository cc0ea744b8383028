// Package session tracks the connection to the injected wallet: which
// account is active, on which network, and what happens when the wallet
// switches either of them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"walletdash/pkg/events"
	"walletdash/pkg/log"
	"walletdash/pkg/metrics"
	"walletdash/pkg/models"
	"walletdash/pkg/provider"
	"walletdash/pkg/utils"
)

// ErrNoAccounts is returned when the wallet grants access to zero accounts.
var ErrNoAccounts = errors.New("wallet returned no accounts")

// Manager owns a single wallet session. The zero session is disconnected.
type Manager struct {
	source  provider.Source
	bus     *events.Bus
	metrics *metrics.Metrics

	mu      sync.Mutex
	session models.Session
	prov    provider.Provider
	handles []provider.SubscriptionHandle
	// generation is bumped whenever listeners are dropped so callbacks
	// queued by an earlier connection are ignored.
	generation uint64
}

// NewManager creates a disconnected Manager. m may be nil.
func NewManager(source provider.Source, bus *events.Bus, m *metrics.Metrics) *Manager {
	return &Manager{source: source, bus: bus, metrics: m}
}

// Session returns a copy of the current session.
func (m *Manager) Session() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Connect requests account access from the injected provider and, when the
// wallet is on an allow-listed network, establishes the session. It blocks
// until the user approves or rejects the request in the wallet.
func (m *Manager) Connect(ctx context.Context) (models.Session, error) {
	p, err := m.source.Get()
	if err != nil {
		m.metrics.RecordConnect("unavailable")
		return models.Session{}, err
	}

	accounts, err := p.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, provider.ErrRejected) {
			m.metrics.RecordConnect("rejected")
		} else {
			m.metrics.RecordConnect("error")
		}
		return models.Session{}, fmt.Errorf("requesting accounts: %w", err)
	}

	chainID, err := p.ChainID(ctx)
	if err != nil {
		m.metrics.RecordConnect("error")
		return models.Session{}, fmt.Errorf("reading network: %w", err)
	}
	network, ok := Lookup(chainID)
	if !ok {
		m.metrics.RecordConnect("unsupported")
		log.Session.Warn().Int64("network_id", chainID).Msg("wallet is on an unsupported network")
		return m.Session(), &UnsupportedNetworkError{NetworkID: chainID, Supported: SupportedNames()}
	}

	if len(accounts) == 0 {
		m.metrics.RecordConnect("no_accounts")
		return models.Session{}, ErrNoAccounts
	}

	m.mu.Lock()
	m.detachLocked()
	gen := m.generation

	accHandle, err := p.Subscribe(provider.AccountsChanged, func(ev provider.Event) {
		m.onAccountsChanged(gen, ev.Accounts)
	})
	if err != nil {
		m.mu.Unlock()
		m.metrics.RecordConnect("error")
		return models.Session{}, fmt.Errorf("subscribing to account changes: %w", err)
	}
	chainHandle, err := p.Subscribe(provider.ChainChanged, func(ev provider.Event) {
		m.onChainChanged(gen, ev.ChainID)
	})
	if err != nil {
		p.Unsubscribe(accHandle)
		m.mu.Unlock()
		m.metrics.RecordConnect("error")
		return models.Session{}, fmt.Errorf("subscribing to network changes: %w", err)
	}

	m.prov = p
	m.handles = []provider.SubscriptionHandle{accHandle, chainHandle}
	m.session = models.Session{
		Account:     accounts[0],
		NetworkID:   network.ID,
		NetworkName: network.Name,
		Connected:   true,
	}
	sess := m.session
	m.mu.Unlock()

	m.metrics.RecordConnect("success")
	log.Session.Info().
		Str("account", sess.Account).
		Str("network", sess.NetworkName).
		Msg("wallet connected")

	m.publish(events.SessionConnected, sess)
	m.publish(events.Notification, models.Notification{
		Level:       models.LevelSuccess,
		Title:       "Wallet connected",
		Description: fmt.Sprintf("Connected %s on %s", utils.ShortAddress(sess.Account), sess.NetworkName),
	})
	m.metrics.RecordNotification(string(models.LevelSuccess))
	return sess, nil
}

// Disconnect clears the session and drops provider listeners. It is safe to
// call at any time.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	was := m.session.Connected
	m.detachLocked()
	m.mu.Unlock()

	if was {
		log.Session.Info().Msg("wallet disconnected")
		m.publish(events.SessionDisconnected, nil)
	}
}

func (m *Manager) onAccountsChanged(gen uint64, accounts []string) {
	m.mu.Lock()
	if gen != m.generation || !m.session.Connected {
		m.mu.Unlock()
		log.Session.Debug().Msg("ignoring account change from a previous connection")
		return
	}

	if len(accounts) == 0 {
		m.detachLocked()
		m.mu.Unlock()
		log.Session.Info().Msg("wallet revoked all accounts")
		m.publish(events.SessionDisconnected, nil)
		return
	}

	m.session.Account = accounts[0]
	sess := m.session
	m.mu.Unlock()

	log.Session.Info().Str("account", sess.Account).Msg("active account changed")
	m.publish(events.AccountChanged, sess)
}

// onChainChanged resets everything. The dashboard then shows the
// disconnected screen and the user reconnects on the new network.
func (m *Manager) onChainChanged(gen uint64, chainID int64) {
	m.mu.Lock()
	if gen != m.generation || !m.session.Connected {
		m.mu.Unlock()
		return
	}
	m.detachLocked()
	m.mu.Unlock()

	log.Session.Info().Int64("network_id", chainID).Msg("wallet switched network, session reset")
	m.publish(events.NetworkChanged, models.NetworkData{NetworkID: chainID})
}

// detachLocked drops listeners and clears the session. m.mu must be held.
func (m *Manager) detachLocked() {
	if m.prov != nil {
		for _, h := range m.handles {
			m.prov.Unsubscribe(h)
		}
	}
	m.prov = nil
	m.handles = nil
	m.session = models.Session{}
	m.generation++
}

func (m *Manager) publish(t events.Type, data interface{}) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.Event{Type: t, Data: data})
}
