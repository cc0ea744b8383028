package watcher

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"walletdash/pkg/events"
	"walletdash/pkg/log"
	"walletdash/pkg/metrics"
	"walletdash/pkg/models"
)

// ErrNotConnected is returned by operations that need an active session.
var ErrNotConnected = errors.New("wallet not connected")

const maxSamples = 120

// DataSource defines the interface for fetching chain data and submitting
// transfers.
type DataSource interface {
	GetBalance(ctx context.Context, account string) (string, error)
	GetTransactionHistory(ctx context.Context, account string) (models.TransactionHistory, error)
	SendTransaction(ctx context.Context, req models.TransferRequest) (string, error)
}

// SessionManager is the part of the session manager the watcher drives.
type SessionManager interface {
	Connect(ctx context.Context) (models.Session, error)
	Disconnect()
	Session() models.Session
}

// Watcher holds the dashboard state and is the only entry point the
// presentation layer uses. Failures are returned and also published as
// notifications; none of them are fatal.
type Watcher struct {
	sessions        SessionManager
	dataSource      DataSource
	bus             *events.Bus
	metrics         *metrics.Metrics
	refreshInterval time.Duration

	mu            sync.RWMutex
	balance       string
	history       models.TransactionHistory
	lastUpdate    time.Time
	samples       []float64
	// owner is the account the stored data belongs to; "" after clear.
	owner string

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new Watcher instance. A zero refreshInterval disables
// periodic refresh.
func NewWatcher(sessions SessionManager, ds DataSource, bus *events.Bus, m *metrics.Metrics, refreshInterval time.Duration) *Watcher {
	return &Watcher{
		sessions:        sessions,
		dataSource:      ds,
		bus:             bus,
		metrics:         m,
		refreshInterval: refreshInterval,
		balance:         "0",
		history:         models.TransactionHistory{},
		stopChan:        make(chan struct{}),
	}
}

// Bus returns the bus the watcher publishes on.
func (w *Watcher) Bus() *events.Bus { return w.bus }

// Connect asks the wallet for access. Balance and history are fetched by the
// loop started with Start once the session is established.
func (w *Watcher) Connect(ctx context.Context) (models.Session, error) {
	sess, err := w.sessions.Connect(ctx)
	if err != nil {
		log.Watcher.Warn().Err(err).Msg("connect failed")
		w.notify(models.LevelError, "Connection failed", err.Error())
		return sess, err
	}
	return sess, nil
}

// Disconnect ends the session and clears the account data.
func (w *Watcher) Disconnect() {
	w.sessions.Disconnect()
	w.clear()
}

// SubmitTransfer sends a native transfer from the connected account.
func (w *Watcher) SubmitTransfer(ctx context.Context, req models.TransferRequest) (string, error) {
	if !w.sessions.Session().Connected {
		w.notify(models.LevelError, "Transaction failed", ErrNotConnected.Error())
		return "", ErrNotConnected
	}

	hash, err := w.dataSource.SendTransaction(ctx, req)
	if err != nil {
		log.Watcher.Warn().Err(err).Str("to", req.Recipient).Msg("transfer failed")
		w.notify(models.LevelError, "Transaction failed", err.Error())
		return "", err
	}

	w.publish(events.TransferSubmitted, models.TransferData{Request: req, Hash: hash})
	w.notify(models.LevelSuccess, "Transaction sent", hash)
	return hash, nil
}

// Refresh refetches balance and history for the connected account.
func (w *Watcher) Refresh(ctx context.Context) error {
	sess := w.sessions.Session()
	if !sess.Connected {
		return ErrNotConnected
	}
	w.track(sess.Account)
	return w.fetch(ctx, sess.Account)
}

// Start begins the synchronisation loop.
func (w *Watcher) Start(ctx context.Context) {
	sub := w.bus.Subscribe()
	go w.syncLoop(ctx, sub)
}

// Stop stops the synchronisation loop.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *Watcher) syncLoop(ctx context.Context, sub events.Subscriber) {
	defer w.bus.Unsubscribe(sub)

	var tick <-chan time.Time
	if w.refreshInterval > 0 {
		ticker := time.NewTicker(w.refreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case <-tick:
			if sess := w.sessions.Session(); sess.Connected {
				w.track(sess.Account)
				go w.fetch(ctx, sess.Account)
			}
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev events.Event) {
	switch ev.Type {
	case events.SessionConnected, events.AccountChanged:
		sess, ok := ev.Data.(models.Session)
		if !ok || !sess.Connected {
			return
		}
		w.track(sess.Account)
		go w.fetch(ctx, sess.Account)
	case events.SessionDisconnected:
		w.clear()
	case events.NetworkChanged:
		w.clear()
		w.notify(models.LevelWarning, "Network changed", "Reconnect your wallet to continue on the new network")
	}
}

// fetch loads balance then history. Results for an account that is no
// longer the connected one are dropped.
func (w *Watcher) fetch(ctx context.Context, account string) error {
	balance, err := w.dataSource.GetBalance(ctx, account)
	if err != nil {
		return w.fetchFailed(account, err)
	}
	if !w.storeBalance(account, balance) {
		return nil
	}

	history, err := w.dataSource.GetTransactionHistory(ctx, account)
	if err != nil {
		return w.fetchFailed(account, err)
	}
	w.storeHistory(account, history)
	return nil
}

func (w *Watcher) fetchFailed(account string, err error) error {
	log.Watcher.Error().Err(err).Str("account", account).Msg("fetch failed")
	w.notify(models.LevelWarning, "Could not fetch balance or transaction history", "")
	return err
}

// track makes account the owner of the stored data, dropping whatever a
// previous account left behind.
func (w *Watcher) track(account string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.owner == account {
		return
	}
	w.resetLocked()
	w.owner = account
}

// ownsLocked reports whether results fetched for account may be stored.
// Callers hold w.mu.
func (w *Watcher) ownsLocked(account string) bool {
	if w.owner != account {
		return false
	}
	sess := w.sessions.Session()
	return sess.Connected && sess.Account == account
}

func (w *Watcher) storeBalance(account, balance string) bool {
	w.mu.Lock()
	if !w.ownsLocked(account) {
		w.mu.Unlock()
		log.Watcher.Debug().Str("account", account).Msg("dropping stale balance")
		return false
	}
	w.balance = balance
	w.lastUpdate = time.Now()
	if f, err := strconv.ParseFloat(balance, 64); err == nil {
		w.samples = append(w.samples, f)
		if len(w.samples) > maxSamples {
			w.samples = w.samples[len(w.samples)-maxSamples:]
		}
	}
	w.mu.Unlock()

	w.publish(events.BalanceUpdated, models.BalanceData{Account: account, Balance: balance})
	return true
}

func (w *Watcher) storeHistory(account string, history models.TransactionHistory) bool {
	if history == nil {
		history = models.TransactionHistory{}
	}

	w.mu.Lock()
	if !w.ownsLocked(account) {
		w.mu.Unlock()
		log.Watcher.Debug().Str("account", account).Msg("dropping stale history")
		return false
	}
	w.history = history
	w.lastUpdate = time.Now()
	w.mu.Unlock()

	w.publish(events.HistoryUpdated, models.HistoryData{Account: account, Transactions: history})
	return true
}

func (w *Watcher) clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	w.owner = ""
}

func (w *Watcher) resetLocked() {
	w.balance = "0"
	w.history = models.TransactionHistory{}
	w.lastUpdate = time.Time{}
	w.samples = nil
}

func (w *Watcher) notify(level models.NotificationLevel, title, description string) {
	w.metrics.RecordNotification(string(level))
	w.publish(events.Notification, models.Notification{Level: level, Title: title, Description: description})
}

func (w *Watcher) publish(t events.Type, data interface{}) {
	w.bus.Publish(events.Event{Type: t, Data: data})
}

// Session returns the current session.
func (w *Watcher) Session() models.Session {
	return w.sessions.Session()
}

// Account returns the connected account, or "" when disconnected.
func (w *Watcher) Account() string {
	return w.sessions.Session().Account
}

// Balance returns the last fetched balance, "0" when disconnected.
func (w *Watcher) Balance() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance
}

// History returns a copy of the last fetched history.
func (w *Watcher) History() models.TransactionHistory {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append(models.TransactionHistory{}, w.history...)
}

// Samples returns the balance series of the connected account.
func (w *Watcher) Samples() []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]float64(nil), w.samples...)
}

// Snapshot returns the full dashboard state.
func (w *Watcher) Snapshot() models.Snapshot {
	sess := w.sessions.Session()
	w.mu.RLock()
	defer w.mu.RUnlock()
	return models.Snapshot{
		Session:    sess,
		Balance:    w.balance,
		History:    append(models.TransactionHistory{}, w.history...),
		LastUpdate: w.lastUpdate,
	}
}
