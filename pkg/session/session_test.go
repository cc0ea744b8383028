package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"walletdash/pkg/events"
	"walletdash/pkg/models"
	"walletdash/pkg/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	bob   = "0x1234567890123456789012345678901234567890"
)

type registered struct {
	kind    provider.EventKind
	handler provider.Handler
}

// fakeWallet records handlers so tests can fire provider events directly.
type fakeWallet struct {
	mu         sync.Mutex
	accounts   []string
	chainID    int64
	requestErr error
	handlers   map[provider.SubscriptionHandle]registered
	next       int
}

func newFakeWallet(chainID int64, accounts ...string) *fakeWallet {
	return &fakeWallet{
		accounts: accounts,
		chainID:  chainID,
		handlers: make(map[provider.SubscriptionHandle]registered),
	}
}

func (f *fakeWallet) RequestAccounts(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return append([]string(nil), f.accounts...), nil
}

func (f *fakeWallet) ChainID(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainID, nil
}

func (f *fakeWallet) SendTransaction(context.Context, string, *big.Int) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeWallet) BalanceAt(context.Context, string) (*big.Int, error) {
	return new(big.Int), nil
}

func (f *fakeWallet) BlockNumber(context.Context) (uint64, error) { return 0, nil }

func (f *fakeWallet) BlockByNumber(context.Context, uint64) (*models.Block, error) {
	return nil, nil
}

func (f *fakeWallet) Subscribe(kind provider.EventKind, h provider.Handler) (provider.SubscriptionHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	handle := provider.SubscriptionHandle(fmt.Sprintf("sub-%d", f.next))
	f.handlers[handle] = registered{kind: kind, handler: h}
	return handle, nil
}

func (f *fakeWallet) Unsubscribe(h provider.SubscriptionHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, h)
}

func (f *fakeWallet) fire(ev provider.Event) {
	for _, h := range f.handlersFor(ev.Kind) {
		h(ev)
	}
}

func (f *fakeWallet) handlersFor(kind provider.EventKind) []provider.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hs []provider.Handler
	for _, r := range f.handlers {
		if r.kind == kind {
			hs = append(hs, r.handler)
		}
	}
	return hs
}

func (f *fakeWallet) listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

func setup(t *testing.T, w *fakeWallet) (*Manager, events.Subscriber) {
	t.Helper()
	bus := events.NewBus()
	sub := bus.Subscribe()
	t.Cleanup(func() { bus.Unsubscribe(sub) })
	var injected *provider.Injected
	if w == nil {
		injected = provider.NewInjected(nil)
	} else {
		injected = provider.NewInjected(w)
	}
	return NewManager(injected, bus, nil), sub
}

func nextEvent(t *testing.T, sub events.Subscriber) events.Event {
	t.Helper()
	select {
	case ev := <-sub:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func assertNoEvent(t *testing.T, sub events.Subscriber) {
	t.Helper()
	select {
	case ev := <-sub:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func TestConnect(t *testing.T) {
	w := newFakeWallet(11155111, alice, bob)
	m, sub := setup(t, w)

	sess, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Session{
		Account:     alice,
		NetworkID:   11155111,
		NetworkName: "Sepolia Testnet",
		Connected:   true,
	}, sess)
	assert.Equal(t, sess, m.Session())
	assert.Equal(t, 2, w.listeners())

	ev := nextEvent(t, sub)
	assert.Equal(t, events.SessionConnected, ev.Type)

	ev = nextEvent(t, sub)
	require.Equal(t, events.Notification, ev.Type)
	n := ev.Data.(models.Notification)
	assert.Equal(t, models.LevelSuccess, n.Level)
	assert.Contains(t, n.Description, "0xAb58...eC9B")
}

func TestConnect_Reconnect_ReplacesListeners(t *testing.T) {
	w := newFakeWallet(1, alice)
	m, _ := setup(t, w)

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	_, err = m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, w.listeners())
}

func TestConnect_Errors(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		m, sub := setup(t, nil)
		_, err := m.Connect(context.Background())
		assert.ErrorIs(t, err, provider.ErrProviderUnavailable)
		assert.False(t, m.Session().Connected)
		assertNoEvent(t, sub)
	})

	t.Run("unsupported network", func(t *testing.T) {
		w := newFakeWallet(999, alice)
		m, sub := setup(t, w)
		sess, err := m.Connect(context.Background())

		var unsupported *UnsupportedNetworkError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, int64(999), unsupported.NetworkID)
		assert.Equal(t, []string{"Ethereum Mainnet", "Goerli Testnet", "Sepolia Testnet"}, unsupported.Supported)
		assert.Contains(t, err.Error(), "Sepolia Testnet")
		assert.False(t, sess.Connected)
		assert.Equal(t, models.Session{}, m.Session())
		assert.Equal(t, 0, w.listeners())
		assertNoEvent(t, sub)
	})

	t.Run("no accounts", func(t *testing.T) {
		w := newFakeWallet(1)
		m, _ := setup(t, w)
		_, err := m.Connect(context.Background())
		assert.ErrorIs(t, err, ErrNoAccounts)
		assert.False(t, m.Session().Connected)
	})

	t.Run("user rejected", func(t *testing.T) {
		w := newFakeWallet(1, alice)
		w.requestErr = &provider.Error{Op: "request accounts", Err: provider.ErrRejected}
		m, _ := setup(t, w)
		_, err := m.Connect(context.Background())
		assert.ErrorIs(t, err, provider.ErrRejected)
		assert.False(t, m.Session().Connected)
	})
}

func TestAccountsChanged(t *testing.T) {
	w := newFakeWallet(1, alice)
	m, sub := setup(t, w)
	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	nextEvent(t, sub)
	nextEvent(t, sub)

	w.fire(provider.Event{Kind: provider.AccountsChanged, Accounts: []string{bob, alice}})
	assert.Equal(t, bob, m.Session().Account)
	assert.True(t, m.Session().Connected)
	ev := nextEvent(t, sub)
	assert.Equal(t, events.AccountChanged, ev.Type)
	assert.Equal(t, bob, ev.Data.(models.Session).Account)

	w.fire(provider.Event{Kind: provider.AccountsChanged, Accounts: nil})
	assert.Equal(t, models.Session{}, m.Session())
	assert.Equal(t, 0, w.listeners(), "listeners are dropped when all accounts are revoked")
	ev = nextEvent(t, sub)
	assert.Equal(t, events.SessionDisconnected, ev.Type)
}

func TestChainChanged_ResetsSession(t *testing.T) {
	w := newFakeWallet(1, alice)
	m, sub := setup(t, w)
	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	nextEvent(t, sub)
	nextEvent(t, sub)

	w.fire(provider.Event{Kind: provider.ChainChanged, ChainID: 5})
	assert.False(t, m.Session().Connected)
	assert.Equal(t, 0, w.listeners())

	ev := nextEvent(t, sub)
	assert.Equal(t, events.NetworkChanged, ev.Type)
	assert.Equal(t, models.NetworkData{NetworkID: 5}, ev.Data)
}

func TestStaleListenerIgnored(t *testing.T) {
	w := newFakeWallet(1, alice)
	m, sub := setup(t, w)
	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	stale := w.handlersFor(provider.AccountsChanged)
	require.Len(t, stale, 1)

	_, err = m.Connect(context.Background())
	require.NoError(t, err)
	for len(sub) > 0 {
		<-sub
	}

	stale[0](provider.Event{Kind: provider.AccountsChanged, Accounts: []string{bob}})
	assert.Equal(t, alice, m.Session().Account)
	assertNoEvent(t, sub)
}

func TestDisconnect_Idempotent(t *testing.T) {
	w := newFakeWallet(1, alice)
	m, sub := setup(t, w)
	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	nextEvent(t, sub)
	nextEvent(t, sub)

	m.Disconnect()
	first := m.Session()
	m.Disconnect()

	assert.Equal(t, models.Session{}, first)
	assert.Equal(t, first, m.Session())
	assert.Equal(t, 0, w.listeners())

	ev := nextEvent(t, sub)
	assert.Equal(t, events.SessionDisconnected, ev.Type)
	assertNoEvent(t, sub)
}

func TestSupportedNetworks(t *testing.T) {
	assert.Equal(t, []int64{1, 5, 11155111}, SupportedIDs())

	n, ok := Lookup(11155111)
	require.True(t, ok)
	assert.Equal(t, "Sepolia Testnet", n.Name)
	_, ok = Lookup(137)
	assert.False(t, ok)

	assert.Equal(t, "https://etherscan.io/tx/0xabc", TxURL(1, "0xabc"))
	assert.Equal(t, "https://sepolia.etherscan.io/address/"+alice, AddressURL(11155111, alice))
	assert.Empty(t, TxURL(999, "0xabc"))
}
