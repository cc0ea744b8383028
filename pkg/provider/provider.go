// Package provider defines the wallet provider capability the dashboard is
// handed at startup, and a JSON-RPC implementation of it.
package provider

import (
	"context"
	"io"
	"math/big"
	"sync"

	"walletdash/pkg/models"
)

// EventKind names a provider change notification.
type EventKind string

const (
	AccountsChanged EventKind = "accountsChanged"
	ChainChanged    EventKind = "chainChanged"
)

// Event is a change notification fired by the provider.
type Event struct {
	Kind     EventKind
	Accounts []string // AccountsChanged
	ChainID  int64    // ChainChanged
}

// Handler receives provider events. Handlers are invoked one at a time in
// emission order.
type Handler func(Event)

// SubscriptionHandle identifies a registered handler.
type SubscriptionHandle string

// Provider is the wallet capability: account access, network query,
// signing and broadcast, chain reads and change notifications.
type Provider interface {
	// RequestAccounts asks the wallet for account access. It may block
	// until the user approves or rejects out of band.
	RequestAccounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (int64, error)
	// SendTransaction signs and broadcasts a native transfer from the
	// wallet's selected account. It returns once the wallet hands back the
	// transaction hash, without waiting for inclusion.
	SendTransaction(ctx context.Context, to string, value *big.Int) (string, error)
	BalanceAt(ctx context.Context, account string) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	// BlockByNumber returns nil, nil when the block does not exist.
	BlockByNumber(ctx context.Context, number uint64) (*models.Block, error)
	Subscribe(kind EventKind, h Handler) (SubscriptionHandle, error)
	Unsubscribe(h SubscriptionHandle)
}

// Source hands out the currently injected provider.
type Source interface {
	Get() (Provider, error)
}

// Injected is the process-wide slot holding the injected provider. An
// empty slot means no wallet is available.
type Injected struct {
	mu sync.RWMutex
	p  Provider
}

// NewInjected returns a slot holding p, which may be nil.
func NewInjected(p Provider) *Injected {
	return &Injected{p: p}
}

// Get returns the injected provider or ErrProviderUnavailable.
func (i *Injected) Get() (Provider, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.p == nil {
		return nil, ErrProviderUnavailable
	}
	return i.p, nil
}

// Replace installs p and closes the previous provider if it holds
// resources.
func (i *Injected) Replace(p Provider) {
	i.mu.Lock()
	old := i.p
	i.p = p
	i.mu.Unlock()
	closeProvider(old)
}

// Close empties the slot and releases the provider.
func (i *Injected) Close() error {
	i.mu.Lock()
	old := i.p
	i.p = nil
	i.mu.Unlock()
	return closeProvider(old)
}

func closeProvider(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
