package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"walletdash/pkg/log"
	"walletdash/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

var DefaultPollInterval = 2 * time.Second
var PollTimeout = 10 * time.Second

// RPCProvider talks to a wallet JSON-RPC endpoint that holds the keys: a
// wallet daemon, a signer proxy or a dev node with unlocked accounts.
// Account and network changes are detected by polling while at least one
// handler is subscribed.
type RPCProvider struct {
	url          string
	rpc          *gethrpc.Client
	eth          *ethclient.Client
	emitter      *Emitter
	pollInterval time.Duration
	kick         chan struct{}
	stop         chan struct{}
	closeOnce    sync.Once

	mu           sync.Mutex
	chainID      *big.Int
	primed       bool
	lastAccounts []string
	lastChainID  int64
}

// Dial connects to a wallet endpoint. An empty URL means no wallet is
// injected.
func Dial(ctx context.Context, rawURL string, pollInterval time.Duration) (*RPCProvider, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrProviderUnavailable
	}
	client, err := gethrpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrProviderUnavailable, rawURL, err)
	}
	return NewRPCProvider(rawURL, client, pollInterval), nil
}

// NewRPCProvider wraps an existing client.
func NewRPCProvider(url string, client *gethrpc.Client, pollInterval time.Duration) *RPCProvider {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	p := &RPCProvider{
		url:          url,
		rpc:          client,
		eth:          ethclient.NewClient(client),
		emitter:      NewEmitter(),
		pollInterval: pollInterval,
		kick:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
	}
	go p.watchLoop()
	return p
}

// URL returns the endpoint the provider was dialed with.
func (p *RPCProvider) URL() string { return p.url }

// Close stops change polling and releases the connection.
func (p *RPCProvider) Close() error {
	p.closeOnce.Do(func() {
		close(p.stop)
		p.emitter.Close()
		p.rpc.Close()
	})
	return nil
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var raw []common.Address
	err := p.rpc.CallContext(ctx, &raw, "eth_requestAccounts")
	if errorCode(err) == codeMethodNotFound {
		// Plain nodes have no permission prompt.
		return p.accounts(ctx)
	}
	if err != nil {
		return nil, wrap("request accounts", err)
	}
	return hexAddresses(raw), nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (int64, error) {
	id, err := p.eth.ChainID(ctx)
	if err != nil {
		return 0, wrap("chain id", err)
	}
	return id.Int64(), nil
}

func (p *RPCProvider) SendTransaction(ctx context.Context, to string, value *big.Int) (string, error) {
	accounts, err := p.accounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", &Error{Op: "send transaction", Err: ErrNoSigner}
	}

	args := map[string]interface{}{
		"from":  common.HexToAddress(accounts[0]),
		"to":    common.HexToAddress(to),
		"value": (*hexutil.Big)(value),
	}
	var hash common.Hash
	if err := p.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return "", wrap("send transaction", err)
	}
	return hash.Hex(), nil
}

func (p *RPCProvider) BalanceAt(ctx context.Context, account string) (*big.Int, error) {
	bal, err := p.eth.BalanceAt(ctx, common.HexToAddress(account), nil)
	if err != nil {
		return nil, wrap("balance", err)
	}
	return bal, nil
}

func (p *RPCProvider) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := p.eth.BlockNumber(ctx)
	if err != nil {
		return 0, wrap("block number", err)
	}
	return n, nil
}

func (p *RPCProvider) BlockByNumber(ctx context.Context, number uint64) (*models.Block, error) {
	chainID, err := p.signerChainID(ctx)
	if err != nil {
		return nil, err
	}
	block, err := p.eth.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("block", err)
	}

	signer := types.LatestSignerForChainID(chainID)
	out := &models.Block{Number: block.NumberU64(), Hash: block.Hash().Hex()}
	for _, tx := range block.Transactions() {
		from, err := types.Sender(signer, tx)
		if err != nil {
			log.Provider.Debug().Err(err).Str("tx", tx.Hash().Hex()).Msg("skipping transaction with unrecoverable sender")
			continue
		}
		rec := models.TransactionRecord{
			Hash:        tx.Hash().Hex(),
			From:        from.Hex(),
			Value:       tx.Value(),
			BlockNumber: block.NumberU64(),
			GasLimit:    tx.Gas(),
			GasPrice:    tx.GasPrice(),
			Nonce:       tx.Nonce(),
		}
		if tx.To() != nil {
			rec.To = tx.To().Hex()
		}
		out.Transactions = append(out.Transactions, rec)
	}
	return out, nil
}

func (p *RPCProvider) Subscribe(kind EventKind, h Handler) (SubscriptionHandle, error) {
	if kind != AccountsChanged && kind != ChainChanged {
		return "", fmt.Errorf("unknown provider event %q", kind)
	}
	if h == nil {
		return "", errors.New("nil handler")
	}
	handle := p.emitter.Subscribe(kind, h)
	select {
	case p.kick <- struct{}{}:
	default:
	}
	return handle, nil
}

func (p *RPCProvider) Unsubscribe(h SubscriptionHandle) {
	p.emitter.Unsubscribe(h)
}

func (p *RPCProvider) accounts(ctx context.Context) ([]string, error) {
	var raw []common.Address
	if err := p.rpc.CallContext(ctx, &raw, "eth_accounts"); err != nil {
		return nil, wrap("accounts", err)
	}
	return hexAddresses(raw), nil
}

func (p *RPCProvider) signerChainID(ctx context.Context) (*big.Int, error) {
	p.mu.Lock()
	cached := p.chainID
	p.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	id, err := p.eth.ChainID(ctx)
	if err != nil {
		return nil, wrap("chain id", err)
	}
	p.mu.Lock()
	p.chainID = id
	p.mu.Unlock()
	return id, nil
}

func (p *RPCProvider) watchLoop() {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		case <-p.kick:
		}
		if p.emitter.Len() == 0 {
			p.mu.Lock()
			p.primed = false
			p.mu.Unlock()
			continue
		}
		p.poll()
	}
}

// poll compares the wallet's accounts and network with the last observed
// values and emits an event for each change. The first poll after a
// subscription only records the baseline.
func (p *RPCProvider) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), PollTimeout)
	defer cancel()

	accounts, err := p.accounts(ctx)
	if err != nil {
		log.Provider.Debug().Err(err).Msg("polling accounts failed")
		return
	}
	id, err := p.eth.ChainID(ctx)
	if err != nil {
		log.Provider.Debug().Err(err).Msg("polling chain id failed")
		return
	}
	chainID := id.Int64()

	p.mu.Lock()
	if !p.primed {
		p.primed = true
		p.lastAccounts = accounts
		p.lastChainID = chainID
		p.mu.Unlock()
		return
	}
	accountsChanged := !equalAccounts(p.lastAccounts, accounts)
	chainChanged := chainID != p.lastChainID
	p.lastAccounts = accounts
	p.lastChainID = chainID
	if chainChanged {
		p.chainID = nil
	}
	p.mu.Unlock()

	if chainChanged {
		log.Provider.Info().Int64("chain_id", chainID).Msg("network changed")
		p.emitter.Emit(Event{Kind: ChainChanged, ChainID: chainID})
	}
	if accountsChanged {
		log.Provider.Info().Int("accounts", len(accounts)).Msg("accounts changed")
		p.emitter.Emit(Event{Kind: AccountsChanged, Accounts: accounts})
	}
}

func hexAddresses(raw []common.Address) []string {
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		out = append(out, a.Hex())
	}
	return out
}

func equalAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
