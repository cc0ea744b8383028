// Package chain reads balances and recent transactions for an account and
// submits native transfers, always through the currently injected provider.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"walletdash/pkg/log"
	"walletdash/pkg/metrics"
	"walletdash/pkg/models"
	"walletdash/pkg/provider"
	"walletdash/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
)

// HistoryWindow is the number of consecutive blocks, ending at the head,
// scanned for transactions.
const HistoryWindow = 11

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// Client is stateless. The provider is looked up on every call so a
// replaced provider takes effect immediately.
type Client struct {
	source  provider.Source
	metrics *metrics.Metrics
}

// NewClient creates a Client. m may be nil.
func NewClient(source provider.Source, m *metrics.Metrics) *Client {
	return &Client{source: source, metrics: m}
}

// GetBalance returns the account balance in whole units, e.g. "1.5".
func (c *Client) GetBalance(ctx context.Context, account string) (string, error) {
	if err := ValidateAddress(account); err != nil {
		return "", err
	}
	p, err := c.source.Get()
	if err != nil {
		return "", err
	}

	start := time.Now()
	wei, err := p.BalanceAt(ctx, account)
	c.metrics.RecordProviderCall("balance", time.Since(start).Seconds(), err)
	if err != nil {
		return "", fmt.Errorf("fetching balance: %w", err)
	}
	return utils.FormatEther(wei), nil
}

// SendTransaction validates req and hands the transfer to the provider for
// signing and broadcast. It returns the transaction hash without waiting for
// confirmation.
func (c *Client) SendTransaction(ctx context.Context, req models.TransferRequest) (string, error) {
	if err := ValidateAddress(req.Recipient); err != nil {
		return "", err
	}
	value, err := utils.ParseEther(req.AmountNative)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if value.Sign() <= 0 {
		return "", fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	p, err := c.source.Get()
	if err != nil {
		return "", err
	}

	start := time.Now()
	hash, err := p.SendTransaction(ctx, common.HexToAddress(req.Recipient).Hex(), value)
	c.metrics.RecordProviderCall("send_transaction", time.Since(start).Seconds(), err)
	if err != nil {
		return "", fmt.Errorf("sending transaction: %w", err)
	}

	log.Chain.Info().
		Str("to", req.Recipient).
		Str("amount", req.AmountNative).
		Str("hash", hash).
		Msg("transaction submitted")
	return hash, nil
}

// GetTransactionHistory scans the last HistoryWindow blocks and returns the
// transactions sent from or to account, oldest block first.
func (c *Client) GetTransactionHistory(ctx context.Context, account string) (models.TransactionHistory, error) {
	if err := ValidateAddress(account); err != nil {
		return nil, err
	}
	p, err := c.source.Get()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	head, err := p.BlockNumber(ctx)
	c.metrics.RecordProviderCall("block_number", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("fetching head block: %w", err)
	}

	from, to := Window(head)
	history := models.TransactionHistory{}
	for n := from; n <= to; n++ {
		start := time.Now()
		block, err := p.BlockByNumber(ctx, n)
		c.metrics.RecordProviderCall("block", time.Since(start).Seconds(), err)
		if err != nil {
			return nil, fmt.Errorf("fetching block %d: %w", n, err)
		}
		if block == nil {
			continue
		}
		for _, tx := range block.Transactions {
			if strings.EqualFold(tx.From, account) || strings.EqualFold(tx.To, account) {
				history = append(history, tx)
			}
		}
	}

	log.Chain.Debug().
		Str("account", account).
		Uint64("from_block", from).
		Uint64("to_block", to).
		Int("matches", len(history)).
		Msg("history scan complete")
	return history, nil
}

// Window returns the inclusive block range scanned for a given head.
func Window(head uint64) (from, to uint64) {
	if head >= HistoryWindow-1 {
		return head - (HistoryWindow - 1), head
	}
	return 0, head
}

// ValidateAddress accepts 40 hex digits with an optional 0x prefix. Mixed
// case input must carry a valid EIP-55 checksum.
func ValidateAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if digits == strings.ToLower(digits) || digits == strings.ToUpper(digits) {
		return nil
	}
	if common.HexToAddress(addr).Hex()[2:] != digits {
		return fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, addr)
	}
	return nil
}
