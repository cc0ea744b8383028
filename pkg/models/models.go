package models

import (
	"math/big"
	"time"
)

// Session describes the active wallet connection. The zero value is the
// disconnected session.
type Session struct {
	Account     string `json:"account,omitempty"`
	NetworkID   int64  `json:"network_id,omitempty"`
	NetworkName string `json:"network_name,omitempty"`
	Connected   bool   `json:"connected"`
}

// TransferRequest is a native-currency transfer typed in by the user.
type TransferRequest struct {
	Recipient    string `json:"recipient"`
	AmountNative string `json:"amount"`
}

// TransactionRecord holds a transaction touching the connected account.
type TransactionRecord struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"` // empty for contract creation
	Value       *big.Int `json:"value"`
	BlockNumber uint64   `json:"block_number"`
	GasLimit    uint64   `json:"gas_limit"`
	GasPrice    *big.Int `json:"gas_price,omitempty"`
	Nonce       uint64   `json:"nonce"`
}

// TransactionHistory is ordered oldest block first, then by position in block.
type TransactionHistory []TransactionRecord

// Block is a provider-neutral view of a block and its transactions.
type Block struct {
	Number       uint64
	Hash         string
	Transactions []TransactionRecord
}

// NotificationLevel classifies a user-visible notification.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification is a transient message for the presentation layer.
type Notification struct {
	Level       NotificationLevel `json:"level"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
}

// BalanceData is published when the connected account's balance is fetched.
type BalanceData struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// HistoryData is published when the connected account's history is fetched.
type HistoryData struct {
	Account      string             `json:"account"`
	Transactions TransactionHistory `json:"transactions"`
}

// TransferData is published after the provider accepted a transfer.
type TransferData struct {
	Request TransferRequest `json:"request"`
	Hash    string          `json:"hash"`
}

// NetworkData is published when the provider switched networks.
type NetworkData struct {
	NetworkID int64 `json:"network_id"`
}

// Snapshot is the dashboard state as read by the presentation layer.
type Snapshot struct {
	Session    Session            `json:"session"`
	Balance    string             `json:"balance"`
	History    TransactionHistory `json:"history"`
	LastUpdate time.Time          `json:"last_update"`
}

// CheckReport holds the result of probing the configured provider.
type CheckReport struct {
	ConfigPath   string   `json:"config_path"`
	ProviderURL  string   `json:"provider_url"`
	Reachable    bool     `json:"reachable"`
	NetworkID    int64    `json:"network_id,omitempty"`
	NetworkName  string   `json:"network_name,omitempty"`
	Supported    bool     `json:"supported"`
	Accounts     []string `json:"accounts,omitempty"`
	HeadBlock    uint64   `json:"head_block,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	SupportedIDs []int64  `json:"supported_network_ids"`
}
