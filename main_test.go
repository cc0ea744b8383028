package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"walletdash/pkg/chain"
	"walletdash/pkg/models"
	"walletdash/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const account = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

// newNode fakes a wallet JSON-RPC endpoint answering with fixed results.
func newNode(t *testing.T, results map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if res, ok := results[req.Method]; ok {
			resp["result"] = res
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func sepoliaNode(t *testing.T) *httptest.Server {
	return newNode(t, map[string]interface{}{
		"eth_chainId":         "0xaa36a7",
		"eth_blockNumber":     "0x64",
		"eth_accounts":        []string{account},
		"eth_requestAccounts": []string{account},
		"eth_getBalance":      "0x14d1120d7b160000",
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	cfg := filepath.Join(t.TempDir(), "walletdash.json")
	err := app.RunContext(context.Background(), append([]string{"walletdash", "--config", cfg}, args...))
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	defer func() { Version = "dev" }()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "walletdash version 1.2.3\n", out)
}

func TestNetworksCommand(t *testing.T) {
	out, err := run(t, "--json", "networks")
	require.NoError(t, err)

	var nets []session.Network
	require.NoError(t, json.Unmarshal([]byte(out), &nets))
	require.Len(t, nets, 3)
	assert.Equal(t, int64(1), nets[0].ID)

	out, err = run(t, "networks")
	require.NoError(t, err)
	assert.Contains(t, out, "https://sepolia.etherscan.io")
}

func TestCheckCommand(t *testing.T) {
	node := sepoliaNode(t)

	out, err := run(t, "--provider", node.URL, "--json", "check")
	require.NoError(t, err)

	var report models.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Reachable)
	assert.True(t, report.Supported)
	assert.Equal(t, int64(11155111), report.NetworkID)
	assert.Equal(t, "Sepolia Testnet", report.NetworkName)
	assert.Equal(t, uint64(100), report.HeadBlock)
	assert.Equal(t, []string{account}, report.Accounts)
	assert.Empty(t, report.Errors)
}

func TestCheckCommand_UnsupportedNetwork(t *testing.T) {
	node := newNode(t, map[string]interface{}{
		"eth_chainId":         "0x3e7",
		"eth_blockNumber":     "0x1",
		"eth_accounts":        []string{account},
		"eth_requestAccounts": []string{account},
	})

	out, err := run(t, "--provider", node.URL, "check")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "Network:   999 (unsupported)")
	assert.Contains(t, out, "unsupported network 999")
}

func TestCheckCommand_NoProvider(t *testing.T) {
	out, err := run(t, "--json", "check")
	assert.ErrorIs(t, err, errCheckFailed)

	var report models.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Reachable)
	assert.NotEmpty(t, report.Errors)
	assert.Equal(t, session.SupportedIDs(), report.SupportedIDs)
}

func TestBalanceCommand(t *testing.T) {
	node := sepoliaNode(t)

	out, err := run(t, "--provider", node.URL, "balance", account)
	require.NoError(t, err)
	assert.Equal(t, "1.5 ETH\n", out)

	_, err = run(t, "--provider", node.URL, "balance", "0x123")
	assert.ErrorIs(t, err, chain.ErrInvalidAddress)

	_, err = run(t, "--provider", node.URL, "balance")
	assert.Error(t, err)
}

func TestSendCommand_InvalidAmount(t *testing.T) {
	node := sepoliaNode(t)

	_, err := run(t, "--provider", node.URL, "send", "--to", account, "--amount", "0")
	assert.ErrorIs(t, err, chain.ErrInvalidAmount)
}

func TestInvalidProviderURL(t *testing.T) {
	_, err := run(t, "--provider", "ftp://example.com", "networks")
	// networks does not need the provider, so it still works.
	require.NoError(t, err)

	_, err = run(t, "--provider", "ftp://example.com", "check")
	assert.Error(t, err)
}
