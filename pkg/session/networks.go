package session

import (
	"fmt"
	"sort"
	"strings"
)

// Network is an allow-listed chain.
type Network struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ExplorerURL string `json:"explorer_url"`
}

var supportedNetworks = map[int64]Network{
	1:        {ID: 1, Name: "Ethereum Mainnet", ExplorerURL: "https://etherscan.io"},
	5:        {ID: 5, Name: "Goerli Testnet", ExplorerURL: "https://goerli.etherscan.io"},
	11155111: {ID: 11155111, Name: "Sepolia Testnet", ExplorerURL: "https://sepolia.etherscan.io"},
}

// Lookup returns the allow-listed network with the given id.
func Lookup(id int64) (Network, bool) {
	n, ok := supportedNetworks[id]
	return n, ok
}

// SupportedNetworks returns the allow-list ordered by network id.
func SupportedNetworks() []Network {
	out := make([]Network, 0, len(supportedNetworks))
	for _, n := range supportedNetworks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SupportedNames returns the allow-listed network names ordered by id.
func SupportedNames() []string {
	nets := SupportedNetworks()
	names := make([]string, len(nets))
	for i, n := range nets {
		names[i] = n.Name
	}
	return names
}

// SupportedIDs returns the allow-listed network ids in ascending order.
func SupportedIDs() []int64 {
	nets := SupportedNetworks()
	ids := make([]int64, len(nets))
	for i, n := range nets {
		ids[i] = n.ID
	}
	return ids
}

// TxURL links a transaction hash on the network's block explorer. It
// returns "" for networks outside the allow-list.
func TxURL(networkID int64, hash string) string {
	n, ok := Lookup(networkID)
	if !ok || hash == "" {
		return ""
	}
	return n.ExplorerURL + "/tx/" + hash
}

// AddressURL links an account on the network's block explorer.
func AddressURL(networkID int64, addr string) string {
	n, ok := Lookup(networkID)
	if !ok || addr == "" {
		return ""
	}
	return n.ExplorerURL + "/address/" + addr
}

// UnsupportedNetworkError is returned by Connect when the wallet is on a
// network outside the allow-list.
type UnsupportedNetworkError struct {
	NetworkID int64
	Supported []string
}

func (e *UnsupportedNetworkError) Error() string {
	return fmt.Sprintf("unsupported network %d: switch your wallet to one of %s",
		e.NetworkID, strings.Join(e.Supported, ", "))
}
