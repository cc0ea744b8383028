package utils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"", 5, ""},
		{"abc", 2, "ab"},
		{"abc", 3, "abc"},
	}

	for _, tt := range tests {
		result := TruncateString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("TruncateString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0xAb58...eC9B", ShortAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"))
	assert.Equal(t, "0x1234", ShortAddress("0x1234"))
	assert.Equal(t, "", ShortAddress(""))
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"123", "123"},
		{"1234", "1,234"},
		{"123456", "123,456"},
		{"1234567", "1,234,567"},
		{"1234.56", "1,234.56"},
		{"-1234", "-1,234"},
		{"", ""},
	}

	for _, tt := range tests {
		result := AddCommas(tt.input)
		if result != tt.expected {
			t.Errorf("AddCommas(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func mustInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad integer literal %q", s)
	return v
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei      string
		expected string
	}{
		{"1500000000000000000", "1.5"},
		{"1000000000000000000", "1.0"},
		{"0", "0.0"},
		{"1", "0.000000000000000001"},
		{"123456789000000000000000", "123456.789"},
		{"-2500000000000000000", "-2.5"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatEther(mustInt(t, tt.wei)), "wei %s", tt.wei)
	}
	assert.Equal(t, "0.0", FormatEther(nil))
}

func TestFormatEther_Deterministic(t *testing.T) {
	v := mustInt(t, "1500000000000000000")
	first := FormatEther(v)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FormatEther(v))
	}
	assert.Equal(t, "1500000000000000000", v.String(), "input must not be mutated")
}

func TestFormatUnits_OtherDecimals(t *testing.T) {
	assert.Equal(t, "500.0", FormatUnits(big.NewInt(500000000), 6))
	assert.Equal(t, "42.0", FormatUnits(big.NewInt(42), 0))
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.5", "1500000000000000000"},
		{"1", "1000000000000000000"},
		{"0", "0"},
		{"-1", "-1000000000000000000"},
		{".5", "500000000000000000"},
		{"5.", "5000000000000000000"},
		{" 0.000000000000000001 ", "1"},
		{"1.0000000000000000000", "1000000000000000000"},
	}

	for _, tt := range tests {
		got, err := ParseEther(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, got.String(), "input %q", tt.input)
	}
}

func TestParseEther_Invalid(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "1.2.3", ".", "-", "1e18", "0x10", "1,5", "0.0000000000000000001"} {
		_, err := ParseEther(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1.5", "0.1", "123456.789", "0.000000000000000001"} {
		wei, err := ParseEther(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatEther(wei))
	}
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "0", FormatBalance(""))
	assert.Equal(t, "12,345.5", FormatBalance("12345.5"))
}

func TestUnitsMatchChainParams(t *testing.T) {
	one, err := ParseEther("1")
	require.NoError(t, err)
	assert.Equal(t, 0, one.Cmp(big.NewInt(params.Ether)))

	gwei, err := ParseUnits("1", 9)
	require.NoError(t, err)
	assert.Equal(t, 0, gwei.Cmp(big.NewInt(params.GWei)))
	assert.Equal(t, "1.0", FormatUnits(big.NewInt(params.GWei), 9))
}
