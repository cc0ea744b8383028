package utils

import (
	"errors"
	"math/big"
	"strings"
)

// NativeDecimals is the number of decimals of the native currency on every
// allow-listed network.
const NativeDecimals = 18

var (
	errEmptyAmount     = errors.New("empty amount")
	errMalformedAmount = errors.New("malformed amount")
	errTooManyDecimals = errors.New("fractional component exceeds decimals")
)

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

// ShortAddress renders an address as its first 6 and last 4 characters.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

// FormatUnits converts an integer amount of smallest units into a decimal
// string. The conversion is exact; trailing fractional zeros are dropped but
// at least one fractional digit is kept ("1.0", "0.0").
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		value = new(big.Int)
	}
	abs := new(big.Int).Abs(value)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, divisor, new(big.Int))

	fracStr := ""
	if decimals > 0 {
		fracStr = frac.String()
		fracStr = strings.Repeat("0", decimals-len(fracStr)) + fracStr
		fracStr = strings.TrimRight(fracStr, "0")
	}
	if fracStr == "" {
		fracStr = "0"
	}

	sign := ""
	if value.Sign() < 0 {
		sign = "-"
	}
	return sign + whole.String() + "." + fracStr
}

// ParseUnits converts a decimal string into an integer amount of smallest
// units. It rejects more fractional digits than decimals instead of rounding.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyAmount
	}
	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if strings.Contains(frac, ".") || (whole == "" && frac == "") {
		return nil, errMalformedAmount
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, errMalformedAmount
	}
	if hasDot && len(frac) > decimals {
		// Allow trailing zeros beyond the supported precision.
		if strings.TrimRight(frac[decimals:], "0") != "" {
			return nil, errTooManyDecimals
		}
		frac = frac[:decimals]
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, errMalformedAmount
	}
	if negative {
		v.Neg(v)
	}
	return v, nil
}

// FormatEther formats wei as whole ether.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, NativeDecimals)
}

// ParseEther parses a whole-ether decimal string into wei.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, NativeDecimals)
}

// FormatBalance adds thousands separators to a decimal string.
func FormatBalance(s string) string {
	if s == "" {
		return "0"
	}
	return AddCommas(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
