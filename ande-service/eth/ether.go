package eth

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ETH is an amount of native value, denominated in wei.
// It is a value type: the zero value is zero wei.
type ETH struct {
	v uint256.Int
}

var (
	ZeroWei    = ETH{}
	OneWei     = WeiU64(1)
	MaxU256Wei = ETH{v: *new(uint256.Int).SetAllOne()}
)

const (
	gweiDecimals  = 9
	etherDecimals = 18
)

var ErrInvalidAmount = errors.New("invalid ether amount")

func WeiU64(wei uint64) ETH {
	var out ETH
	out.v.SetUint64(wei)
	return out
}

func WeiU256(wei *uint256.Int) ETH {
	var out ETH
	out.v.Set(wei)
	return out
}

// WeiBig converts a big integer. Negative values and values exceeding 256 bits panic,
// since these can only come from a programming error.
func WeiBig(wei *big.Int) ETH {
	var out ETH
	if wei.Sign() < 0 {
		panic(fmt.Errorf("negative wei amount: %s", wei))
	}
	if out.v.SetFromBig(wei) {
		panic(fmt.Errorf("wei amount overflows 256 bits: %s", wei))
	}
	return out
}

func GWei(gwei uint64) ETH {
	return WeiU64(gwei).mulPow10(gweiDecimals)
}

func Ether(ether uint64) ETH {
	return WeiU64(ether).mulPow10(etherDecimals)
}

func (e ETH) mulPow10(decimals uint64) ETH {
	var out ETH
	exp := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(decimals))
	out.v.Mul(&e.v, exp)
	return out
}

// ParseEther parses a decimal ether string such as "0.08" or "100".
func ParseEther(s string) (ETH, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ETH{}, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > etherDecimals {
		return ETH{}, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, etherDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", etherDecimals-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return ETH{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return ZeroWei, nil
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return ETH{}, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	return WeiU256(v), nil
}

func (e ETH) Add(v ETH) ETH {
	out, overflow := e.AddOverflow(v)
	if overflow {
		panic("ETH add overflow")
	}
	return out
}

func (e ETH) AddOverflow(v ETH) (out ETH, overflow bool) {
	_, overflow = out.v.AddOverflow(&e.v, &v.v)
	return
}

func (e ETH) Sub(v ETH) ETH {
	out, underflow := e.SubUnderflow(v)
	if underflow {
		panic("ETH sub underflow")
	}
	return out
}

func (e ETH) SubUnderflow(v ETH) (out ETH, underflow bool) {
	_, underflow = out.v.SubOverflow(&e.v, &v.v)
	return
}

// MulDiv computes e * num / den, rounding down.
// It reports overflow if the intermediate product does not fit in 512 bits
// or the result does not fit in 256 bits.
func (e ETH) MulDiv(num, den uint64) (out ETH, overflow bool) {
	if den == 0 {
		panic("ETH MulDiv by zero")
	}
	_, overflow = out.v.MulDivOverflow(&e.v, uint256.NewInt(num), uint256.NewInt(den))
	return
}

func (e ETH) Cmp(v ETH) int {
	return e.v.Cmp(&v.v)
}

func (e ETH) Gt(v ETH) bool {
	return e.v.Gt(&v.v)
}

func (e ETH) Lt(v ETH) bool {
	return e.v.Lt(&v.v)
}

func (e ETH) IsZero() bool {
	return e.v.IsZero()
}

func (e ETH) ToBig() *big.Int {
	return e.v.ToBig()
}

func (e ETH) ToU256() *uint256.Int {
	return new(uint256.Int).Set(&e.v)
}

// WeiFloat returns the amount as a float, for metrics.
func (e ETH) WeiFloat() float64 {
	f, _ := new(big.Float).SetInt(e.v.ToBig()).Float64()
	return f
}

// EtherString formats the amount in ether, trimming trailing zero decimals.
func (e ETH) EtherString() string {
	s := e.v.Dec()
	if len(s) <= etherDecimals {
		s = strings.Repeat("0", etherDecimals-len(s)+1) + s
	}
	whole, frac := s[:len(s)-etherDecimals], strings.TrimRight(s[len(s)-etherDecimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func (e ETH) String() string {
	return e.v.Dec() + " wei"
}

func (e ETH) MarshalText() ([]byte, error) {
	return []byte(e.v.Dec()), nil
}

func (e *ETH) UnmarshalText(text []byte) error {
	v, err := uint256.FromDecimal(string(text))
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidAmount, text, err)
	}
	e.v = *v
	return nil
}
