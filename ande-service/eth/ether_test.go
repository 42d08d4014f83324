package eth

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want ETH
	}{
		{"0", ZeroWei},
		{"0.0", ZeroWei},
		{"1", Ether(1)},
		{"100", Ether(100)},
		{"0.1", WeiU64(100_000_000_000_000_000)},
		{"0.08", WeiU64(80_000_000_000_000_000)},
		{".5", WeiU64(500_000_000_000_000_000)},
		{"0.000000000000000001", OneWei},
		{" 2.5 ", WeiU64(2_500_000_000_000_000_000)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "1.2.3", "-1", "0.0000000000000000001"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseEther(bad)
			require.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestEtherString(t *testing.T) {
	require.Equal(t, "0", ZeroWei.EtherString())
	require.Equal(t, "1", Ether(1).EtherString())
	require.Equal(t, "0.1", WeiU64(100_000_000_000_000_000).EtherString())
	require.Equal(t, "0.000000000000000001", OneWei.EtherString())
	require.Equal(t, "12.5", WeiU64(12_500_000_000_000_000_000).EtherString())
}

func TestArithmetic(t *testing.T) {
	require.Equal(t, Ether(3), Ether(1).Add(Ether(2)))
	require.Equal(t, Ether(1), Ether(3).Sub(Ether(2)))

	_, overflow := MaxU256Wei.AddOverflow(OneWei)
	require.True(t, overflow)
	_, underflow := ZeroWei.SubUnderflow(OneWei)
	require.True(t, underflow)

	v, overflow := WeiU64(10_000).MulDiv(10893, 10000)
	require.False(t, overflow)
	require.Equal(t, WeiU64(10_893), v)

	require.True(t, Ether(2).Gt(Ether(1)))
	require.True(t, Ether(1).Lt(Ether(2)))
	require.Equal(t, 0, Ether(1).Cmp(GWei(1_000_000_000)))
	require.Equal(t, big.NewInt(42), WeiU64(42).ToBig())
	require.Equal(t, WeiU64(42), WeiBig(big.NewInt(42)))
}

func TestTextRoundTrip(t *testing.T) {
	v := GWei(123)
	text, err := v.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "123000000000", string(text))

	var out ETH
	require.NoError(t, out.UnmarshalText(text))
	require.Equal(t, v, out)
	require.ErrorIs(t, out.UnmarshalText([]byte("nope")), ErrInvalidAmount)
}
