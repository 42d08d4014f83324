package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/ande-labs/ande/ande-service/clock"
	"github.com/ande-labs/ande/ande-service/eth"
	"github.com/ande-labs/ande/ande-service/testlog"
)

var (
	alice = common.Address{0xa1}
	bob   = common.Address{0xb0}
)

func newTestLedger(t *testing.T) (*Memory, *clock.DeterministicClock) {
	clk := clock.NewDeterministicClock(time.Unix(1_000, 0))
	return NewMemory(testlog.Logger(t, log.LevelDebug), clk), clk
}

func TestTimestampFollowsClock(t *testing.T) {
	l, clk := newTestLedger(t)
	require.Equal(t, uint64(1_000), l.Timestamp())
	clk.AdvanceTime(90 * time.Second)
	require.Equal(t, uint64(1_090), l.Timestamp())
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves value", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(alice, eth.Ether(3)))
		require.NoError(t, l.Transfer(ctx, alice, bob, eth.Ether(1)))
		require.Equal(t, eth.Ether(2), l.Balance(alice))
		require.Equal(t, eth.Ether(1), l.Balance(bob))
	})

	t.Run("insufficient balance has no effect", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(alice, eth.Ether(1)))
		err := l.Transfer(ctx, alice, bob, eth.Ether(2))
		require.ErrorIs(t, err, ErrInsufficientBalance)
		require.Equal(t, eth.Ether(1), l.Balance(alice))
		require.Equal(t, eth.ZeroWei, l.Balance(bob))
	})

	t.Run("rejecting recipient", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(alice, eth.Ether(1)))
		l.RejectIncoming(bob, true)
		require.ErrorIs(t, l.Transfer(ctx, alice, bob, eth.Ether(1)), ErrTransferRejected)
		require.Equal(t, eth.Ether(1), l.Balance(alice))

		l.RejectIncoming(bob, false)
		require.NoError(t, l.Transfer(ctx, alice, bob, eth.Ether(1)))
		require.Equal(t, eth.Ether(1), l.Balance(bob))
	})

	t.Run("zero transfer", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.Transfer(ctx, alice, bob, eth.ZeroWei))
	})

	t.Run("cancelled context", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(alice, eth.Ether(1)))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		require.ErrorIs(t, l.Transfer(cctx, alice, bob, eth.Ether(1)), context.Canceled)
		require.Equal(t, eth.Ether(1), l.Balance(alice))
	})

	t.Run("mint overflow", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.Mint(alice, eth.MaxU256Wei))
		require.ErrorIs(t, l.Mint(alice, eth.OneWei), ErrBalanceOverflow)
	})
}
