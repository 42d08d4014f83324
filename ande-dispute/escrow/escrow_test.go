package escrow

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

var (
	gameAccount = common.Address{0x99}
	alice       = common.Address{0xa1}
	bob         = common.Address{0xb0}
)

type transfer struct {
	from, to common.Address
	amount   eth.ETH
}

type stubLedger struct {
	transfers []transfer
	err       error
}

func (s *stubLedger) Transfer(_ context.Context, from, to common.Address, amount eth.ETH) error {
	if s.err != nil {
		return s.err
	}
	s.transfers = append(s.transfers, transfer{from, to, amount})
	return nil
}

func TestDepositAndPayout(t *testing.T) {
	ctx := context.Background()
	l := &stubLedger{}
	e := New(l, gameAccount)

	require.NoError(t, e.Deposit(ctx, alice, eth.Ether(1)))
	require.NoError(t, e.Deposit(ctx, bob, eth.Ether(2)))
	require.NoError(t, e.Deposit(ctx, bob, eth.ZeroWei))
	require.Equal(t, eth.Ether(3), e.Total())

	paid, err := e.Payout(ctx, types.GameStatusDefenderWon, alice)
	require.NoError(t, err)
	require.Equal(t, eth.Ether(3), paid)
	require.Equal(t, eth.ZeroWei, e.Total())
	require.Equal(t, []transfer{
		{alice, gameAccount, eth.Ether(1)},
		{bob, gameAccount, eth.Ether(2)},
		{gameAccount, alice, eth.Ether(3)},
	}, l.transfers)

	_, err = e.Payout(ctx, types.GameStatusDefenderWon, alice)
	require.ErrorIs(t, err, ErrAlreadyPaidOut)
	require.ErrorIs(t, e.Deposit(ctx, bob, eth.Ether(1)), ErrAlreadyPaidOut)
}

func TestPayoutRequiresTerminalStatus(t *testing.T) {
	ctx := context.Background()
	e := New(&stubLedger{}, gameAccount)
	require.NoError(t, e.Deposit(ctx, alice, eth.Ether(1)))

	_, err := e.Payout(ctx, types.GameStatusInProgress, alice)
	require.ErrorIs(t, err, ErrPayoutNotAllowed)
	require.Equal(t, eth.Ether(1), e.Total())
}

func TestFailedTransfersLeaveCustodyUntouched(t *testing.T) {
	ctx := context.Background()
	l := &stubLedger{}
	e := New(l, gameAccount)
	require.NoError(t, e.Deposit(ctx, alice, eth.Ether(1)))

	boom := errors.New("boom")
	l.err = boom
	require.ErrorIs(t, e.Deposit(ctx, bob, eth.Ether(1)), boom)
	require.Equal(t, eth.Ether(1), e.Total())

	_, err := e.Payout(ctx, types.GameStatusChallengerWon, bob)
	require.ErrorIs(t, err, boom)
	require.Equal(t, eth.Ether(1), e.Total())

	l.err = nil
	paid, err := e.Payout(ctx, types.GameStatusChallengerWon, bob)
	require.NoError(t, err)
	require.Equal(t, eth.Ether(1), paid)
}
