// Package escrow holds the bonds posted in one dispute game until the game is terminal.
package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/accounting"
	"github.com/ande-labs/ande/ande-service/eth"
)

var (
	ErrPayoutNotAllowed = errors.New("payout before terminal status")
	ErrAlreadyPaidOut   = errors.New("escrow already paid out")
)

type Transferrer interface {
	Transfer(ctx context.Context, from, to common.Address, amount eth.ETH) error
}

// Escrow is keyed by the account that holds the value on the ledger.
// It is not safe for concurrent use; the owning game serializes access.
type Escrow struct {
	ledger  Transferrer
	account common.Address
	held    *accounting.Budget
	paid    bool
}

func New(l Transferrer, account common.Address) *Escrow {
	return &Escrow{
		ledger:  l,
		account: account,
		held:    accounting.NewBudget(eth.ZeroWei),
	}
}

func (e *Escrow) Account() common.Address {
	return e.account
}

// Deposit moves amount from the depositor into custody.
func (e *Escrow) Deposit(ctx context.Context, from common.Address, amount eth.ETH) error {
	if e.paid {
		return ErrAlreadyPaidOut
	}
	if amount.IsZero() {
		return nil
	}
	if err := e.ledger.Transfer(ctx, from, e.account, amount); err != nil {
		return fmt.Errorf("failed to escrow %s from %s: %w", amount, from, err)
	}
	e.held.Credit(amount)
	return nil
}

// Total is the value currently in custody.
func (e *Escrow) Total() eth.ETH {
	return e.held.Balance()
}

// Payout releases everything in custody to the recipient. It is only allowed once the
// game status is terminal. A failed transfer leaves the custody untouched.
func (e *Escrow) Payout(ctx context.Context, status types.GameStatus, to common.Address) (eth.ETH, error) {
	if !status.IsTerminal() {
		return eth.ZeroWei, fmt.Errorf("%w: status %s", ErrPayoutNotAllowed, status)
	}
	if e.paid {
		return eth.ZeroWei, ErrAlreadyPaidOut
	}
	total := e.held.Balance()
	if !total.IsZero() {
		if err := e.ledger.Transfer(ctx, e.account, to, total); err != nil {
			return eth.ZeroWei, err
		}
		if err := e.held.Debit(total); err != nil {
			return eth.ZeroWei, err
		}
	}
	e.paid = true
	return total, nil
}
