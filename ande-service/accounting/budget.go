package accounting

import (
	"fmt"
	"sync"

	"github.com/ande-labs/ande/ande-service/eth"
)

// OverdraftError is returned when a debit exceeds the remaining balance.
type OverdraftError struct {
	Remaining eth.ETH
	Requested eth.ETH
}

func (e *OverdraftError) Error() string {
	return fmt.Sprintf("overdraft: requested %s but only %s remaining", e.Requested, e.Remaining)
}

// Budget tracks a balance of native value. It is safe for concurrent use.
type Budget struct {
	mu        sync.Mutex
	remaining eth.ETH
}

func NewBudget(initial eth.ETH) *Budget {
	return &Budget{remaining: initial}
}

// Debit removes amount from the budget.
// An overdraft empties the budget and returns an *OverdraftError.
func (b *Budget) Debit(amount eth.ETH) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining, underflow := b.remaining.SubUnderflow(amount)
	if underflow {
		b.remaining = eth.ZeroWei
		return &OverdraftError{
			Remaining: b.remaining,
			Requested: amount,
		}
	}
	b.remaining = remaining
	return nil
}

// Credit adds amount to the budget, saturating at the max uint256 value.
func (b *Budget) Credit(amount eth.ETH) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sum, overflow := b.remaining.AddOverflow(amount)
	if overflow {
		b.remaining = eth.MaxU256Wei
		return
	}
	b.remaining = sum
}

func (b *Budget) Balance() eth.ETH {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}
