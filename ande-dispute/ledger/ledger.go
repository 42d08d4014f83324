// Package ledger models the host ledger the dispute core runs on:
// timestamps, native-value custody and value transfers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ande-labs/ande/ande-service/clock"
	"github.com/ande-labs/ande/ande-service/eth"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferRejected    = errors.New("transfer rejected by recipient")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

type Ledger interface {
	// Timestamp is the current ledger time, in unix seconds.
	Timestamp() uint64
	Balance(addr common.Address) eth.ETH
	// Transfer moves value between accounts. It either completes fully or has no effect.
	Transfer(ctx context.Context, from, to common.Address, amount eth.ETH) error
}

// Memory is an in-process ledger. It is safe for concurrent use.
type Memory struct {
	log   log.Logger
	clock clock.Clock

	mu        sync.Mutex
	balances  map[common.Address]eth.ETH
	rejecting map[common.Address]struct{}
}

var _ Ledger = (*Memory)(nil)

func NewMemory(logger log.Logger, clk clock.Clock) *Memory {
	return &Memory{
		log:       logger,
		clock:     clk,
		balances:  make(map[common.Address]eth.ETH),
		rejecting: make(map[common.Address]struct{}),
	}
}

func (m *Memory) Timestamp() uint64 {
	return uint64(m.clock.Now().Unix())
}

func (m *Memory) Balance(addr common.Address) eth.ETH {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[addr]
}

// Mint creates value out of thin air, for funding accounts of a local network or a test.
func (m *Memory) Mint(addr common.Address, amount eth.ETH) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, overflow := m.balances[addr].AddOverflow(amount)
	if overflow {
		return fmt.Errorf("%w: minting %s to %s", ErrBalanceOverflow, amount, addr)
	}
	m.balances[addr] = sum
	m.log.Debug("Minted value", "to", addr, "amount", amount)
	return nil
}

// RejectIncoming makes every transfer to addr fail, or lifts that again.
// It models recipients which revert when receiving value.
func (m *Memory) RejectIncoming(addr common.Address, reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reject {
		m.rejecting[addr] = struct{}{}
	} else {
		delete(m.rejecting, addr)
	}
}

func (m *Memory) Transfer(ctx context.Context, from, to common.Address, amount eth.ETH) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rejecting[to]; ok {
		return fmt.Errorf("%w: %s", ErrTransferRejected, to)
	}
	if from == to {
		if m.balances[from].Lt(amount) {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, m.balances[from], amount)
		}
		return nil
	}
	fromBal, underflow := m.balances[from].SubUnderflow(amount)
	if underflow {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, m.balances[from], amount)
	}
	toBal, overflow := m.balances[to].AddOverflow(amount)
	if overflow {
		return fmt.Errorf("%w: crediting %s", ErrBalanceOverflow, to)
	}
	m.balances[from] = fromBal
	m.balances[to] = toBal
	m.log.Trace("Transferred value", "from", from, "to", to, "amount", amount)
	return nil
}
