// Package rpc exposes the factory, its games and the ledger over JSON-RPC.
//
// Callers identify themselves with the from and caller parameters of each method,
// and ledger_mint creates value out of nothing. Nothing authenticates either, so
// the server is meant for local devnets and tests and must not be reachable by
// untrusted clients. Bind it to a loopback address.
package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-dispute/factory"
	"github.com/ande-labs/ande/ande-dispute/game"
	"github.com/ande-labs/ande/ande-dispute/journal"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

type FactoryBackend interface {
	Owner() common.Address
	BondAmount() eth.ETH
	MaxGameDuration() uint64
	Create(ctx context.Context, call types.Call, gameType types.GameType, rootClaim common.Hash, extraData []byte) (types.Game, error)
	GameCount() uint64
	GetGames(offset, limit uint64) ([]factory.GameEntry, error)
	GameByAddress(addr common.Address) (factory.GameEntry, error)
	GameImpl(gameType types.GameType) (types.Implementation, bool)
	SetImplementation(caller common.Address, gameType types.GameType, impl types.Implementation) error
	SetBondAmount(caller common.Address, amount eth.ETH) error
	SetMaxGameDuration(caller common.Address, duration uint64) error
	TransferOwnership(caller, newOwner common.Address) error
}

var _ FactoryBackend = (*factory.DisputeGameFactory)(nil)

// Inspectable is implemented by games exposing their full claim tree and settings.
type Inspectable interface {
	Claims() []types.Claim
	RequiredBond(pos types.Position) eth.ETH
	Deadline() uint64
	MaxGameDepth() uint64
	Settings() game.Settings
	SubGameWinner(index uint64) (common.Address, bool)
	ClaimsAt(pos types.Position) []uint64
}

var _ Inspectable = (*game.FaultDisputeGame)(nil)

type EventSource interface {
	Range(from uint64, limit uint64) ([]journal.Record, error)
}

type LedgerBackend interface {
	Timestamp() uint64
	Balance(addr common.Address) eth.ETH
	Mint(addr common.Address, amount eth.ETH) error
}
