package game

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ande-labs/ande/ande-dispute/escrow"
	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/ledger"
	"github.com/ande-labs/ande/ande-dispute/step"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
	"github.com/ande-labs/ande/ande-service/safemath"
)

// ChessClock bounds the lifetime of a game and the budget each branch inherits.
// All values are in seconds.
type ChessClock struct {
	PerMoveDuration uint64 `json:"perMoveDuration"`
	GlobalDuration  uint64 `json:"globalDuration"`
	StartTime       uint64 `json:"startTime"`
}

// Deadline is the time from which no more moves are accepted.
func (c ChessClock) Deadline() uint64 {
	return safemath.SaturatingAdd(c.StartTime, c.GlobalDuration)
}

// Settings are the decoded, defaulted parameters of one game.
type Settings struct {
	Clock        ChessClock `json:"clock"`
	MinBond      eth.ETH    `json:"minBond"`
	MaxBond      eth.ETH    `json:"maxBond"`
	MaxGameDepth uint64     `json:"maxGameDepth"`
}

type stepResult struct {
	postState   common.Hash
	winner      common.Address
	claimantWon bool
}

// FaultDisputeGame is a bisection game over one root claim.
// All methods are safe for concurrent use; mutations are applied one at a time.
type FaultDisputeGame struct {
	log      log.Logger
	ledger   ledger.Ledger
	oracle   step.Oracle
	emitter  event.Emitter
	gameType types.GameType
	maxDepth uint64
	defaults Config
	args     types.CloneArgs
	escrow   *escrow.Escrow

	mu          sync.RWMutex
	initialized bool
	rootClaim   common.Hash
	creator     common.Address
	createdAt   uint64
	resolvedAt  uint64
	status      types.GameStatus
	settings    Settings

	claims []types.Claim
	// subgames lists the indices of the claims countering each claim.
	subgames  [][]uint64
	positions map[types.Position][]uint64
	steps     map[uint64]stepResult
	// verdicts holds the validity of every claim once the game is resolved.
	verdicts []bool
}

var _ types.Game = (*FaultDisputeGame)(nil)

func newFaultDisputeGame(t *Template, args types.CloneArgs) *FaultDisputeGame {
	return &FaultDisputeGame{
		log:       t.log.New("game", args.Address),
		ledger:    t.ledger,
		oracle:    t.oracle,
		emitter:   t.emitter,
		gameType:  t.cfg.GameType,
		maxDepth:  t.cfg.MaxGameDepth,
		defaults:  t.cfg,
		args:      args,
		escrow:    escrow.New(t.ledger, args.Address),
		positions: make(map[types.Position][]uint64),
		steps:     make(map[uint64]stepResult),
	}
}

func (g *FaultDisputeGame) GameType() types.GameType {
	return g.gameType
}

func (g *FaultDisputeGame) GameAddress() common.Address {
	return g.args.Address
}

func (g *FaultDisputeGame) Factory() common.Address {
	return g.args.Factory
}

func (g *FaultDisputeGame) MaxGameDepth() uint64 {
	return g.maxDepth
}

func (g *FaultDisputeGame) Status() types.GameStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

func (g *FaultDisputeGame) RootClaim() common.Hash {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rootClaim
}

func (g *FaultDisputeGame) Creator() common.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.creator
}

func (g *FaultDisputeGame) CreatedAt() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.createdAt
}

func (g *FaultDisputeGame) ResolvedAt() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolvedAt
}

func (g *FaultDisputeGame) Settings() Settings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

// Deadline is the end of the global chess clock.
func (g *FaultDisputeGame) Deadline() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings.Clock.Deadline()
}

func (g *FaultDisputeGame) ClaimCount() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return uint64(len(g.claims))
}

func (g *FaultDisputeGame) GetClaim(index uint64) (types.Claim, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if index >= uint64(len(g.claims)) {
		return types.Claim{}, fmt.Errorf("%w: %d", types.ErrInvalidParentIndex, index)
	}
	return g.claims[index], nil
}

// Claims returns a copy of all claims in submission order.
func (g *FaultDisputeGame) Claims() []types.Claim {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]types.Claim(nil), g.claims...)
}

// ClaimsAt returns the indices of all claims made at the position, in submission order.
func (g *FaultDisputeGame) ClaimsAt(pos types.Position) []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]uint64(nil), g.positions[pos]...)
}

// RequiredBond is the bond a move to the given position must attach.
func (g *FaultDisputeGame) RequiredBond(pos types.Position) eth.ETH {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return RequiredBond(g.settings.MinBond, g.settings.MaxBond, pos.Depth())
}

// SubGameWinner returns the winner recorded by a step on the claim, if any.
func (g *FaultDisputeGame) SubGameWinner(index uint64) (common.Address, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res, ok := g.steps[index]
	return res.winner, ok
}

// ClaimValid returns the verdict on a claim. It is only known after resolution.
func (g *FaultDisputeGame) ClaimValid(index uint64) (valid bool, known bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if index >= uint64(len(g.verdicts)) {
		return false, false
	}
	return g.verdicts[index], true
}

// TotalBonds is the sum of all bonds posted in the game.
func (g *FaultDisputeGame) TotalBonds() eth.ETH {
	g.mu.RLock()
	defer g.mu.RUnlock()
	total := eth.ZeroWei
	for _, c := range g.claims {
		total = total.Add(c.Bond)
	}
	return total
}

// EscrowBalance is the value still held by the game.
func (g *FaultDisputeGame) EscrowBalance() eth.ETH {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.escrow.Total()
}
