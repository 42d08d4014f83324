package game

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/types"
)

// Resolve settles the game once no further moves can change the outcome and pays the
// whole escrow to the winning side. The status is final once Resolve succeeds.
func (g *FaultDisputeGame) Resolve(ctx context.Context, caller common.Address) (types.GameStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != types.GameStatusInProgress {
		return g.status, fmt.Errorf("%w: status %s", types.ErrGameNotInProgress, g.status)
	}
	if len(g.claims) == 0 {
		return g.status, types.ErrNoClaims
	}
	now := g.ledger.Timestamp()
	if err := g.checkResolvable(now); err != nil {
		return g.status, err
	}

	verdicts := resolveClaimTree(g.claims, g.subgames, g.steps)
	status := types.GameStatusDefenderWon
	payee := g.creator
	if !verdicts[0] {
		// An invalid root has at least one valid attack, so a second claim exists.
		status = types.GameStatusChallengerWon
		payee = g.claims[1].Claimant
	}

	g.status = status
	g.resolvedAt = now
	payout, err := g.escrow.Payout(ctx, status, payee)
	if err != nil {
		g.status = types.GameStatusInProgress
		g.resolvedAt = 0
		g.log.Error("Failed to pay out bonds", "status", status, "payee", payee, "err", err)
		return types.GameStatusInProgress, fmt.Errorf("%w: %w", types.ErrBondTransferFailed, err)
	}
	g.verdicts = verdicts

	g.log.Info("Game resolved", "status", status, "payee", payee, "payout", payout, "caller", caller)
	g.emitter.Emit(event.GameStatusChangedEvent{
		Game:     g.args.Address,
		GameType: g.gameType,
		Status:   status,
		Payee:    payee,
		Payout:   payout,
	})
	return status, nil
}

// checkResolvable passes once the global deadline is reached, or once every
// uncountered claim that was not settled by a step has run out of time.
func (g *FaultDisputeGame) checkResolvable(now uint64) error {
	if now >= g.settings.Clock.Deadline() {
		return nil
	}
	for i, c := range g.claims {
		if c.Countered {
			continue
		}
		if _, ok := g.steps[uint64(i)]; ok {
			continue
		}
		if !c.Clock.Expired(g.createdAt, now) {
			return fmt.Errorf("%w: claim %d can still be countered", types.ErrCannotResolveYet, i)
		}
	}
	return nil
}

// resolveClaimTree returns the validity of every claim, walking the tree in post-order
// with an explicit stack. Each claim has a single parent, so each is evaluated once.
func resolveClaimTree(claims []types.Claim, subgames [][]uint64, steps map[uint64]stepResult) []bool {
	valid := make([]bool, len(claims))
	type frame struct {
		index    uint64
		expanded bool
	}
	stack := []frame{{index: 0}}
	for len(stack) > 0 {
		top := len(stack) - 1
		if !stack[top].expanded {
			stack[top].expanded = true
			for _, child := range subgames[stack[top].index] {
				stack = append(stack, frame{index: child})
			}
			continue
		}
		i := stack[top].index
		stack = stack[:top]
		valid[i] = claimVerdict(claims, subgames[i], steps, valid, i)
	}
	return valid
}

// claimVerdict decides one claim after all its children are decided.
// A step on the claim decides it outright. Otherwise the claim stands unless one of its
// attacks stands: defends only ever confirm it.
func claimVerdict(claims []types.Claim, children []uint64, steps map[uint64]stepResult, valid []bool, i uint64) bool {
	if res, ok := steps[i]; ok {
		return res.claimantWon
	}
	pos := claims[i].Position
	for _, child := range children {
		if valid[child] && claims[child].Position.IsAttackOf(pos) {
			return false
		}
	}
	return true
}
