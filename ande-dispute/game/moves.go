package game

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
	"github.com/ande-labs/ande/ande-service/safemath"
)

func (g *FaultDisputeGame) Initialize(ctx context.Context, caller common.Address, value eth.ETH, rootClaim common.Hash, creator common.Address, extraData []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if caller != g.args.Factory {
		return fmt.Errorf("%w: caller %s", types.ErrNotFactory, caller)
	}
	if g.initialized {
		return types.ErrAlreadyInitialized
	}
	data, err := types.DecodeExtraData(extraData)
	if err != nil {
		return err
	}
	settings := g.applyDefaults(data)
	if err := g.escrow.Deposit(ctx, creator, value); err != nil {
		return err
	}
	now := g.ledger.Timestamp()
	settings.Clock.StartTime = now

	g.initialized = true
	g.status = types.GameStatusInProgress
	g.rootClaim = rootClaim
	g.creator = creator
	g.createdAt = now
	g.settings = settings
	root := types.Claim{
		ContractIndex: 0,
		ParentIndex:   types.NoParentIndex,
		Claimant:      creator,
		Bond:          value,
		Value:         rootClaim,
		Position:      types.RootPosition(),
		Clock:         types.Clock{Duration: settings.Clock.PerMoveDuration, Timestamp: now},
	}
	g.claims = []types.Claim{root}
	g.subgames = [][]uint64{nil}
	g.positions[root.Position] = []uint64{0}
	g.log.Info("Game initialized", "rootClaim", rootClaim, "creator", creator, "bond", value,
		"perMoveDuration", settings.Clock.PerMoveDuration, "globalDuration", settings.Clock.GlobalDuration,
		"minBond", settings.MinBond, "maxBond", settings.MaxBond)
	return nil
}

// applyDefaults fills zero extra data fields from the factory, then from the template.
// The global duration never exceeds the factory maximum.
func (g *FaultDisputeGame) applyDefaults(data types.ExtraData) Settings {
	s := Settings{
		Clock: ChessClock{
			PerMoveDuration: data.PerMoveDuration,
			GlobalDuration:  data.GlobalDuration,
		},
		MinBond:      data.MinBond,
		MaxBond:      data.MaxBond,
		MaxGameDepth: g.maxDepth,
	}
	if s.Clock.PerMoveDuration == 0 {
		s.Clock.PerMoveDuration = g.defaults.DefaultPerMoveDuration
	}
	if s.Clock.GlobalDuration == 0 {
		s.Clock.GlobalDuration = g.args.MaxGameDuration
	}
	if s.Clock.GlobalDuration == 0 {
		s.Clock.GlobalDuration = g.defaults.DefaultGlobalDuration
	}
	if g.args.MaxGameDuration != 0 && s.Clock.GlobalDuration > g.args.MaxGameDuration {
		s.Clock.GlobalDuration = g.args.MaxGameDuration
	}
	if s.MinBond.IsZero() {
		s.MinBond = g.args.MinBond
	}
	if s.MinBond.IsZero() {
		s.MinBond = g.defaults.DefaultMinBond
	}
	if s.MaxBond.IsZero() {
		s.MaxBond = g.defaults.DefaultMaxBond
	}
	return s
}

// Attack disagrees with the parent claim, moving into its left half.
func (g *FaultDisputeGame) Attack(ctx context.Context, call types.Call, parentIndex uint64, claim common.Hash) (uint64, error) {
	return g.move(ctx, call, parentIndex, claim, true)
}

// Defend agrees with the parent claim, moving into the right half next to it.
func (g *FaultDisputeGame) Defend(ctx context.Context, call types.Call, parentIndex uint64, claim common.Hash) (uint64, error) {
	return g.move(ctx, call, parentIndex, claim, false)
}

func (g *FaultDisputeGame) move(ctx context.Context, call types.Call, parentIndex uint64, claim common.Hash, isAttack bool) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != types.GameStatusInProgress {
		return 0, fmt.Errorf("%w: status %s", types.ErrGameNotInProgress, g.status)
	}
	if parentIndex >= uint64(len(g.claims)) {
		return 0, fmt.Errorf("%w: %d of %d claims", types.ErrInvalidParentIndex, parentIndex, len(g.claims))
	}
	now := g.ledger.Timestamp()
	if deadline := g.settings.Clock.Deadline(); now >= deadline {
		return 0, fmt.Errorf("%w: deadline %d, now %d", types.ErrGameExpired, deadline, now)
	}
	parent := g.claims[parentIndex]
	depth := parent.Depth() + 1
	if depth > g.maxDepth {
		return 0, fmt.Errorf("%w: max depth %d", types.ErrMaxDepthReached, g.maxDepth)
	}
	required := RequiredBond(g.settings.MinBond, g.settings.MaxBond, depth)
	if call.Value.Lt(required) {
		return 0, fmt.Errorf("%w: depth %d requires %s, got %s", types.ErrInsufficientBond, depth, required, call.Value)
	}
	// The time elapsed since the game was created is charged against the parent's
	// remaining budget, not the time since the parent was posted.
	elapsed := safemath.SaturatingSub(now, g.createdAt)
	if parent.Clock.Expired(g.createdAt, now) {
		return 0, fmt.Errorf("%w: parent %d had %d seconds, %d elapsed", types.ErrClockExpired, parentIndex, parent.Clock.Duration, elapsed)
	}
	if err := g.escrow.Deposit(ctx, call.From, call.Value); err != nil {
		return 0, err
	}

	index := uint64(len(g.claims))
	pos := parent.Position.Move(isAttack)
	g.claims[parentIndex].Countered = true
	g.claims = append(g.claims, types.Claim{
		ContractIndex: index,
		ParentIndex:   parentIndex,
		Claimant:      call.From,
		Bond:          call.Value,
		Value:         claim,
		Position:      pos,
		Clock:         types.Clock{Duration: parent.Clock.Duration - elapsed, Timestamp: now},
	})
	g.subgames[parentIndex] = append(g.subgames[parentIndex], index)
	g.subgames = append(g.subgames, nil)
	g.positions[pos] = append(g.positions[pos], index)

	g.log.Debug("Claim added", "index", index, "parent", parentIndex, "attack", isAttack,
		"depth", pos.Depth(), "indexAtDepth", pos.IndexAtDepth(), "claimant", call.From, "bond", call.Value)
	g.emitter.Emit(event.ClaimAddedEvent{
		Game:     g.args.Address,
		GameType: g.gameType,
		Index:    index,
		Claimant: call.From,
		Claim:    claim,
		Position: pos,
		IsAttack: isAttack,
		Bond:     call.Value,
	})
	return index, nil
}

// Step settles a claim at the maximum game depth by executing a single instruction
// from the given pre-state. If the post-state equals the claim the claimant wins the
// sub-game, otherwise the caller does.
func (g *FaultDisputeGame) Step(_ context.Context, caller common.Address, claimIndex uint64, stateData []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != types.GameStatusInProgress {
		return fmt.Errorf("%w: status %s", types.ErrGameNotInProgress, g.status)
	}
	if claimIndex >= uint64(len(g.claims)) {
		return fmt.Errorf("%w: %d of %d claims", types.ErrInvalidParentIndex, claimIndex, len(g.claims))
	}
	claim := g.claims[claimIndex]
	if claim.Depth() != g.maxDepth {
		return fmt.Errorf("%w: claim %d is at depth %d, execution depth is %d", types.ErrNotAtExecutionDepth, claimIndex, claim.Depth(), g.maxDepth)
	}
	if _, ok := g.steps[claimIndex]; ok {
		return fmt.Errorf("%w: claim %d", types.ErrSubGameAlreadyResolved, claimIndex)
	}
	data, err := types.DecodeStateData(stateData)
	if err != nil {
		return err
	}
	post, err := g.oracle.Execute(data.PreState, data.Proof)
	if err != nil {
		return fmt.Errorf("failed to execute step on claim %d: %w", claimIndex, err)
	}
	res := stepResult{postState: post, winner: caller}
	if post == claim.Value {
		res.winner = claim.Claimant
		res.claimantWon = true
	}
	g.steps[claimIndex] = res

	g.log.Info("Step executed", "claim", claimIndex, "preState", data.PreState, "postState", post,
		"claimantWon", res.claimantWon, "winner", res.winner)
	g.emitter.Emit(event.StepExecutedEvent{
		Game:        g.args.Address,
		GameType:    g.gameType,
		Index:       claimIndex,
		PreState:    data.PreState,
		PostState:   post,
		Winner:      res.winner,
		ClaimantWon: res.claimantWon,
	})
	return nil
}
