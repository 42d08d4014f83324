package types

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-service/eth"
)

// DisputeGame is the read surface shared by every game type.
// It lets external systems query any game uniformly.
type DisputeGame interface {
	GameType() GameType
	GameAddress() common.Address
	Status() GameStatus
	RootClaim() common.Hash
	Creator() common.Address
	CreatedAt() uint64
	ResolvedAt() uint64
	ClaimCount() uint64
	GetClaim(index uint64) (Claim, error)
}

// Game is a dispute game instance spawned by the factory.
type Game interface {
	DisputeGame

	// Initialize seeds the root claim. It may only be called once, by the factory that cloned the game.
	// The attached value is escrowed from the creator as the root bond.
	Initialize(ctx context.Context, caller common.Address, value eth.ETH, rootClaim common.Hash, creator common.Address, extraData []byte) error
	Attack(ctx context.Context, call Call, parentIndex uint64, claim common.Hash) (uint64, error)
	Defend(ctx context.Context, call Call, parentIndex uint64, claim common.Hash) (uint64, error)
	Step(ctx context.Context, caller common.Address, claimIndex uint64, stateData []byte) error
	Resolve(ctx context.Context, caller common.Address) (GameStatus, error)
}

// CloneArgs carries what the factory hands to a template when spawning a game.
type CloneArgs struct {
	Factory common.Address
	Address common.Address
	// MinBond is the factory bond, substituted when the extra data leaves the minimum bond at zero.
	MinBond eth.ETH
	// MaxGameDuration caps the global duration. It is also substituted when the extra data leaves it at zero.
	MaxGameDuration uint64
}

// Implementation is a game template registered with the factory for one game type.
type Implementation interface {
	GameType() GameType
	Address() common.Address
	Clone(args CloneArgs) Game
}
