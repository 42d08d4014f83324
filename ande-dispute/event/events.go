package event

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

type ClaimAddedEvent struct {
	Game     common.Address `json:"game"`
	GameType types.GameType `json:"gameType"`
	Index    uint64         `json:"index"`
	Claimant common.Address `json:"claimant"`
	Claim    common.Hash    `json:"claim"`
	Position types.Position `json:"position"`
	IsAttack bool           `json:"isAttack"`
	Bond     eth.ETH        `json:"bond"`
}

func (ev ClaimAddedEvent) String() string {
	return "claim-added"
}

type StepExecutedEvent struct {
	Game      common.Address `json:"game"`
	GameType  types.GameType `json:"gameType"`
	Index     uint64         `json:"index"`
	PreState  common.Hash    `json:"preState"`
	PostState common.Hash    `json:"postState"`
	// Winner is the claimant if the post-state matched the claim, the caller otherwise.
	Winner      common.Address `json:"winner"`
	ClaimantWon bool           `json:"claimantWon"`
}

func (ev StepExecutedEvent) String() string {
	return "step-executed"
}

type GameStatusChangedEvent struct {
	Game     common.Address   `json:"game"`
	GameType types.GameType   `json:"gameType"`
	Status   types.GameStatus `json:"status"`
	Payee    common.Address   `json:"payee"`
	Payout   eth.ETH          `json:"payout"`
}

func (ev GameStatusChangedEvent) String() string {
	return "game-status-changed"
}

type ImplementationSetEvent struct {
	GameType types.GameType `json:"gameType"`
	Impl     common.Address `json:"impl"`
}

func (ev ImplementationSetEvent) String() string {
	return "implementation-set"
}

type GameCreatedEvent struct {
	Game      common.Address `json:"game"`
	GameType  types.GameType `json:"gameType"`
	RootClaim common.Hash    `json:"rootClaim"`
	Creator   common.Address `json:"creator"`
	Bond      eth.ETH        `json:"bond"`
}

func (ev GameCreatedEvent) String() string {
	return "game-created"
}
