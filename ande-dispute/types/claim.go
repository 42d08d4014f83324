package types

import (
	"math"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-service/eth"
	"github.com/ande-labs/ande/ande-service/safemath"
)

// NoParentIndex is the parent index recorded for the root claim.
const NoParentIndex = math.MaxUint64

// Clock is the remaining time budget of a branch, and when that budget started draining.
// Both values are in seconds.
type Clock struct {
	Duration  uint64 `json:"duration"`
	Timestamp uint64 `json:"timestamp"`
}

// Expired reports whether the budget has been used up at the given time.
// Time is charged from the creation of the game, not from Timestamp.
func (c Clock) Expired(createdAt, now uint64) bool {
	return safemath.SaturatingSub(now, createdAt) >= c.Duration
}

// Claim is an assertion of a value at a node of the claim tree.
type Claim struct {
	ContractIndex uint64         `json:"index"`
	ParentIndex   uint64         `json:"parentIndex"`
	Claimant      common.Address `json:"claimant"`
	Bond          eth.ETH        `json:"bond"`
	Value         common.Hash    `json:"claim"`
	Position      Position       `json:"position"`
	Clock         Clock          `json:"clock"`
	Countered     bool           `json:"countered"`
}

func (c Claim) IsRoot() bool {
	return c.ParentIndex == NoParentIndex
}

func (c Claim) Depth() uint64 {
	return c.Position.Depth()
}

// Call carries the caller identity and the native value attached to a call.
type Call struct {
	From  common.Address
	Value eth.ETH
}
