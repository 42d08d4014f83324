package game

import "github.com/ande-labs/ande/ande-service/eth"

// The required bond grows by 8.93% per level of the claim tree.
const (
	BondScalarNumerator   = 10893
	BondScalarDenominator = 10000
)

// RequiredBond is minBond * 1.0893^depth, rounded down at every level and capped at maxBond.
// It is non-decreasing in depth.
func RequiredBond(minBond, maxBond eth.ETH, depth uint64) eth.ETH {
	bond := minBond
	for i := uint64(0); i < depth; i++ {
		if !bond.Lt(maxBond) {
			return maxBond
		}
		next, overflow := bond.MulDiv(BondScalarNumerator, BondScalarDenominator)
		if overflow {
			return maxBond
		}
		bond = next
	}
	if bond.Gt(maxBond) {
		return maxBond
	}
	return bond
}
