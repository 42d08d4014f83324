package types

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// MaxPositionDepth is the deepest node a 256-bit generalized index can address.
const MaxPositionDepth = 255

// Position is a node of the complete binary claim tree, encoded as a generalized index:
// the root is 1, and the children of p are 2p (attack) and 2p+1 (defend).
type Position struct {
	gindex uint256.Int
}

func RootPosition() Position {
	var p Position
	p.gindex.SetOne()
	return p
}

func NewPositionFromGIndex(gindex *big.Int) Position {
	var p Position
	if gindex.Sign() < 0 || p.gindex.SetFromBig(gindex) {
		panic(fmt.Errorf("generalized index out of range: %s", gindex))
	}
	return p
}

func NewPositionFromUint64(gindex uint64) Position {
	var p Position
	p.gindex.SetUint64(gindex)
	return p
}

// NewPosition returns the node at the given depth and index from the left of that depth.
func NewPosition(depth uint64, indexAtDepth *big.Int) (Position, error) {
	if depth > MaxPositionDepth {
		return Position{}, fmt.Errorf("%w: depth %d exceeds %d", ErrInvalidPosition, depth, MaxPositionDepth)
	}
	var p Position
	p.gindex.Lsh(uint256.NewInt(1), uint(depth))
	var idx uint256.Int
	if indexAtDepth.Sign() < 0 || idx.SetFromBig(indexAtDepth) || !idx.Lt(&p.gindex) {
		return Position{}, fmt.Errorf("%w: index %s out of range at depth %d", ErrInvalidPosition, indexAtDepth, depth)
	}
	p.gindex.Or(&p.gindex, &idx)
	return p, nil
}

// Valid reports whether the position addresses a node; the zero Position does not.
func (p Position) Valid() bool {
	return !p.gindex.IsZero()
}

// Depth is floor(log2(gindex)).
func (p Position) Depth() uint64 {
	return uint64(p.gindex.BitLen() - 1)
}

func (p Position) IndexAtDepth() *big.Int {
	var base, idx uint256.Int
	base.Lsh(uint256.NewInt(1), uint(p.Depth()))
	idx.Sub(&p.gindex, &base)
	return idx.ToBig()
}

func (p Position) IsRoot() bool {
	return p.gindex.IsUint64() && p.gindex.Uint64() == 1
}

// Attack returns the left child, 2p.
func (p Position) Attack() Position {
	p.mustDescend()
	var out Position
	out.gindex.Lsh(&p.gindex, 1)
	return out
}

// Defend returns the right child, 2p+1.
func (p Position) Defend() Position {
	out := p.Attack()
	out.gindex.AddUint64(&out.gindex, 1)
	return out
}

// Move returns the attack or defend child.
func (p Position) Move(isAttack bool) Position {
	if isAttack {
		return p.Attack()
	}
	return p.Defend()
}

func (p Position) Parent() Position {
	var out Position
	out.gindex.Rsh(&p.gindex, 1)
	return out
}

// IsAttackOf reports whether p is the attack child of parent.
func (p Position) IsAttackOf(parent Position) bool {
	return parent.Depth() < MaxPositionDepth && p == parent.Attack()
}

func (p Position) mustDescend() {
	if !p.Valid() || p.Depth() >= MaxPositionDepth {
		panic(fmt.Errorf("cannot descend from position %s", p))
	}
}

func (p Position) ToGIndex() *big.Int {
	return p.gindex.ToBig()
}

func (p Position) String() string {
	return p.gindex.Dec()
}

func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.gindex.Dec()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	v, err := uint256.FromDecimal(string(text))
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", text, err)
	}
	p.gindex = *v
	return nil
}
