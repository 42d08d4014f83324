package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

// Calldata layout of the factory and game entry points, for tooling that submits
// moves through a contract-compatible front end.
var (
	CreateFn  = w3.MustNewFunc("create(uint32 gameType, bytes32 rootClaim, bytes extraData)", "address")
	AttackFn  = w3.MustNewFunc("attack(uint256 parentIndex, bytes32 claim)", "")
	DefendFn  = w3.MustNewFunc("defend(uint256 parentIndex, bytes32 claim)", "")
	StepFn    = w3.MustNewFunc("step(uint256 claimIndex, bytes stateData)", "")
	ResolveFn = w3.MustNewFunc("resolve()", "uint8")
)

func EncodeCreate(gameType GameType, rootClaim common.Hash, extraData []byte) ([]byte, error) {
	if extraData == nil {
		extraData = []byte{}
	}
	return encodeCall(CreateFn, uint32(gameType), rootClaim, extraData)
}

func EncodeMove(isAttack bool, parentIndex uint64, claim common.Hash) ([]byte, error) {
	fn := DefendFn
	if isAttack {
		fn = AttackFn
	}
	return encodeCall(fn, new(big.Int).SetUint64(parentIndex), claim)
}

func EncodeStep(claimIndex uint64, stateData []byte) ([]byte, error) {
	if stateData == nil {
		stateData = []byte{}
	}
	return encodeCall(StepFn, new(big.Int).SetUint64(claimIndex), stateData)
}

func EncodeResolve() ([]byte, error) {
	return encodeCall(ResolveFn)
}

func encodeCall(fn *w3.Func, args ...any) ([]byte, error) {
	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", fn.Signature, err)
	}
	return data, nil
}
