package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ande-labs/ande/ande-service/eth"
)

var (
	uint64Type, _  = abi.NewType("uint64", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)

	extraDataArgs = abi.Arguments{
		{Name: "perMoveDuration", Type: uint64Type},
		{Name: "globalDuration", Type: uint64Type},
		{Name: "minBond", Type: uint256Type},
		{Name: "maxBond", Type: uint256Type},
	}
	stateDataArgs = abi.Arguments{
		{Name: "preState", Type: bytes32Type},
		{Name: "proof", Type: bytesType},
	}
)

// ExtraData configures the chess clock and bond bounds of a game.
// Zero fields are replaced by defaults when the game is initialized.
type ExtraData struct {
	PerMoveDuration uint64
	GlobalDuration  uint64
	MinBond         eth.ETH
	MaxBond         eth.ETH
}

func (d ExtraData) Encode() []byte {
	out, err := extraDataArgs.Pack(d.PerMoveDuration, d.GlobalDuration, d.MinBond.ToBig(), d.MaxBond.ToBig())
	if err != nil {
		panic(fmt.Errorf("failed to pack extra data: %w", err))
	}
	return out
}

// DecodeExtraData decodes the ABI tuple (uint64, uint64, uint256, uint256).
// Empty input decodes to all-zero values.
func DecodeExtraData(data []byte) (ExtraData, error) {
	if len(data) == 0 {
		return ExtraData{}, nil
	}
	values, err := extraDataArgs.Unpack(data)
	if err != nil {
		return ExtraData{}, fmt.Errorf("%w: %w", ErrInvalidExtraData, err)
	}
	if len(values) != len(extraDataArgs) {
		return ExtraData{}, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidExtraData, len(extraDataArgs), len(values))
	}
	perMove, ok1 := values[0].(uint64)
	global, ok2 := values[1].(uint64)
	minBond, ok3 := values[2].(*big.Int)
	maxBond, ok4 := values[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return ExtraData{}, fmt.Errorf("%w: unexpected value types", ErrInvalidExtraData)
	}
	return ExtraData{
		PerMoveDuration: perMove,
		GlobalDuration:  global,
		MinBond:         eth.WeiBig(minBond),
		MaxBond:         eth.WeiBig(maxBond),
	}, nil
}

// StateData is the input to a single-step settlement.
type StateData struct {
	PreState common.Hash
	Proof    []byte
}

func (d StateData) Encode() []byte {
	proof := d.Proof
	if proof == nil {
		proof = []byte{}
	}
	out, err := stateDataArgs.Pack([32]byte(d.PreState), proof)
	if err != nil {
		panic(fmt.Errorf("failed to pack state data: %w", err))
	}
	return out
}

// DecodeStateData decodes the ABI tuple (bytes32, bytes).
func DecodeStateData(data []byte) (StateData, error) {
	values, err := stateDataArgs.Unpack(data)
	if err != nil {
		return StateData{}, fmt.Errorf("%w: %w", ErrInvalidStateData, err)
	}
	if len(values) != len(stateDataArgs) {
		return StateData{}, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidStateData, len(stateDataArgs), len(values))
	}
	pre, ok1 := values[0].([32]byte)
	proof, ok2 := values[1].([]byte)
	if !ok1 || !ok2 {
		return StateData{}, fmt.Errorf("%w: unexpected value types", ErrInvalidStateData)
	}
	return StateData{PreState: common.Hash(pre), Proof: proof}, nil
}
