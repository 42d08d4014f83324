package types

import (
	"fmt"
	"strconv"
	"strings"
)

// GameType identifies the proof system a dispute game settles with.
type GameType uint32

const (
	// CannonGameType settles execution leaves with the MIPS emulator.
	CannonGameType GameType = 0
	// ValidityGameType settles execution leaves by checking a hash preimage.
	ValidityGameType GameType = 1
	// AsteriscGameType settles execution leaves with the RISC-V emulator.
	AsteriscGameType GameType = 2
)

var AllGameTypes = []GameType{CannonGameType, ValidityGameType, AsteriscGameType}

func (t GameType) Valid() bool {
	switch t {
	case CannonGameType, ValidityGameType, AsteriscGameType:
		return true
	default:
		return false
	}
}

func (t GameType) String() string {
	switch t {
	case CannonGameType:
		return "cannon"
	case ValidityGameType:
		return "validity"
	case AsteriscGameType:
		return "asterisc"
	default:
		return fmt.Sprintf("invalid game type: %d", uint32(t))
	}
}

// ParseGameType accepts either the name or the numeric identifier of a game type.
func ParseGameType(s string) (GameType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllGameTypes {
		if t.String() == s {
			return t, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || !GameType(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGameType, s)
	}
	return GameType(n), nil
}

func (t GameType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGameType, uint32(t))
	}
	return []byte(t.String()), nil
}

func (t *GameType) UnmarshalText(text []byte) error {
	v, err := ParseGameType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
