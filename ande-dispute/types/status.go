package types

import "fmt"

// GameStatus is the lifecycle state of a dispute game.
// Only IN_PROGRESS is non-terminal.
type GameStatus uint8

const (
	GameStatusInProgress GameStatus = iota
	GameStatusChallengerWon
	GameStatusDefenderWon
)

func (s GameStatus) IsTerminal() bool {
	return s == GameStatusChallengerWon || s == GameStatusDefenderWon
}

func (s GameStatus) String() string {
	switch s {
	case GameStatusInProgress:
		return "IN_PROGRESS"
	case GameStatusChallengerWon:
		return "CHALLENGER_WINS"
	case GameStatusDefenderWon:
		return "DEFENDER_WINS"
	default:
		return fmt.Sprintf("invalid game status: %d", uint8(s))
	}
}

func (s GameStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []GameStatus{GameStatusInProgress, GameStatusChallengerWon, GameStatusDefenderWon} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown game status: %q", text)
}
