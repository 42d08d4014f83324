package game

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-multierror"

	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/ledger"
	"github.com/ande-labs/ande/ande-dispute/step"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

var (
	ErrMissingOracle       = errors.New("missing step oracle")
	ErrMissingLedger       = errors.New("missing ledger")
	ErrInvalidMaxGameDepth = errors.New("invalid max game depth")
	ErrInvalidDuration     = errors.New("invalid default duration")
)

// Config holds the per-type settings every game cloned from a template shares.
type Config struct {
	GameType     types.GameType
	MaxGameDepth uint64

	// Substituted when a game's extra data and the factory leave the value at zero.
	DefaultPerMoveDuration uint64
	DefaultGlobalDuration  uint64
	DefaultMinBond         eth.ETH
	DefaultMaxBond         eth.ETH
}

func (c Config) Check() error {
	var result error
	if !c.GameType.Valid() {
		result = multierror.Append(result, fmt.Errorf("%w: %d", types.ErrInvalidGameType, uint32(c.GameType)))
	}
	if c.MaxGameDepth == 0 || c.MaxGameDepth > types.MaxPositionDepth {
		result = multierror.Append(result, fmt.Errorf("%w: %d must be in [1, %d]", ErrInvalidMaxGameDepth, c.MaxGameDepth, types.MaxPositionDepth))
	}
	if c.DefaultPerMoveDuration == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: per-move duration must be non-zero", ErrInvalidDuration))
	}
	if c.DefaultGlobalDuration == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: global duration must be non-zero", ErrInvalidDuration))
	}
	return result
}

// Template is the registered implementation of one game type.
// Cloning it produces fresh, uninitialized games sharing its configuration.
type Template struct {
	log     log.Logger
	addr    common.Address
	cfg     Config
	ledger  ledger.Ledger
	oracle  step.Oracle
	emitter event.Emitter
}

var _ types.Implementation = (*Template)(nil)

func NewTemplate(logger log.Logger, addr common.Address, cfg Config, l ledger.Ledger, oracle step.Oracle, emitter event.Emitter) (*Template, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid %s game config: %w", cfg.GameType, err)
	}
	if l == nil {
		return nil, ErrMissingLedger
	}
	if oracle == nil {
		return nil, ErrMissingOracle
	}
	if emitter == nil {
		emitter = event.NoopEmitter{}
	}
	return &Template{
		log:     logger.New("gameType", cfg.GameType),
		addr:    addr,
		cfg:     cfg,
		ledger:  l,
		oracle:  oracle,
		emitter: emitter,
	}, nil
}

func (t *Template) GameType() types.GameType {
	return t.cfg.GameType
}

func (t *Template) Address() common.Address {
	return t.addr
}

func (t *Template) Config() Config {
	return t.cfg
}

func (t *Template) Clone(args types.CloneArgs) types.Game {
	return newFaultDisputeGame(t, args)
}
