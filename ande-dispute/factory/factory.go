// Package factory registers game implementations per game type, and creates and
// tracks every game instance spawned from them.
package factory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

type Config struct {
	// Address is the identity of the factory itself. Games only accept initialization from it.
	Address         common.Address
	Owner           common.Address
	BondAmount      eth.ETH
	MaxGameDuration uint64
}

// GameEntry is the record of one created game.
type GameEntry struct {
	Index     uint64         `json:"index"`
	GameType  types.GameType `json:"gameType"`
	Address   common.Address `json:"address"`
	RootClaim common.Hash    `json:"rootClaim"`
	CreatedAt uint64         `json:"createdAt"`
	Game      types.Game     `json:"-"`
}

// DisputeGameFactory is safe for concurrent use. Calls into games it creates are made
// while holding the factory lock, never the other way around.
type DisputeGameFactory struct {
	log     log.Logger
	addr    common.Address
	emitter event.Emitter

	mu              sync.RWMutex
	owner           common.Address
	bondAmount      eth.ETH
	maxGameDuration uint64
	impls           map[types.GameType]types.Implementation
	games           []GameEntry
	gameIndex       map[common.Address]uint64
}

func NewDisputeGameFactory(logger log.Logger, cfg Config, emitter event.Emitter) *DisputeGameFactory {
	if emitter == nil {
		emitter = event.NoopEmitter{}
	}
	return &DisputeGameFactory{
		log:             logger,
		addr:            cfg.Address,
		emitter:         emitter,
		owner:           cfg.Owner,
		bondAmount:      cfg.BondAmount,
		maxGameDuration: cfg.MaxGameDuration,
		impls:           make(map[types.GameType]types.Implementation),
		gameIndex:       make(map[common.Address]uint64),
	}
}

func (f *DisputeGameFactory) Address() common.Address {
	return f.addr
}

func (f *DisputeGameFactory) Owner() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.owner
}

func (f *DisputeGameFactory) BondAmount() eth.ETH {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bondAmount
}

func (f *DisputeGameFactory) MaxGameDuration() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.maxGameDuration
}

func (f *DisputeGameFactory) checkOwner(caller common.Address) error {
	if caller != f.owner {
		return fmt.Errorf("%w: %s", types.ErrNotOwner, caller)
	}
	return nil
}

func (f *DisputeGameFactory) TransferOwnership(caller, newOwner common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	f.log.Info("Transferred factory ownership", "from", f.owner, "to", newOwner)
	f.owner = newOwner
	return nil
}

// SetImplementation registers the template for a game type, replacing any previous one.
// Games created before the call keep running on the template they were cloned from.
func (f *DisputeGameFactory) SetImplementation(caller common.Address, gameType types.GameType, impl types.Implementation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	if !gameType.Valid() {
		return fmt.Errorf("%w: %d", types.ErrInvalidGameType, uint32(gameType))
	}
	if impl == nil {
		return fmt.Errorf("%w: nil implementation for %s", types.ErrInvalidImplementation, gameType)
	}
	if impl.GameType() != gameType {
		return fmt.Errorf("%w: implementation of %s registered as %s", types.ErrInvalidImplementation, impl.GameType(), gameType)
	}
	f.impls[gameType] = impl
	f.log.Info("Set game implementation", "gameType", gameType, "impl", impl.Address())
	f.emitter.Emit(event.ImplementationSetEvent{GameType: gameType, Impl: impl.Address()})
	return nil
}

// GameImpl returns the template registered for the game type.
func (f *DisputeGameFactory) GameImpl(gameType types.GameType) (types.Implementation, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	impl, ok := f.impls[gameType]
	return impl, ok
}

func (f *DisputeGameFactory) SetBondAmount(caller common.Address, amount eth.ETH) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	f.log.Info("Set bond amount", "old", f.bondAmount, "new", amount)
	f.bondAmount = amount
	return nil
}

func (f *DisputeGameFactory) SetMaxGameDuration(caller common.Address, duration uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOwner(caller); err != nil {
		return err
	}
	f.log.Info("Set max game duration", "old", f.maxGameDuration, "new", duration)
	f.maxGameDuration = duration
	return nil
}

// Create spawns and initializes a new game. The attached value becomes the root bond,
// and the caller the creator. Nothing is recorded if the game fails to initialize.
func (f *DisputeGameFactory) Create(ctx context.Context, call types.Call, gameType types.GameType, rootClaim common.Hash, extraData []byte) (types.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if call.Value.Lt(f.bondAmount) {
		return nil, fmt.Errorf("%w: requires %s, got %s", types.ErrInsufficientBond, f.bondAmount, call.Value)
	}
	impl, ok := f.impls[gameType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrGameTypeNotInitialized, gameType)
	}
	index := uint64(len(f.games))
	addr := crypto.CreateAddress(f.addr, index)
	game := impl.Clone(types.CloneArgs{
		Factory:         f.addr,
		Address:         addr,
		MinBond:         f.bondAmount,
		MaxGameDuration: f.maxGameDuration,
	})
	if game == nil {
		return nil, fmt.Errorf("%w: %s template returned no game", types.ErrInvalidImplementation, gameType)
	}
	if err := game.Initialize(ctx, f.addr, call.Value, rootClaim, call.From, extraData); err != nil {
		return nil, fmt.Errorf("failed to initialize %s game: %w", gameType, err)
	}
	f.games = append(f.games, GameEntry{
		Index:     index,
		GameType:  gameType,
		Address:   addr,
		RootClaim: rootClaim,
		CreatedAt: game.CreatedAt(),
		Game:      game,
	})
	f.gameIndex[addr] = index

	f.log.Info("Created game", "index", index, "game", addr, "gameType", gameType,
		"rootClaim", rootClaim, "creator", call.From, "bond", call.Value)
	f.emitter.Emit(event.GameCreatedEvent{
		Game:      addr,
		GameType:  gameType,
		RootClaim: rootClaim,
		Creator:   call.From,
		Bond:      call.Value,
	})
	return game, nil
}

func (f *DisputeGameFactory) GameCount() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint64(len(f.games))
}

// GetGames returns up to limit games starting at offset, in creation order.
func (f *DisputeGameFactory) GetGames(offset, limit uint64) ([]GameEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	count := uint64(len(f.games))
	if offset >= count {
		return nil, fmt.Errorf("%w: offset %d, %d games", types.ErrOffsetOutOfBounds, offset, count)
	}
	end := count
	if limit < count-offset {
		end = offset + limit
	}
	return append([]GameEntry(nil), f.games[offset:end]...), nil
}

func (f *DisputeGameFactory) GameAtIndex(index uint64) (GameEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if index >= uint64(len(f.games)) {
		return GameEntry{}, fmt.Errorf("%w: index %d, %d games", types.ErrOffsetOutOfBounds, index, len(f.games))
	}
	return f.games[index], nil
}

func (f *DisputeGameFactory) GameByAddress(addr common.Address) (GameEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	index, ok := f.gameIndex[addr]
	if !ok {
		return GameEntry{}, fmt.Errorf("%w: %s", types.ErrUnknownGame, addr)
	}
	return f.games[index], nil
}
