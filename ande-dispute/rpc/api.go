package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"github.com/ande-labs/ande/ande-dispute/factory"
	"github.com/ande-labs/ande/ande-dispute/game"
	"github.com/ande-labs/ande/ande-dispute/journal"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

var (
	ErrNotInspectable  = errors.New("game does not expose its claim tree")
	ErrMintRateLimited = errors.New("mint rate limit exceeded")
)

type GameView struct {
	Index      hexutil.Uint64   `json:"index"`
	Address    common.Address   `json:"address"`
	GameType   types.GameType   `json:"gameType"`
	Status     types.GameStatus `json:"status"`
	RootClaim  common.Hash      `json:"rootClaim"`
	Creator    common.Address   `json:"creator"`
	CreatedAt  hexutil.Uint64   `json:"createdAt"`
	ResolvedAt hexutil.Uint64   `json:"resolvedAt"`
	ClaimCount hexutil.Uint64   `json:"claimCount"`
	Settings   *game.Settings   `json:"settings,omitempty"`
}

func toGameView(entry factory.GameEntry) GameView {
	g := entry.Game
	view := GameView{
		Index:      hexutil.Uint64(entry.Index),
		Address:    entry.Address,
		GameType:   entry.GameType,
		Status:     g.Status(),
		RootClaim:  g.RootClaim(),
		Creator:    g.Creator(),
		CreatedAt:  hexutil.Uint64(g.CreatedAt()),
		ResolvedAt: hexutil.Uint64(g.ResolvedAt()),
		ClaimCount: hexutil.Uint64(g.ClaimCount()),
	}
	if in, ok := g.(Inspectable); ok {
		settings := in.Settings()
		view.Settings = &settings
	}
	return view
}

type CreateGameArgs struct {
	From      common.Address `json:"from"`
	Value     eth.ETH        `json:"value"`
	GameType  types.GameType `json:"gameType"`
	RootClaim common.Hash    `json:"rootClaim"`
	ExtraData hexutil.Bytes  `json:"extraData"`
}

type MoveArgs struct {
	Game        common.Address `json:"game"`
	From        common.Address `json:"from"`
	Value       eth.ETH        `json:"value"`
	ParentIndex hexutil.Uint64 `json:"parentIndex"`
	Claim       common.Hash    `json:"claim"`
}

type StepArgs struct {
	Game       common.Address `json:"game"`
	From       common.Address `json:"from"`
	ClaimIndex hexutil.Uint64 `json:"claimIndex"`
	StateData  hexutil.Bytes  `json:"stateData"`
}

// DisputeAPI is served in the dispute namespace.
type DisputeAPI struct {
	log     log.Logger
	factory FactoryBackend
	events  EventSource
}

func NewDisputeAPI(logger log.Logger, f FactoryBackend, events EventSource) *DisputeAPI {
	return &DisputeAPI{log: logger, factory: f, events: events}
}

func (api *DisputeAPI) game(addr common.Address) (types.Game, error) {
	entry, err := api.factory.GameByAddress(addr)
	if err != nil {
		return nil, err
	}
	return entry.Game, nil
}

func (api *DisputeAPI) inspect(addr common.Address) (Inspectable, error) {
	g, err := api.game(addr)
	if err != nil {
		return nil, err
	}
	in, ok := g.(Inspectable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInspectable, addr)
	}
	return in, nil
}

func (api *DisputeAPI) CreateGame(ctx context.Context, args CreateGameArgs) (common.Address, error) {
	g, err := api.factory.Create(ctx, types.Call{From: args.From, Value: args.Value}, args.GameType, args.RootClaim, args.ExtraData)
	if err != nil {
		api.log.Debug("Failed to create game", "from", args.From, "gameType", args.GameType, "err", err)
		return common.Address{}, err
	}
	return g.GameAddress(), nil
}

func (api *DisputeAPI) Attack(ctx context.Context, args MoveArgs) (hexutil.Uint64, error) {
	g, err := api.game(args.Game)
	if err != nil {
		return 0, err
	}
	index, err := g.Attack(ctx, types.Call{From: args.From, Value: args.Value}, uint64(args.ParentIndex), args.Claim)
	return hexutil.Uint64(index), err
}

func (api *DisputeAPI) Defend(ctx context.Context, args MoveArgs) (hexutil.Uint64, error) {
	g, err := api.game(args.Game)
	if err != nil {
		return 0, err
	}
	index, err := g.Defend(ctx, types.Call{From: args.From, Value: args.Value}, uint64(args.ParentIndex), args.Claim)
	return hexutil.Uint64(index), err
}

func (api *DisputeAPI) Step(ctx context.Context, args StepArgs) error {
	g, err := api.game(args.Game)
	if err != nil {
		return err
	}
	return g.Step(ctx, args.From, uint64(args.ClaimIndex), args.StateData)
}

func (api *DisputeAPI) Resolve(ctx context.Context, addr common.Address, from common.Address) (types.GameStatus, error) {
	g, err := api.game(addr)
	if err != nil {
		return types.GameStatusInProgress, err
	}
	return g.Resolve(ctx, from)
}

func (api *DisputeAPI) GameCount() hexutil.Uint64 {
	return hexutil.Uint64(api.factory.GameCount())
}

func (api *DisputeAPI) GetGames(offset, limit hexutil.Uint64) ([]GameView, error) {
	entries, err := api.factory.GetGames(uint64(offset), uint64(limit))
	if err != nil {
		return nil, err
	}
	views := make([]GameView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, toGameView(entry))
	}
	return views, nil
}

func (api *DisputeAPI) GetGame(addr common.Address) (GameView, error) {
	entry, err := api.factory.GameByAddress(addr)
	if err != nil {
		return GameView{}, err
	}
	return toGameView(entry), nil
}

func (api *DisputeAPI) GetClaim(addr common.Address, index hexutil.Uint64) (types.Claim, error) {
	g, err := api.game(addr)
	if err != nil {
		return types.Claim{}, err
	}
	return g.GetClaim(uint64(index))
}

func (api *DisputeAPI) Claims(addr common.Address) ([]types.Claim, error) {
	in, err := api.inspect(addr)
	if err != nil {
		return nil, err
	}
	return in.Claims(), nil
}

func (api *DisputeAPI) RequiredBond(addr common.Address, pos types.Position) (eth.ETH, error) {
	in, err := api.inspect(addr)
	if err != nil {
		return eth.ZeroWei, err
	}
	if !pos.Valid() || pos.Depth() > in.MaxGameDepth() {
		return eth.ZeroWei, fmt.Errorf("%w: position %s", types.ErrMaxDepthReached, pos)
	}
	return in.RequiredBond(pos), nil
}

// ClaimsAt returns the indices of the claims at the node with the given depth and
// index from the left of that depth.
func (api *DisputeAPI) ClaimsAt(addr common.Address, depth hexutil.Uint64, indexAtDepth *hexutil.Big) ([]hexutil.Uint64, error) {
	in, err := api.inspect(addr)
	if err != nil {
		return nil, err
	}
	if indexAtDepth == nil {
		return nil, fmt.Errorf("%w: missing index", types.ErrInvalidPosition)
	}
	pos, err := types.NewPosition(uint64(depth), indexAtDepth.ToInt())
	if err != nil {
		return nil, err
	}
	indices := in.ClaimsAt(pos)
	out := make([]hexutil.Uint64, len(indices))
	for i, idx := range indices {
		out[i] = hexutil.Uint64(idx)
	}
	return out, nil
}

// SubGameWinner returns the recorded step winner of a claim, or nil if it was not stepped.
func (api *DisputeAPI) SubGameWinner(addr common.Address, index hexutil.Uint64) (*common.Address, error) {
	in, err := api.inspect(addr)
	if err != nil {
		return nil, err
	}
	winner, ok := in.SubGameWinner(uint64(index))
	if !ok {
		return nil, nil
	}
	return &winner, nil
}

func (api *DisputeAPI) Events(from, limit hexutil.Uint64) ([]journal.Record, error) {
	return api.events.Range(uint64(from), uint64(limit))
}

// AdminAPI is served in the admin namespace. Every call is checked against the factory owner.
type AdminAPI struct {
	log       log.Logger
	factory   FactoryBackend
	templates map[types.GameType]types.Implementation
}

// NewAdminAPI takes the templates the node can register. Only those game types can be enabled.
func NewAdminAPI(logger log.Logger, f FactoryBackend, templates map[types.GameType]types.Implementation) *AdminAPI {
	return &AdminAPI{log: logger, factory: f, templates: templates}
}

func (api *AdminAPI) Owner() common.Address {
	return api.factory.Owner()
}

func (api *AdminAPI) SetImplementation(caller common.Address, gameType types.GameType) (common.Address, error) {
	impl, ok := api.templates[gameType]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: no template for %s", types.ErrInvalidImplementation, gameType)
	}
	if err := api.factory.SetImplementation(caller, gameType, impl); err != nil {
		return common.Address{}, err
	}
	return impl.Address(), nil
}

func (api *AdminAPI) GameImpl(gameType types.GameType) (*common.Address, error) {
	impl, ok := api.factory.GameImpl(gameType)
	if !ok {
		return nil, nil
	}
	addr := impl.Address()
	return &addr, nil
}

func (api *AdminAPI) BondAmount() eth.ETH {
	return api.factory.BondAmount()
}

func (api *AdminAPI) SetBondAmount(caller common.Address, amount eth.ETH) error {
	return api.factory.SetBondAmount(caller, amount)
}

func (api *AdminAPI) MaxGameDuration() hexutil.Uint64 {
	return hexutil.Uint64(api.factory.MaxGameDuration())
}

func (api *AdminAPI) SetMaxGameDuration(caller common.Address, duration hexutil.Uint64) error {
	return api.factory.SetMaxGameDuration(caller, uint64(duration))
}

func (api *AdminAPI) TransferOwnership(caller, newOwner common.Address) error {
	return api.factory.TransferOwnership(caller, newOwner)
}

// LedgerAPI is served in the ledger namespace.
type LedgerAPI struct {
	ledger    LedgerBackend
	mintLimit *rate.Limiter
}

// NewLedgerAPI serves the ledger. A nil mintLimit leaves minting unlimited.
func NewLedgerAPI(l LedgerBackend, mintLimit *rate.Limiter) *LedgerAPI {
	return &LedgerAPI{ledger: l, mintLimit: mintLimit}
}

func (api *LedgerAPI) Timestamp() hexutil.Uint64 {
	return hexutil.Uint64(api.ledger.Timestamp())
}

func (api *LedgerAPI) Balance(addr common.Address) eth.ETH {
	return api.ledger.Balance(addr)
}

func (api *LedgerAPI) Mint(addr common.Address, amount eth.ETH) error {
	if api.mintLimit != nil && !api.mintLimit.Allow() {
		return ErrMintRateLimited
	}
	return api.ledger.Mint(addr, amount)
}
