package rpc

import (
	"context"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/factory"
	"github.com/ande-labs/ande/ande-dispute/game"
	"github.com/ande-labs/ande/ande-dispute/journal"
	"github.com/ande-labs/ande/ande-dispute/ledger"
	"github.com/ande-labs/ande/ande-dispute/step"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/clock"
	"github.com/ande-labs/ande/ande-service/eth"
	"github.com/ande-labs/ande/ande-service/testlog"
)

var (
	factoryAddr = common.Address{0xfa}
	owner       = common.Address{0x0e}
	alice       = common.Address{0xa1}
	bob         = common.Address{0xb0}
)

type testNode struct {
	clock  *clock.DeterministicClock
	server *Server
	client *gethrpc.Client
}

func newTestNode(t *testing.T) *testNode {
	logger := testlog.Logger(t, slog.LevelDebug)
	clk := clock.NewDeterministicClock(time.Unix(1_700_000_000, 0))
	l := ledger.NewMemory(logger, clk)
	bus := event.NewBus(logger)
	j := journal.NewMemory()
	bus.AddDeriver(journal.NewRecorder(logger, j))
	f := factory.NewDisputeGameFactory(logger, factory.Config{
		Address:         factoryAddr,
		Owner:           owner,
		BondAmount:      eth.GWei(100),
		MaxGameDuration: 1000,
	}, bus)
	tmpl, err := game.NewTemplate(logger, common.Address{0x7e}, game.Config{
		GameType:               types.ValidityGameType,
		MaxGameDepth:           2,
		DefaultPerMoveDuration: 500,
		DefaultGlobalDuration:  1000,
		DefaultMinBond:         eth.GWei(1),
		DefaultMaxBond:         eth.Ether(1),
	}, l, step.KeccakOracle{}, bus)
	require.NoError(t, err)

	srv, err := NewServer(logger, []gethrpc.API{
		{Namespace: DisputeNamespace, Service: NewDisputeAPI(logger, f, j)},
		{Namespace: AdminNamespace, Service: NewAdminAPI(logger, f, map[types.GameType]types.Implementation{types.ValidityGameType: tmpl})},
		{Namespace: LedgerNamespace, Service: NewLedgerAPI(l, nil)},
	})
	require.NoError(t, err)
	client := srv.InProc()
	t.Cleanup(func() {
		client.Close()
		require.NoError(t, srv.Stop(context.Background()))
	})
	return &testNode{clock: clk, server: srv, client: client}
}

func TestDisputeFlow(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	c := n.client

	require.NoError(t, c.CallContext(ctx, nil, "ledger_mint", alice, eth.Ether(1)))
	require.NoError(t, c.CallContext(ctx, nil, "ledger_mint", bob, eth.Ether(1)))

	var addr common.Address
	err := c.CallContext(ctx, &addr, "dispute_createGame", CreateGameArgs{From: alice, Value: eth.GWei(100), GameType: types.ValidityGameType, RootClaim: common.Hash{0x01}})
	require.ErrorContains(t, err, types.ErrGameTypeNotInitialized.Error())

	err = c.CallContext(ctx, nil, "admin_setImplementation", alice, types.ValidityGameType)
	require.ErrorContains(t, err, types.ErrNotOwner.Error())
	var impl common.Address
	require.NoError(t, c.CallContext(ctx, &impl, "admin_setImplementation", owner, types.ValidityGameType))
	require.Equal(t, common.Address{0x7e}, impl)
	err = c.CallContext(ctx, nil, "admin_setImplementation", owner, types.CannonGameType)
	require.ErrorContains(t, err, types.ErrInvalidImplementation.Error())

	require.NoError(t, c.CallContext(ctx, &addr, "dispute_createGame", CreateGameArgs{From: alice, Value: eth.GWei(100), GameType: types.ValidityGameType, RootClaim: common.Hash{0x01}}))
	require.Equal(t, crypto.CreateAddress(factoryAddr, 0), addr)

	var count hexutil.Uint64
	require.NoError(t, c.CallContext(ctx, &count, "dispute_gameCount"))
	require.Equal(t, hexutil.Uint64(1), count)

	var bond eth.ETH
	require.NoError(t, c.CallContext(ctx, &bond, "dispute_requiredBond", addr, types.RootPosition().Attack()))
	require.Equal(t, eth.WeiU64(108_930_000_000), bond)

	var index hexutil.Uint64
	require.NoError(t, c.CallContext(ctx, &index, "dispute_attack", MoveArgs{Game: addr, From: bob, Value: bond, ParentIndex: 0, Claim: common.Hash{0xbb}}))
	require.Equal(t, hexutil.Uint64(1), index)
	err = c.CallContext(ctx, &index, "dispute_defend", MoveArgs{Game: addr, From: bob, Value: eth.ZeroWei, ParentIndex: 1, Claim: common.Hash{0xcc}})
	require.ErrorContains(t, err, types.ErrInsufficientBond.Error())

	var claims []types.Claim
	require.NoError(t, c.CallContext(ctx, &claims, "dispute_claims", addr))
	require.Len(t, claims, 2)
	require.True(t, claims[0].Countered)
	require.Equal(t, bob, claims[1].Claimant)
	require.Equal(t, types.RootPosition().Attack(), claims[1].Position)

	var atNode []hexutil.Uint64
	require.NoError(t, c.CallContext(ctx, &atNode, "dispute_claimsAt", addr, hexutil.Uint64(1), (*hexutil.Big)(big.NewInt(0))))
	require.Equal(t, []hexutil.Uint64{1}, atNode)
	require.NoError(t, c.CallContext(ctx, &atNode, "dispute_claimsAt", addr, hexutil.Uint64(1), (*hexutil.Big)(big.NewInt(1))))
	require.Empty(t, atNode)
	err = c.CallContext(ctx, &atNode, "dispute_claimsAt", addr, hexutil.Uint64(1), (*hexutil.Big)(big.NewInt(2)))
	require.ErrorContains(t, err, types.ErrInvalidPosition.Error())

	var claim types.Claim
	require.NoError(t, c.CallContext(ctx, &claim, "dispute_getClaim", addr, hexutil.Uint64(1)))
	require.Equal(t, claims[1], claim)

	var status types.GameStatus
	err = c.CallContext(ctx, &status, "dispute_resolve", addr, alice)
	require.ErrorContains(t, err, types.ErrCannotResolveYet.Error())

	n.clock.AdvanceTime(1000 * time.Second)
	require.NoError(t, c.CallContext(ctx, &status, "dispute_resolve", addr, alice))
	require.Equal(t, types.GameStatusChallengerWon, status)

	var games []GameView
	require.NoError(t, c.CallContext(ctx, &games, "dispute_getGames", hexutil.Uint64(0), hexutil.Uint64(10)))
	require.Len(t, games, 1)
	require.Equal(t, addr, games[0].Address)
	require.Equal(t, types.GameStatusChallengerWon, games[0].Status)
	require.Equal(t, hexutil.Uint64(2), games[0].ClaimCount)
	require.NotNil(t, games[0].Settings)
	require.Equal(t, eth.GWei(100), games[0].Settings.MinBond)

	var balance eth.ETH
	require.NoError(t, c.CallContext(ctx, &balance, "ledger_balance", bob))
	require.Equal(t, eth.Ether(1).Add(eth.GWei(100)), balance)

	var records []journal.Record
	require.NoError(t, c.CallContext(ctx, &records, "dispute_events", hexutil.Uint64(0), hexutil.Uint64(0)))
	var kinds []string
	for _, r := range records {
		kinds = append(kinds, r.Kind)
	}
	require.Equal(t, []string{"implementation-set", "game-created", "claim-added", "game-status-changed"}, kinds)
}

func TestUnknownGame(t *testing.T) {
	n := newTestNode(t)
	var view GameView
	err := n.client.CallContext(context.Background(), &view, "dispute_getGame", common.Address{0x42})
	require.ErrorContains(t, err, types.ErrUnknownGame.Error())

	err = n.client.CallContext(context.Background(), nil, "dispute_getGames", hexutil.Uint64(0), hexutil.Uint64(1))
	require.ErrorContains(t, err, types.ErrOffsetOutOfBounds.Error())
}

func TestAdminSettings(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	c := n.client

	var amount eth.ETH
	require.NoError(t, c.CallContext(ctx, &amount, "admin_bondAmount"))
	require.Equal(t, eth.GWei(100), amount)
	require.NoError(t, c.CallContext(ctx, nil, "admin_setBondAmount", owner, eth.Ether(1)))
	require.NoError(t, c.CallContext(ctx, &amount, "admin_bondAmount"))
	require.Equal(t, eth.Ether(1), amount)

	var duration hexutil.Uint64
	require.NoError(t, c.CallContext(ctx, nil, "admin_setMaxGameDuration", owner, hexutil.Uint64(42)))
	require.NoError(t, c.CallContext(ctx, &duration, "admin_maxGameDuration"))
	require.Equal(t, hexutil.Uint64(42), duration)

	var impl *common.Address
	require.NoError(t, c.CallContext(ctx, &impl, "admin_gameImpl", types.ValidityGameType))
	require.Nil(t, impl)

	require.NoError(t, c.CallContext(ctx, nil, "admin_transferOwnership", owner, alice))
	var current common.Address
	require.NoError(t, c.CallContext(ctx, &current, "admin_owner"))
	require.Equal(t, alice, current)
	err := c.CallContext(ctx, nil, "admin_setBondAmount", owner, eth.Ether(2))
	require.ErrorContains(t, err, types.ErrNotOwner.Error())
}

func TestServerOverHTTP(t *testing.T) {
	n := newTestNode(t)
	require.NoError(t, n.server.Start("127.0.0.1", 0))
	client, err := gethrpc.DialContext(context.Background(), n.server.Endpoint())
	require.NoError(t, err)
	defer client.Close()

	var ts hexutil.Uint64
	require.NoError(t, client.CallContext(context.Background(), &ts, "ledger_timestamp"))
	require.Equal(t, hexutil.Uint64(1_700_000_000), ts)
}

func TestMintRateLimit(t *testing.T) {
	l := ledger.NewMemory(testlog.Logger(t, slog.LevelInfo), clock.NewDeterministicClock(time.Unix(0, 0)))
	api := NewLedgerAPI(l, rate.NewLimiter(0, 2))
	require.NoError(t, api.Mint(alice, eth.Ether(1)))
	require.NoError(t, api.Mint(alice, eth.Ether(1)))
	require.ErrorIs(t, api.Mint(alice, eth.Ether(1)), ErrMintRateLimited)
	require.Equal(t, eth.Ether(2), api.Balance(alice))
}
