// Package node hosts the dispute game factory behind a JSON-RPC server.
package node

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"

	"github.com/ande-labs/ande/ande-dispute/config"
	"github.com/ande-labs/ande/ande-dispute/event"
	"github.com/ande-labs/ande/ande-dispute/factory"
	"github.com/ande-labs/ande/ande-dispute/game"
	"github.com/ande-labs/ande/ande-dispute/journal"
	"github.com/ande-labs/ande/ande-dispute/ledger"
	"github.com/ande-labs/ande/ande-dispute/metrics"
	"github.com/ande-labs/ande/ande-dispute/rpc"
	"github.com/ande-labs/ande/ande-dispute/step"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/clock"
	opmetrics "github.com/ande-labs/ande/ande-service/metrics"
)

const (
	eventStreamPoll = 250 * time.Millisecond
	mintBurst       = 16
)

var (
	ErrNoStepOracle   = errors.New("no step oracle for game type")
	ErrAlreadyStopped = errors.New("already stopped")
)

type Option func(n *DisputeNode)

// WithClock replaces the wall clock driving ledger timestamps.
func WithClock(clk clock.Clock) Option {
	return func(n *DisputeNode) {
		n.clock = clk
	}
}

// WithOracle provides the step oracle of a game type.
// The validity type defaults to a cached keccak preimage oracle; the emulator types have no default.
func WithOracle(gameType types.GameType, oracle step.Oracle) Option {
	return func(n *DisputeNode) {
		n.oracles[gameType] = oracle
	}
}

type DisputeNode struct {
	log     log.Logger
	cfg     *config.Config
	clock   clock.Clock
	oracles map[types.GameType]step.Oracle

	ledger    *ledger.Memory
	bus       *event.Bus
	journal   journal.Journal
	metrics   metrics.Metricer
	registry  opmetrics.RegistryMetricer
	templates map[types.GameType]types.Implementation
	factory   *factory.DisputeGameFactory

	rpcServer     *rpc.Server
	eventStream   *rpc.EventStream
	metricsServer *opmetrics.Server

	stopped atomic.Bool
}

// FactoryAddress is where the factory of an owner lives. Templates follow at the next nonces.
func FactoryAddress(owner common.Address) common.Address {
	return crypto.CreateAddress(owner, 0)
}

func New(ctx context.Context, logger log.Logger, cfg *config.Config, opts ...Option) (*DisputeNode, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	n := &DisputeNode{
		log:     logger,
		cfg:     cfg,
		clock:   clock.SystemClock,
		oracles: make(map[types.GameType]step.Oracle),
	}
	for _, opt := range opts {
		opt(n)
	}
	if err := n.init(); err != nil {
		return nil, multierror.Append(err, n.Stop(ctx))
	}
	return n, nil
}

func (n *DisputeNode) init() error {
	n.initMetrics()
	n.ledger = ledger.NewMemory(n.log.New("component", "ledger"), n.clock)
	for addr, amount := range n.cfg.Funding {
		if err := n.ledger.Mint(addr, amount); err != nil {
			return fmt.Errorf("failed to fund %s: %w", addr, err)
		}
	}
	if err := n.initJournal(); err != nil {
		return err
	}
	n.bus = event.NewBus(n.log.New("component", "events"))
	n.bus.AddDeriver(journal.NewRecorder(n.log.New("component", "journal"), n.journal))
	n.bus.AddDeriver(metrics.NewDeriver(n.metrics))

	factoryAddr := FactoryAddress(n.cfg.Owner)
	n.factory = factory.NewDisputeGameFactory(n.log.New("component", "factory"), factory.Config{
		Address:         factoryAddr,
		Owner:           n.cfg.Owner,
		BondAmount:      n.cfg.BondAmount,
		MaxGameDuration: n.cfg.MaxGameDuration,
	}, n.bus)
	if err := n.initTemplates(); err != nil {
		return err
	}
	return n.initRPC()
}

func (n *DisputeNode) initMetrics() {
	if !n.cfg.Metrics.Enabled {
		n.metrics = metrics.NoopMetrics
		return
	}
	m := metrics.NewMetrics("default")
	n.metrics = m
	n.registry = m
}

func (n *DisputeNode) initJournal() error {
	if n.cfg.JournalDir == "" {
		n.journal = journal.NewMemory()
		return nil
	}
	db, err := journal.OpenDB(n.log.New("component", "journal"), n.cfg.JournalDir, nil)
	if err != nil {
		return err
	}
	n.journal = db
	return nil
}

func (n *DisputeNode) oracle(gameType types.GameType) (step.Oracle, error) {
	if oracle, ok := n.oracles[gameType]; ok {
		return oracle, nil
	}
	if gameType != types.ValidityGameType {
		return nil, fmt.Errorf("%w: %s", ErrNoStepOracle, gameType)
	}
	return step.NewCachingOracle(step.KeccakOracle{}, n.cfg.StepCacheSize)
}

func (n *DisputeNode) initTemplates() error {
	n.templates = make(map[types.GameType]types.Implementation)
	for i, gameType := range n.cfg.GameTypes {
		oracle, err := n.oracle(gameType)
		if err != nil {
			return err
		}
		tmpl, err := game.NewTemplate(n.log.New("component", "game"), crypto.CreateAddress(n.cfg.Owner, uint64(i)+1), game.Config{
			GameType:               gameType,
			MaxGameDepth:           n.cfg.MaxGameDepth,
			DefaultPerMoveDuration: n.cfg.PerMoveDuration,
			DefaultGlobalDuration:  n.cfg.MaxGameDuration,
			DefaultMinBond:         n.cfg.BondAmount,
			DefaultMaxBond:         n.cfg.MaxBond,
		}, n.ledger, oracle, n.bus)
		if err != nil {
			return err
		}
		if err := n.factory.SetImplementation(n.cfg.Owner, gameType, tmpl); err != nil {
			return fmt.Errorf("failed to register %s template: %w", gameType, err)
		}
		n.templates[gameType] = tmpl
	}
	return nil
}

func (n *DisputeNode) initRPC() error {
	var mintLimit *rate.Limiter
	if n.cfg.MintRate > 0 {
		mintLimit = rate.NewLimiter(rate.Limit(n.cfg.MintRate), mintBurst)
	}
	srv, err := rpc.NewServer(n.log.New("component", "rpc"), []gethrpc.API{
		{Namespace: rpc.DisputeNamespace, Service: rpc.NewDisputeAPI(n.log, n.factory, n.journal)},
		{Namespace: rpc.AdminNamespace, Service: rpc.NewAdminAPI(n.log, n.factory, n.templates)},
		{Namespace: rpc.LedgerNamespace, Service: rpc.NewLedgerAPI(n.ledger, mintLimit)},
	})
	if err != nil {
		return err
	}
	n.eventStream = rpc.NewEventStream(n.log.New("component", "event-stream"), n.journal, eventStreamPoll)
	srv.Handle(rpc.EventStreamPath, n.eventStream)
	n.rpcServer = srv
	return nil
}

func (n *DisputeNode) Start(ctx context.Context) error {
	if n.registry != nil {
		srv, err := opmetrics.StartServer(n.registry.Registry(), n.cfg.Metrics.ListenAddr, n.cfg.Metrics.ListenPort)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		n.metricsServer = srv
		n.log.Info("Started metrics server", "addr", srv.Addr())
	}
	if err := n.rpcServer.Start(n.cfg.RPC.ListenAddr, n.cfg.RPC.ListenPort); err != nil {
		if n.metricsServer != nil {
			if stopErr := n.metricsServer.Stop(ctx); stopErr != nil {
				err = multierror.Append(err, fmt.Errorf("failed to stop metrics server: %w", stopErr))
			}
			n.metricsServer = nil
		}
		return err
	}
	n.metrics.RecordInfo(n.cfg.Version)
	n.metrics.RecordUp()
	n.log.Info("Dispute node started", "factory", n.factory.Address(), "owner", n.cfg.Owner,
		"gameTypes", n.cfg.GameTypes, "rpc", n.rpcServer.Endpoint())
	return nil
}

func (n *DisputeNode) Stop(ctx context.Context) error {
	if n.stopped.Swap(true) {
		return ErrAlreadyStopped
	}
	var result error
	if n.eventStream != nil {
		n.eventStream.Close()
	}
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to stop RPC server: %w", err))
		}
	}
	if n.metricsServer != nil {
		if err := n.metricsServer.Stop(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	if n.journal != nil {
		if err := n.journal.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close journal: %w", err))
		}
	}
	if result == nil {
		n.log.Info("Dispute node stopped")
	}
	return result
}

func (n *DisputeNode) Stopped() bool {
	return n.stopped.Load()
}

func (n *DisputeNode) Factory() *factory.DisputeGameFactory {
	return n.factory
}

func (n *DisputeNode) Ledger() *ledger.Memory {
	return n.ledger
}

// EventStreamURL is the websocket endpoint streaming the event journal.
func (n *DisputeNode) EventStreamURL() string {
	endpoint := n.rpcServer.Endpoint()
	if endpoint == "" {
		return ""
	}
	return "ws" + strings.TrimPrefix(endpoint, "http") + rpc.EventStreamPath
}

func (n *DisputeNode) RPCEndpoint() string {
	return n.rpcServer.Endpoint()
}

func (n *DisputeNode) MetricsAddr() string {
	if n.metricsServer == nil {
		return ""
	}
	return n.metricsServer.Addr().String()
}
