package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/ande-labs/ande/ande-dispute/flags"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
	oplog "github.com/ande-labs/ande/ande-service/log"
	opmetrics "github.com/ande-labs/ande/ande-service/metrics"
)

var (
	ErrMissingOwner          = errors.New("missing factory owner")
	ErrInvalidRPCPort        = errors.New("invalid RPC port")
	ErrInvalidMaxGameDepth   = errors.New("invalid max game depth")
	ErrInvalidDuration       = errors.New("invalid duration")
	ErrNoGameTypes           = errors.New("no game types enabled")
	ErrInvalidStepCacheSize  = errors.New("invalid step cache size")
	ErrInvalidFunding        = errors.New("invalid ledger funding")
	ErrInvalidMintRate       = errors.New("invalid mint rate")
	ErrBondAmountExceedsMax  = errors.New("bond amount exceeds max bond")
	ErrDuplicateGameType     = errors.New("duplicate game type")
	ErrUnsupportedFileFormat = errors.New("unsupported config file format")
)

type RPCConfig struct {
	ListenAddr string
	ListenPort int
}

type Config struct {
	Log     oplog.CLIConfig
	Metrics opmetrics.CLIConfig
	RPC     RPCConfig

	Owner           common.Address
	BondAmount      eth.ETH
	MaxGameDuration uint64

	MaxGameDepth    uint64
	PerMoveDuration uint64
	MaxBond         eth.ETH
	GameTypes       []types.GameType

	StepCacheSize int
	// JournalDir is empty for an in-memory journal.
	JournalDir string
	Funding    map[common.Address]eth.ETH
	// MintRate limits ledger_mint calls per second, 0 for no limit.
	MintRate float64

	Version string
}

func (c *Config) Check() error {
	var result error
	if err := c.Log.Check(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Metrics.Check(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.RPC.ListenPort < 0 || c.RPC.ListenPort > math.MaxUint16 {
		result = multierror.Append(result, fmt.Errorf("%w: %d", ErrInvalidRPCPort, c.RPC.ListenPort))
	}
	if c.Owner == (common.Address{}) {
		result = multierror.Append(result, ErrMissingOwner)
	}
	if c.MaxGameDuration == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: max game duration must be non-zero", ErrInvalidDuration))
	}
	if c.PerMoveDuration == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: per-move duration must be non-zero", ErrInvalidDuration))
	}
	if c.MaxGameDepth == 0 || c.MaxGameDepth > types.MaxPositionDepth {
		result = multierror.Append(result, fmt.Errorf("%w: %d must be in [1, %d]", ErrInvalidMaxGameDepth, c.MaxGameDepth, types.MaxPositionDepth))
	}
	if c.BondAmount.Gt(c.MaxBond) {
		result = multierror.Append(result, fmt.Errorf("%w: %s > %s", ErrBondAmountExceedsMax, c.BondAmount.EtherString(), c.MaxBond.EtherString()))
	}
	if len(c.GameTypes) == 0 {
		result = multierror.Append(result, ErrNoGameTypes)
	}
	seen := make(map[types.GameType]struct{})
	for _, gameType := range c.GameTypes {
		if !gameType.Valid() {
			result = multierror.Append(result, fmt.Errorf("%w: %d", types.ErrInvalidGameType, uint32(gameType)))
		}
		if _, ok := seen[gameType]; ok {
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrDuplicateGameType, gameType))
		}
		seen[gameType] = struct{}{}
	}
	if c.MintRate < 0 || math.IsNaN(c.MintRate) {
		result = multierror.Append(result, fmt.Errorf("%w: %v", ErrInvalidMintRate, c.MintRate))
	}
	if c.StepCacheSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: %d", ErrInvalidStepCacheSize, c.StepCacheSize))
	}
	return result
}

// NewConfig reads the config from the CLI flags, layered over the config file if one is given.
func NewConfig(ctx *cli.Context, version string) (*Config, error) {
	return NewConfigWithFs(ctx, afero.NewOsFs(), version)
}

// NewConfigWithFs is NewConfig reading the config file from fs.
func NewConfigWithFs(ctx *cli.Context, fs afero.Fs, version string) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, err
	}
	file := &File{}
	if path := ctx.Path(flags.ConfigFlag.Name); path != "" {
		var err error
		if file, err = LoadFile(fs, path); err != nil {
			return nil, err
		}
	}

	logCfg, err := oplog.ReadCLIConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}
	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if file.Metrics != nil {
		metricsCfg.Enabled = pick(ctx, opmetrics.EnabledFlagName, metricsCfg.Enabled, file.Metrics.Enabled)
		metricsCfg.ListenAddr = pick(ctx, opmetrics.ListenAddrFlagName, metricsCfg.ListenAddr, file.Metrics.ListenAddr)
		metricsCfg.ListenPort = pick(ctx, opmetrics.PortFlagName, metricsCfg.ListenPort, file.Metrics.ListenPort)
	}

	ownerStr := ctx.String(flags.OwnerFlag.Name)
	if !common.IsHexAddress(ownerStr) {
		return nil, fmt.Errorf("invalid owner address: %q", ownerStr)
	}

	bondAmount, err := eth.ParseEther(pick(ctx, flags.BondAmountFlag.Name, ctx.String(flags.BondAmountFlag.Name), file.Factory.BondAmount))
	if err != nil {
		return nil, fmt.Errorf("invalid bond amount: %w", err)
	}
	maxBond, err := eth.ParseEther(pick(ctx, flags.MaxBondFlag.Name, ctx.String(flags.MaxBondFlag.Name), file.Game.MaxBond))
	if err != nil {
		return nil, fmt.Errorf("invalid max bond: %w", err)
	}

	typeNames := ctx.StringSlice(flags.GameTypesFlag.Name)
	if !ctx.IsSet(flags.GameTypesFlag.Name) && len(file.Game.Types) > 0 {
		typeNames = file.Game.Types
	}
	gameTypes, err := parseGameTypes(typeNames)
	if err != nil {
		return nil, err
	}

	fundEntries := ctx.StringSlice(flags.FundFlag.Name)
	if !ctx.IsSet(flags.FundFlag.Name) && len(file.Ledger.Fund) > 0 {
		fundEntries = file.Ledger.Fund
	}
	funding, err := parseFunding(fundEntries)
	if err != nil {
		return nil, err
	}

	return &Config{
		Log:     logCfg,
		Metrics: metricsCfg,
		RPC: RPCConfig{
			ListenAddr: pick(ctx, flags.RPCListenAddrFlag.Name, ctx.String(flags.RPCListenAddrFlag.Name), file.RPC.ListenAddr),
			ListenPort: pick(ctx, flags.RPCListenPortFlag.Name, ctx.Int(flags.RPCListenPortFlag.Name), file.RPC.ListenPort),
		},
		Owner:           common.HexToAddress(ownerStr),
		BondAmount:      bondAmount,
		MaxGameDuration: pick(ctx, flags.MaxGameDurationFlag.Name, ctx.Uint64(flags.MaxGameDurationFlag.Name), file.Factory.MaxGameDuration),
		MaxGameDepth:    pick(ctx, flags.MaxGameDepthFlag.Name, ctx.Uint64(flags.MaxGameDepthFlag.Name), file.Game.MaxDepth),
		PerMoveDuration: pick(ctx, flags.PerMoveDurationFlag.Name, ctx.Uint64(flags.PerMoveDurationFlag.Name), file.Game.PerMoveDuration),
		MaxBond:         maxBond,
		GameTypes:       gameTypes,
		StepCacheSize:   pick(ctx, flags.StepCacheSizeFlag.Name, ctx.Int(flags.StepCacheSizeFlag.Name), file.Step.CacheSize),
		JournalDir:      pick(ctx, flags.JournalDirFlag.Name, ctx.Path(flags.JournalDirFlag.Name), file.Journal.Dir),
		Funding:         funding,
		MintRate:        pick(ctx, flags.MintRateFlag.Name, ctx.Float64(flags.MintRateFlag.Name), file.Ledger.MintRate),
		Version:         version,
	}, nil
}

// pick prefers an explicitly set flag, then a non-zero file value, then the flag default.
func pick[T comparable](ctx *cli.Context, name string, flagValue, fileValue T) T {
	var zero T
	if ctx.IsSet(name) || fileValue == zero {
		return flagValue
	}
	return fileValue
}

func parseGameTypes(names []string) ([]types.GameType, error) {
	out := make([]types.GameType, 0, len(names))
	for _, name := range names {
		gameType, err := types.ParseGameType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, gameType)
	}
	return out, nil
}

// parseFunding parses address=ether entries. Repeated addresses are summed.
func parseFunding(entries []string) (map[common.Address]eth.ETH, error) {
	out := make(map[common.Address]eth.ETH)
	for _, entry := range entries {
		addrStr, amountStr, ok := strings.Cut(entry, "=")
		if !ok || !common.IsHexAddress(strings.TrimSpace(addrStr)) {
			return nil, fmt.Errorf("%w: %q, expected address=ether", ErrInvalidFunding, entry)
		}
		amount, err := eth.ParseEther(amountStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidFunding, entry, err)
		}
		addr := common.HexToAddress(strings.TrimSpace(addrStr))
		sum, overflow := out[addr].AddOverflow(amount)
		if overflow {
			return nil, fmt.Errorf("%w: %s overflows", ErrInvalidFunding, addr)
		}
		out[addr] = sum
	}
	return out, nil
}
