package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opflags "github.com/ande-labs/ande/ande-service/flags"
	oplog "github.com/ande-labs/ande/ande-service/log"
	opmetrics "github.com/ande-labs/ande/ande-service/metrics"
)

const EnvVarPrefix = "ANDE_DISPUTE"

func prefixEnvVars(name string) []string {
	return opflags.PrefixEnvVar(EnvVarPrefix, name)
}

var (
	// Required Flags
	OwnerFlag = &cli.StringFlag{
		Name:    "owner",
		Usage:   "Address of the factory owner, allowed to register game types and change factory settings",
		EnvVars: prefixEnvVars("OWNER"),
	}

	// Optional Flags
	ConfigFlag = &cli.PathFlag{
		Name:    "config",
		Usage:   "Path to a TOML or YAML config file. Flags set explicitly take precedence",
		EnvVars: prefixEnvVars("CONFIG"),
	}
	RPCListenAddrFlag = &cli.StringFlag{
		Name:    "rpc.addr",
		Usage:   "RPC listening address. The server does not authenticate callers; keep it on loopback",
		Value:   "127.0.0.1",
		EnvVars: prefixEnvVars("RPC_ADDR"),
	}
	RPCListenPortFlag = &cli.IntFlag{
		Name:    "rpc.port",
		Usage:   "RPC listening port",
		Value:   9545,
		EnvVars: prefixEnvVars("RPC_PORT"),
	}
	BondAmountFlag = &cli.StringFlag{
		Name:    "factory.bond-amount",
		Usage:   "Minimum value in ether attached to a new game, also the default minimum bond of its claims",
		Value:   "0.08",
		EnvVars: prefixEnvVars("FACTORY_BOND_AMOUNT"),
	}
	MaxGameDurationFlag = &cli.Uint64Flag{
		Name:    "factory.max-game-duration",
		Usage:   "Maximum global duration of a game in seconds, also the default one",
		Value:   604800,
		EnvVars: prefixEnvVars("FACTORY_MAX_GAME_DURATION"),
	}
	MaxGameDepthFlag = &cli.Uint64Flag{
		Name:    "game.max-depth",
		Usage:   "Depth of the claim tree at which claims are settled by a single step",
		Value:   73,
		EnvVars: prefixEnvVars("GAME_MAX_DEPTH"),
	}
	PerMoveDurationFlag = &cli.Uint64Flag{
		Name:    "game.per-move-duration",
		Usage:   "Default time budget of the root claim in seconds",
		Value:   302400,
		EnvVars: prefixEnvVars("GAME_PER_MOVE_DURATION"),
	}
	MaxBondFlag = &cli.StringFlag{
		Name:    "game.max-bond",
		Usage:   "Default cap in ether on the bond required for a move",
		Value:   "100",
		EnvVars: prefixEnvVars("GAME_MAX_BOND"),
	}
	GameTypesFlag = &cli.StringSliceFlag{
		Name:    "game.types",
		Usage:   "Game types to register with the factory at startup",
		Value:   cli.NewStringSlice("validity"),
		EnvVars: prefixEnvVars("GAME_TYPES"),
	}
	StepCacheSizeFlag = &cli.IntFlag{
		Name:    "step.cache-size",
		Usage:   "Number of step results to memoize",
		Value:   1024,
		EnvVars: prefixEnvVars("STEP_CACHE_SIZE"),
	}
	JournalDirFlag = &cli.PathFlag{
		Name:    "journal.dir",
		Usage:   "Directory of the persistent event journal. Events are kept in memory if empty",
		EnvVars: prefixEnvVars("JOURNAL_DIR"),
	}
	FundFlag = &cli.StringSliceFlag{
		Name:    "ledger.fund",
		Usage:   "Initial ledger balances, as address=ether",
		EnvVars: prefixEnvVars("LEDGER_FUND"),
	}
	MintRateFlag = &cli.Float64Flag{
		Name:    "ledger.mint-rate",
		Usage:   "Sustained ledger_mint calls allowed per second. 0 disables the limit",
		EnvVars: prefixEnvVars("LEDGER_MINT_RATE"),
	}
)

var requiredFlags = []cli.Flag{
	OwnerFlag,
}

var optionalFlags = []cli.Flag{
	ConfigFlag,
	RPCListenAddrFlag,
	RPCListenPortFlag,
	BondAmountFlag,
	MaxGameDurationFlag,
	MaxGameDepthFlag,
	PerMoveDurationFlag,
	MaxBondFlag,
	GameTypesFlag,
	StepCacheSizeFlag,
	JournalDirFlag,
	FundFlag,
	MintRateFlag,
}

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

var Flags []cli.Flag

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
