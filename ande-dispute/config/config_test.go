package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ande-labs/ande/ande-dispute/flags"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

const ownerHex = "0x00000000000000000000000000000000000000aa"

func cliContext(t *testing.T, args ...string) *cli.Context {
	flagSet := flag.NewFlagSet("test-config", flag.ContinueOnError)
	for _, f := range flags.Flags {
		require.NoError(t, f.Apply(flagSet))
	}
	require.NoError(t, flagSet.Parse(args))
	return cli.NewContext(cli.NewApp(), flagSet, nil)
}

func mustEther(t *testing.T, s string) eth.ETH {
	v, err := eth.ParseEther(s)
	require.NoError(t, err)
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := NewConfig(cliContext(t, "--owner="+ownerHex), "v0.1.0")
	require.NoError(t, err)
	require.NoError(t, cfg.Check())

	require.Equal(t, common.HexToAddress(ownerHex), cfg.Owner)
	require.Equal(t, mustEther(t, "0.08"), cfg.BondAmount)
	require.Equal(t, uint64(604800), cfg.MaxGameDuration)
	require.Equal(t, uint64(73), cfg.MaxGameDepth)
	require.Equal(t, uint64(302400), cfg.PerMoveDuration)
	require.Equal(t, eth.Ether(100), cfg.MaxBond)
	require.Equal(t, []types.GameType{types.ValidityGameType}, cfg.GameTypes)
	require.Equal(t, 1024, cfg.StepCacheSize)
	require.Equal(t, "", cfg.JournalDir)
	require.Equal(t, RPCConfig{ListenAddr: "127.0.0.1", ListenPort: 9545}, cfg.RPC)
	require.False(t, cfg.Metrics.Enabled)
	require.Empty(t, cfg.Funding)
	require.Equal(t, "v0.1.0", cfg.Version)
}

func TestMissingOwner(t *testing.T) {
	_, err := NewConfig(cliContext(t), "")
	require.ErrorContains(t, err, "flag owner is required")

	_, err = NewConfig(cliContext(t, "--owner=nope"), "")
	require.ErrorContains(t, err, "invalid owner address")
}

func TestFlags(t *testing.T) {
	alice := "0x00000000000000000000000000000000000000a1"
	cfg, err := NewConfig(cliContext(t,
		"--owner="+ownerHex,
		"--factory.bond-amount=1.5",
		"--factory.max-game-duration=100",
		"--game.max-depth=16",
		"--game.per-move-duration=50",
		"--game.max-bond=2",
		"--game.types=cannon",
		"--game.types=2",
		"--ledger.fund="+alice+"=1",
		"--ledger.fund="+alice+"=0.5",
		"--journal.dir=/tmp/journal",
	), "")
	require.NoError(t, err)
	require.NoError(t, cfg.Check())
	require.Equal(t, mustEther(t, "1.5"), cfg.BondAmount)
	require.Equal(t, uint64(100), cfg.MaxGameDuration)
	require.Equal(t, uint64(16), cfg.MaxGameDepth)
	require.Equal(t, uint64(50), cfg.PerMoveDuration)
	require.Equal(t, eth.Ether(2), cfg.MaxBond)
	require.Equal(t, []types.GameType{types.CannonGameType, types.AsteriscGameType}, cfg.GameTypes)
	require.Equal(t, map[common.Address]eth.ETH{common.HexToAddress(alice): mustEther(t, "1.5")}, cfg.Funding)
	require.Equal(t, "/tmp/journal", cfg.JournalDir)
}

func TestInvalidFlagValues(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"BondAmount", "--factory.bond-amount=lots", "invalid bond amount"},
		{"MaxBond", "--game.max-bond=-1", "invalid max bond"},
		{"GameType", "--game.types=optimistic", "optimistic"},
		{"Funding", "--ledger.fund=nobody=1", ErrInvalidFunding.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(cliContext(t, "--owner="+ownerHex, tt.arg), "")
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCheck(t *testing.T) {
	cfg, err := NewConfig(cliContext(t, "--owner="+ownerHex), "")
	require.NoError(t, err)

	cfg.Owner = common.Address{}
	cfg.MaxGameDepth = 256
	cfg.PerMoveDuration = 0
	cfg.GameTypes = []types.GameType{types.CannonGameType, types.CannonGameType, types.GameType(9)}
	cfg.StepCacheSize = 0
	cfg.BondAmount = eth.Ether(101)
	cfg.RPC.ListenPort = 70000
	err = cfg.Check()
	require.ErrorIs(t, err, ErrMissingOwner)
	require.ErrorIs(t, err, ErrInvalidMaxGameDepth)
	require.ErrorIs(t, err, ErrInvalidDuration)
	require.ErrorIs(t, err, ErrDuplicateGameType)
	require.ErrorIs(t, err, types.ErrInvalidGameType)
	require.ErrorIs(t, err, ErrInvalidStepCacheSize)
	require.ErrorIs(t, err, ErrBondAmountExceedsMax)
	require.ErrorIs(t, err, ErrInvalidRPCPort)

	cfg.GameTypes = nil
	require.ErrorIs(t, cfg.Check(), ErrNoGameTypes)
}

const tomlConfig = `
[rpc]
port = 8000

[metrics]
enabled = true
port = 7301

[factory]
bond-amount = "0.5"
max-game-duration = 3600

[game]
max-depth = 32
max-bond = "10"
types = ["validity", "cannon"]

[ledger]
fund = ["0x00000000000000000000000000000000000000a1=3"]
mint-rate = 2.5
`

const yamlConfig = `
rpc:
  port: 8000
metrics:
  enabled: true
  port: 7301
factory:
  bond-amount: "0.5"
  max-game-duration: 3600
game:
  max-depth: 32
  max-bond: "10"
  types: [validity, cannon]
ledger:
  fund: ["0x00000000000000000000000000000000000000a1=3"]
  mint-rate: 2.5
`

func TestConfigFile(t *testing.T) {
	for name, content := range map[string]string{"config.toml": tomlConfig, "config.yaml": yamlConfig} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			path := filepath.Join("/etc/ande-dispute", name)
			require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))

			cfg, err := NewConfigWithFs(cliContext(t, "--owner="+ownerHex, "--config="+path, "--game.max-depth=40"), fs, "")
			require.NoError(t, err)
			require.NoError(t, cfg.Check())
			require.Equal(t, 8000, cfg.RPC.ListenPort)
			require.Equal(t, "127.0.0.1", cfg.RPC.ListenAddr)
			require.True(t, cfg.Metrics.Enabled)
			require.Equal(t, 7301, cfg.Metrics.ListenPort)
			require.Equal(t, mustEther(t, "0.5"), cfg.BondAmount)
			require.Equal(t, uint64(3600), cfg.MaxGameDuration)
			require.Equal(t, uint64(40), cfg.MaxGameDepth, "explicit flag wins")
			require.Equal(t, uint64(302400), cfg.PerMoveDuration, "flag default when the file is silent")
			require.Equal(t, eth.Ether(10), cfg.MaxBond)
			require.Equal(t, []types.GameType{types.ValidityGameType, types.CannonGameType}, cfg.GameTypes)
			require.Equal(t, eth.Ether(3), cfg.Funding[common.HexToAddress("0x00000000000000000000000000000000000000a1")])
			require.Equal(t, 2.5, cfg.MintRate)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	write := func(path string, content string) {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	_, err := LoadFile(fs, "/missing.toml")
	require.ErrorIs(t, err, os.ErrNotExist)

	write("/config.json", "{}")
	_, err = LoadFile(fs, "/config.json")
	require.ErrorIs(t, err, ErrUnsupportedFileFormat)

	write("/unknown.toml", "[game]\ndepth = 3\n")
	_, err = LoadFile(fs, "/unknown.toml")
	require.ErrorContains(t, err, "unknown keys")

	write("/unknown.yaml", "game:\n  depth: 3\n")
	_, err = LoadFile(fs, "/unknown.yaml")
	require.Error(t, err)

	write("/empty.yaml", "")
	file, err := LoadFile(fs, "/empty.yaml")
	require.NoError(t, err)
	require.Nil(t, file.Metrics)
}

func TestMintRate(t *testing.T) {
	cfg, err := NewConfig(cliContext(t, "--owner="+ownerHex, "--ledger.mint-rate=0.5"), "")
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.MintRate)
	require.NoError(t, cfg.Check())

	cfg.MintRate = -1
	require.ErrorIs(t, cfg.Check(), ErrInvalidMintRate)
}
