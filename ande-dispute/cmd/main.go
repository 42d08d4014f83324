package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/ande-labs/ande/ande-dispute/config"
	"github.com/ande-labs/ande/ande-dispute/flags"
	"github.com/ande-labs/ande/ande-dispute/game"
	"github.com/ande-labs/ande/ande-dispute/node"
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
	oplog "github.com/ande-labs/ande/ande-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
)

const shutdownTimeout = 10 * time.Second

var (
	perMoveFlag = &cli.Uint64Flag{
		Name:  "per-move-duration",
		Usage: "Seconds each claim's clock may run. 0 uses the game default",
	}
	globalFlag = &cli.Uint64Flag{
		Name:  "global-duration",
		Usage: "Seconds until the game deadline. 0 uses the game default",
	}
	minBondFlag = &cli.StringFlag{
		Name:  "min-bond",
		Usage: "Bond in ether required at the root depth. 0 uses the game default",
		Value: "0",
	}
	maxBondFlag = &cli.StringFlag{
		Name:  "max-bond",
		Usage: "Cap in ether of the required bond. 0 uses the game default",
		Value: "0",
	}
	preStateFlag = &cli.StringFlag{
		Name:     "pre-state",
		Usage:    "Pre-state hash of the step",
		Required: true,
	}
	proofFlag = &cli.StringFlag{
		Name:  "proof",
		Usage: "Hex encoded proof passed to the step oracle",
		Value: "0x",
	}
	maxDepthFlag = &cli.Uint64Flag{
		Name:  "max-depth",
		Usage: "Deepest level of the schedule",
		Value: 73,
	}
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	version := Version
	if GitCommit != "" {
		version += "-" + GitCommit
	}
	return &cli.App{
		Name:    "ande-dispute",
		Usage:   "Bisection dispute game factory served over JSON-RPC",
		Version: version,
		Flags:   append(append([]cli.Flag{}, flags.Flags...), profileModeFlag, profileDirFlag),
		Action:  runNode(version),
		Commands: []*cli.Command{
			{
				Name:   "encode-extra-data",
				Usage:  "Encodes the extra data passed when creating a game",
				Flags:  []cli.Flag{perMoveFlag, globalFlag, minBondFlag, maxBondFlag},
				Action: encodeExtraData,
			},
			{
				Name:   "encode-state-data",
				Usage:  "Encodes the state data passed to a step",
				Flags:  []cli.Flag{preStateFlag, proofFlag},
				Action: encodeStateData,
			},
			{
				Name:   "bond-schedule",
				Usage:  "Prints the bond required at each depth of the claim tree",
				Flags:  []cli.Flag{minBondFlag, maxBondFlag, maxDepthFlag},
				Action: bondSchedule,
			},
			encodeCallCommand(),
		},
	}
}

func runNode(version string) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		cfg, err := config.NewConfig(cliCtx, version)
		if err != nil {
			return err
		}
		logger := oplog.SetupDefaults(cfg.Log)

		stopProfile, err := startProfile(cliCtx)
		if err != nil {
			return err
		}
		defer stopProfile()

		ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		n, err := node.New(ctx, logger, cfg)
		if err != nil {
			return fmt.Errorf("failed to create dispute node: %w", err)
		}
		if err := n.Start(ctx); err != nil {
			return multierror.Append(err, n.Stop(context.Background()))
		}
		<-ctx.Done()
		logger.Info("Received shutdown signal")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return n.Stop(stopCtx)
	}
}

func parseBond(ctx *cli.Context, name string) (eth.ETH, error) {
	v, err := eth.ParseEther(ctx.String(name))
	if err != nil {
		return eth.ETH{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return v, nil
}

func encodeExtraData(ctx *cli.Context) error {
	minBond, err := parseBond(ctx, minBondFlag.Name)
	if err != nil {
		return err
	}
	maxBond, err := parseBond(ctx, maxBondFlag.Name)
	if err != nil {
		return err
	}
	data := types.ExtraData{
		PerMoveDuration: ctx.Uint64(perMoveFlag.Name),
		GlobalDuration:  ctx.Uint64(globalFlag.Name),
		MinBond:         minBond,
		MaxBond:         maxBond,
	}
	_, err = fmt.Fprintln(ctx.App.Writer, hexutil.Encode(data.Encode()))
	return err
}

func encodeStateData(ctx *cli.Context) error {
	var pre common.Hash
	if err := pre.UnmarshalText([]byte(ctx.String(preStateFlag.Name))); err != nil {
		return fmt.Errorf("invalid --%s: %w", preStateFlag.Name, err)
	}
	proof, err := hexutil.Decode(ctx.String(proofFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", proofFlag.Name, err)
	}
	data := types.StateData{PreState: pre, Proof: proof}
	_, err = fmt.Fprintln(ctx.App.Writer, hexutil.Encode(data.Encode()))
	return err
}

func bondSchedule(ctx *cli.Context) error {
	minBond, err := parseBond(ctx, minBondFlag.Name)
	if err != nil {
		return err
	}
	maxBond, err := parseBond(ctx, maxBondFlag.Name)
	if err != nil {
		return err
	}
	if minBond.IsZero() {
		if minBond, err = eth.ParseEther(flags.BondAmountFlag.Value); err != nil {
			return err
		}
	}
	if maxBond.IsZero() {
		if maxBond, err = eth.ParseEther(flags.MaxBondFlag.Value); err != nil {
			return err
		}
	}
	maxDepth := ctx.Uint64(maxDepthFlag.Name)
	if maxDepth > types.MaxPositionDepth {
		return fmt.Errorf("--%s exceeds %d", maxDepthFlag.Name, types.MaxPositionDepth)
	}

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Depth", "Bond (ETH)", "Bond (wei)"})
	for depth := uint64(0); depth <= maxDepth; depth++ {
		bond := game.RequiredBond(minBond, maxBond, depth)
		table.Append([]string{strconv.FormatUint(depth, 10), bond.EtherString(), bond.ToBig().String()})
	}
	table.Render()
	return nil
}
