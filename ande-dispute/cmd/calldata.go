package main

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/ande-labs/ande/ande-dispute/types"
)

func encodeCallCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode-call",
		Usage: "Encodes contract calldata for a factory or game entry point",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				ArgsUsage: "<game-type> <root-claim> [extra-data]",
				Action: calldataAction(2, 3, func(args cli.Args) ([]byte, error) {
					gameType, err := types.ParseGameType(args.Get(0))
					if err != nil {
						return nil, err
					}
					root, err := parseHash("root-claim", args.Get(1))
					if err != nil {
						return nil, err
					}
					var extra []byte
					if args.Len() == 3 {
						if extra, err = parseBytes("extra-data", args.Get(2)); err != nil {
							return nil, err
						}
					}
					return types.EncodeCreate(gameType, root, extra)
				}),
			},
			moveCallCommand("attack", true),
			moveCallCommand("defend", false),
			{
				Name:      "step",
				ArgsUsage: "<claim-index> <state-data>",
				Action: calldataAction(2, 2, func(args cli.Args) ([]byte, error) {
					idx, err := parseIndex("claim-index", args.Get(0))
					if err != nil {
						return nil, err
					}
					state, err := parseBytes("state-data", args.Get(1))
					if err != nil {
						return nil, err
					}
					return types.EncodeStep(idx, state)
				}),
			},
			{
				Name: "resolve",
				Action: calldataAction(0, 0, func(cli.Args) ([]byte, error) {
					return types.EncodeResolve()
				}),
			},
		},
	}
}

func moveCallCommand(name string, isAttack bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		ArgsUsage: "<parent-index> <claim>",
		Action: calldataAction(2, 2, func(args cli.Args) ([]byte, error) {
			parent, err := parseIndex("parent-index", args.Get(0))
			if err != nil {
				return nil, err
			}
			claim, err := parseHash("claim", args.Get(1))
			if err != nil {
				return nil, err
			}
			return types.EncodeMove(isAttack, parent, claim)
		}),
	}
}

func calldataAction(minArgs, maxArgs int, encode func(cli.Args) ([]byte, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if n := ctx.Args().Len(); n < minArgs || n > maxArgs {
			return fmt.Errorf("%s: expected arguments %s", ctx.Command.Name, ctx.Command.ArgsUsage)
		}
		data, err := encode(ctx.Args())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(ctx.App.Writer, hexutil.Encode(data))
		return err
	}
}

func parseIndex(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func parseHash(name, s string) (common.Hash, error) {
	var h common.Hash
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return common.Hash{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return h, nil
}

func parseBytes(name, s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return b, nil
}
