package main

import (
	"fmt"

	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/ande-labs/ande/ande-dispute/flags"
)

var (
	profileModeFlag = &cli.StringFlag{
		Name:    "profile.mode",
		Usage:   "Profile the node process. One of cpu, mem, block, mutex, trace. Empty disables profiling",
		EnvVars: []string{flags.EnvVarPrefix + "_PROFILE_MODE"},
	}
	profileDirFlag = &cli.StringFlag{
		Name:    "profile.dir",
		Usage:   "Directory the profile is written to",
		Value:   ".",
		EnvVars: []string{flags.EnvVarPrefix + "_PROFILE_DIR"},
	}
)

var profileModes = map[string]func(*profile.Profile){
	"cpu":   profile.CPUProfile,
	"mem":   profile.MemProfile,
	"block": profile.BlockProfile,
	"mutex": profile.MutexProfile,
	"trace": profile.TraceProfile,
}

// startProfile begins the profile selected on the command line. The returned
// stop function flushes it and is safe to call when profiling is disabled.
func startProfile(ctx *cli.Context) (func(), error) {
	name := ctx.String(profileModeFlag.Name)
	if name == "" {
		return func() {}, nil
	}
	mode, ok := profileModes[name]
	if !ok {
		return nil, fmt.Errorf("unknown --%s %q", profileModeFlag.Name, name)
	}
	p := profile.Start(mode, profile.ProfilePath(ctx.String(profileDirFlag.Name)), profile.NoShutdownHook, profile.Quiet)
	return p.Stop, nil
}
