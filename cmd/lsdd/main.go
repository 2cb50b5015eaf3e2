package main

import (
	"os"
	"path/filepath"

	"github.com/milkyway-labs/lsd-go/cmd/lsdd/commands"
	"github.com/tendermint/tendermint/libs/cli"
)

func main() {
	commands.RootCmd.AddCommand(
		commands.NewInitCmd(),
		commands.NewQueryCmd(),
		commands.NewMigrateCmd(),
		commands.VersionCmd,
	)

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	executor := cli.PrepareBaseCmd(commands.RootCmd, "LSD", filepath.Join(home, ".lsdd"))
	if err := executor.Execute(); err != nil {
		panic(err)
	}
}
