package commands

import (
	"os"
	"path/filepath"

	"github.com/milkyway-labs/lsd-go/ctrlers/stake"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/cli"
	tmlog "github.com/tendermint/tendermint/libs/log"
)

var RootCmd = &cobra.Command{
	Use:   "lsdd",
	Short: "lsdd manages a local liquid staking contract state",
}

func homeDir() string {
	return viper.GetString(cli.HomeFlag)
}

func dataDir() string {
	return filepath.Join(homeDir(), "data")
}

func openCtrler() (*stake.LiquidStakeCtrler, xerrors.XError) {
	dir := dataDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, xerrors.From(err)
	}
	logger := tmlog.NewTMLogger(tmlog.NewSyncWriter(os.Stderr))
	return stake.NewLiquidStakeCtrler(dir, logger)
}
