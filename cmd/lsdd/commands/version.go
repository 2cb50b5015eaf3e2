package commands

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time with
// -ldflags "-X 'github.com/milkyway-labs/lsd-go/cmd/lsdd/commands.Version=...'".
var Version = "0.0.0-dev"

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(Version)
	},
}
