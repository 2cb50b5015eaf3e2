package commands

import (
	"github.com/spf13/cobra"
)

var migrateLimit uint32

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate legacy in-flight transfer records",
		RunE:  runMigrate,
	}
	cmd.Flags().Uint32Var(&migrateLimit, "limit", 100, "records migrated per pass")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctrler, xerr := openCtrler()
	if xerr != nil {
		return xerr
	}
	defer func() { _ = ctrler.Close() }()

	for {
		progress, xerr := ctrler.MigrateLegacyRecords(migrateLimit)
		if xerr != nil {
			return xerr
		}
		if _, _, xerr := ctrler.Commit(); xerr != nil {
			return xerr
		}
		cmd.Printf("migrated %d records, done=%v\n", progress.Migrated, progress.Done)
		if progress.Done {
			return nil
		}
	}
}
