package commands

import (
	"github.com/spf13/cobra"
	abcitypes "github.com/tendermint/tendermint/abci/types"
)

func NewQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <path> [params]",
		Short: "Query the local contract state",
		Long: `Query the local contract state.
Paths: config, state, owner, batch, batches, batches_by_ids, pending_batch,
unstake_requests, all_unstake_requests, inflight_packets, waiting_packets.
Params are a JSON object when the path requires them.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runQuery,
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctrler, xerr := openCtrler()
	if xerr != nil {
		return xerr
	}
	defer func() { _ = ctrler.Close() }()

	req := abcitypes.RequestQuery{Path: args[0]}
	if len(args) == 2 {
		req.Data = []byte(args[1])
	}
	resp, xerr := ctrler.Query(req)
	if xerr != nil {
		return xerr
	}
	cmd.Println(string(resp))
	return nil
}
