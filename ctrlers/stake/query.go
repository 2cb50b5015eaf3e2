package stake

import (
	"github.com/milkyway-labs/lsd-go/ctrlers/accounting"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	abcitypes "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
)

// QueryStateResult extends the raw totals with the derived exchange
// rates, rendered as exact fractions.
type QueryStateResult struct {
	TotalNativeToken      string `json:"total_native_token"`
	TotalLiquidStakeToken string `json:"total_liquid_stake_token"`
	TotalRewardAmount     string `json:"total_reward_amount"`
	TotalFees             string `json:"total_fees"`
	RedemptionRate        string `json:"redemption_rate"`
	PurchaseRate          string `json:"purchase_rate"`
}

type QueryOwnerResult struct {
	Owner                types.Address `json:"owner"`
	PendingOwner         types.Address `json:"pending_owner,omitempty"`
	OwnerTransferMinTime int64         `json:"owner_transfer_min_time,omitempty"`
}

func (ctrler *LiquidStakeCtrler) Query(req abcitypes.RequestQuery) ([]byte, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	if ctrler.config == nil || ctrler.state == nil {
		return nil, xerrors.NewOrdinary("not initialized")
	}

	switch req.Path {
	case "config":
		bz, err := tmjson.Marshal(ctrler.config)
		if err != nil {
			return nil, xerrors.ErrQuery.Wrap(err)
		}
		return bz, nil

	case "state":
		st := ctrler.state
		redemption, purchase := accounting.GetRates(st.TotalNativeToken, st.TotalLiquidStakeToken)
		result := &QueryStateResult{
			TotalNativeToken:      st.TotalNativeToken.Dec(),
			TotalLiquidStakeToken: st.TotalLiquidStakeToken.Dec(),
			TotalRewardAmount:     st.TotalRewardAmount.Dec(),
			TotalFees:             st.TotalFees.Dec(),
			RedemptionRate:        redemption.RatString(),
			PurchaseRate:          purchase.RatString(),
		}
		bz, err := tmjson.Marshal(result)
		if err != nil {
			return nil, xerrors.ErrQuery.Wrap(err)
		}
		return bz, nil

	case "owner":
		st := ctrler.state
		result := &QueryOwnerResult{
			Owner:                st.Owner,
			PendingOwner:         st.PendingOwner,
			OwnerTransferMinTime: st.OwnerTransferMinTime,
		}
		bz, err := tmjson.Marshal(result)
		if err != nil {
			return nil, xerrors.ErrQuery.Wrap(err)
		}
		return bz, nil

	case "batch", "batches", "batches_by_ids", "pending_batch",
		"unstake_requests", "all_unstake_requests":
		return ctrler.batchCtrler.Query(req)

	case "inflight_packets", "waiting_packets":
		return ctrler.transferCtrler.Query(req)

	default:
		return nil, xerrors.ErrInvalidQueryCmd.Wrapf("unknown query path: %s", req.Path)
	}
}
