package batch

import (
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	abcitypes "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
)

type QueryBatchParams struct {
	BatchID uint64 `json:"batch_id"`
}

type QueryBatchesParams struct {
	Status *BatchStatus             `json:"status,omitempty"`
	Page   *ctrlertypes.PageRequest `json:"page,omitempty"`
}

type QueryBatchesByIDsParams struct {
	BatchIDs []uint64 `json:"batch_ids"`
}

type QueryUnstakeRequestsParams struct {
	User string `json:"user"`
}

type QueryAllUnstakeRequestsParams struct {
	Page *ctrlertypes.PageRequest `json:"page,omitempty"`
}

func (ctrler *BatchCtrler) Query(req abcitypes.RequestQuery) ([]byte, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	switch req.Path {
	case "batch":
		params := &QueryBatchParams{}
		if err := tmjson.Unmarshal(req.Data, params); err != nil {
			return nil, xerrors.ErrInvalidQueryParams.Wrap(err)
		}
		b, xerr := ctrler.batchLedger.Read(ledger.ToLedgerKeyUint64(params.BatchID))
		if xerr != nil {
			return nil, xerr
		}
		return marshal(b)

	case "batches":
		params := &QueryBatchesParams{}
		if len(req.Data) > 0 {
			if err := tmjson.Unmarshal(req.Data, params); err != nil {
				return nil, xerrors.ErrInvalidQueryParams.Wrap(err)
			}
		}
		offset, limit := params.Page.Normalize()

		var batches []*Batch
		skipped := uint32(0)
		xerr := ctrler.batchLedger.IterateAllItems(func(b *Batch) xerrors.XError {
			if params.Status != nil && b.Status != *params.Status {
				return nil
			}
			if skipped < offset {
				skipped++
				return nil
			}
			if uint32(len(batches)) < limit {
				batches = append(batches, b)
			}
			return nil
		})
		if xerr != nil {
			return nil, xerr
		}
		return marshal(batches)

	case "batches_by_ids":
		params := &QueryBatchesByIDsParams{}
		if err := tmjson.Unmarshal(req.Data, params); err != nil {
			return nil, xerrors.ErrInvalidQueryParams.Wrap(err)
		}
		var batches []*Batch
		for _, id := range params.BatchIDs {
			b, xerr := ctrler.batchLedger.Read(ledger.ToLedgerKeyUint64(id))
			if xerr != nil {
				return nil, xerr
			}
			batches = append(batches, b)
		}
		return marshal(batches)

	case "pending_batch":
		b, xerr := ctrler.pendingBatch()
		if xerr != nil {
			return nil, xerr
		}
		return marshal(b)

	case "unstake_requests":
		params := &QueryUnstakeRequestsParams{}
		if err := tmjson.Unmarshal(req.Data, params); err != nil {
			return nil, xerrors.ErrInvalidQueryParams.Wrap(err)
		}
		user := types.Address(params.User)
		var reqs []*UnstakeRequest
		xerr := ctrler.requestLedger.IterateAllItems(func(r *UnstakeRequest) xerrors.XError {
			if r.User == user {
				reqs = append(reqs, r)
			}
			return nil
		})
		if xerr != nil {
			return nil, xerr
		}
		return marshal(reqs)

	case "all_unstake_requests":
		params := &QueryAllUnstakeRequestsParams{}
		if len(req.Data) > 0 {
			if err := tmjson.Unmarshal(req.Data, params); err != nil {
				return nil, xerrors.ErrInvalidQueryParams.Wrap(err)
			}
		}
		offset, limit := params.Page.Normalize()

		var reqs []*UnstakeRequest
		skipped := uint32(0)
		xerr := ctrler.requestLedger.IterateAllItems(func(r *UnstakeRequest) xerrors.XError {
			if skipped < offset {
				skipped++
				return nil
			}
			if uint32(len(reqs)) < limit {
				reqs = append(reqs, r)
			}
			return nil
		})
		if xerr != nil {
			return nil, xerr
		}
		return marshal(reqs)

	default:
		return nil, xerrors.ErrInvalidQueryCmd
	}
}

func marshal(v interface{}) ([]byte, xerrors.XError) {
	bz, err := tmjson.Marshal(v)
	if err != nil {
		return nil, xerrors.ErrQuery.Wrap(err)
	}
	return bz, nil
}
