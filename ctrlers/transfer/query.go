package transfer

import (
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	abcitypes "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
)

type QueryPacketsParams struct {
	Page *ctrlertypes.PageRequest `json:"page,omitempty"`
}

func (ctrler *TransferCtrler) Query(req abcitypes.RequestQuery) ([]byte, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	params := &QueryPacketsParams{}
	if len(req.Data) > 0 {
		if err := tmjson.Unmarshal(req.Data, params); err != nil {
			return nil, xerrors.ErrInvalidQueryParams.Wrap(err)
		}
	}
	offset, limit := params.Page.Normalize()

	switch req.Path {
	case "inflight_packets":
		var packets []*InFlightTransfer
		skipped := uint32(0)
		xerr := ctrler.inflightLedger.IterateAllItems(func(t *InFlightTransfer) xerrors.XError {
			if skipped < offset {
				skipped++
				return nil
			}
			if uint32(len(packets)) < limit {
				packets = append(packets, t)
			}
			return nil
		})
		if xerr != nil {
			return nil, xerr
		}
		return marshal(packets)

	case "waiting_packets":
		var packets []*WaitingForReply
		skipped := uint32(0)
		xerr := ctrler.waitingLedger.IterateAllItems(func(w *WaitingForReply) xerrors.XError {
			if skipped < offset {
				skipped++
				return nil
			}
			if uint32(len(packets)) < limit {
				packets = append(packets, w)
			}
			return nil
		})
		if xerr != nil {
			return nil, xerr
		}
		return marshal(packets)

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
