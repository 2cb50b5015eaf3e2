package transfer

import (
	"sort"
	"strconv"

	"github.com/holiman/uint256"
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

// recoverDispatchOffset keeps recovery dispatch ids clear of ids derived
// from block time by normal operations.
const recoverDispatchOffset = uint64(1) << 62

// Recover re-dispatches failed or timed-out transfers belonging to one
// receiver. Packets are selected either explicitly by sequence number
// (duplicates collapsed) or by scanning up to pageSize recoverable
// records. Selected records are deleted and their amounts aggregated into
// one fresh transfer per denom.
func (ctrler *TransferCtrler) Recover(ctx *ctrlertypes.ExecContext, channelID string, receiver types.Address, selected []uint64, pageSize uint32) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	var packets []*InFlightTransfer

	if len(selected) > 0 {
		seen := make(map[uint64]bool)
		for _, seq := range selected {
			if seen[seq] {
				continue
			}
			seen[seq] = true

			t, xerr := ctrler.inflightLedger.Get(ledger.ToLedgerKeyUint64(seq))
			if xerr != nil {
				if xerr.Contains(xerrors.ErrNotFoundResult) {
					return xerrors.ErrNoInflightPackets.Wrapf("sequence %d", seq)
				}
				return xerr
			}
			if t.Receiver != receiver {
				return xerrors.ErrInvalidReceiver.Wrapf("sequence %d belongs to %s", seq, t.Receiver)
			}
			if !t.Status.Recoverable() {
				return xerrors.ErrInvalidPacketStatus.Wrapf("sequence %d is %s", seq, t.Status)
			}
			packets = append(packets, t)
		}
	} else {
		if pageSize == 0 {
			pageSize = ctrlertypes.DefaultPageLimit
		}
		xerr := ctrler.inflightLedger.IterateAllItems(func(t *InFlightTransfer) xerrors.XError {
			if uint32(len(packets)) >= pageSize {
				return nil
			}
			if t.Receiver == receiver && t.Status.Recoverable() {
				packets = append(packets, t)
			}
			return nil
		})
		if xerr != nil {
			return xerr
		}
	}

	if len(packets) == 0 {
		return xerrors.ErrNoInflightPackets.Wrapf("receiver %s", receiver)
	}

	// aggregate per denom, deterministic order
	sums := make(map[string]*uint256.Int)
	var denoms []string
	for _, t := range packets {
		if cur, ok := sums[t.Token.Denom]; ok {
			sums[t.Token.Denom] = new(uint256.Int).Add(cur, t.Token.Amount)
		} else {
			sums[t.Token.Denom] = t.Token.Amount.Clone()
			denoms = append(denoms, t.Token.Denom)
		}
	}
	sort.Strings(denoms)

	for _, t := range packets {
		if _, xerr := ctrler.inflightLedger.Del(t.Key()); xerr != nil {
			return xerr
		}
	}

	base := ctrler.meta().MaxSequence + recoverDispatchOffset
	for i, denom := range denoms {
		token := types.NewCoin(denom, sums[denom])
		if _, xerr := ctrler.dispatch(ctx, base+uint64(i)+1, channelID, token, receiver); xerr != nil {
			return xerr
		}
	}

	ctx.EmitEvent("packets_recovered",
		"receiver", receiver.String(),
		"count", strconv.Itoa(len(packets)),
	)
	return nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
