package stake

import (
	"github.com/milkyway-labs/lsd-go/ctrlers/transfer"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

// HandleTransferReply records the sequence number the transfer port
// assigned to a dispatched packet, or drops the in-flight record when the
// dispatch itself failed.
func (ctrler *LiquidStakeCtrler) HandleTransferReply(dispatchID, sequence uint64, ok bool) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	snap, xerr := ctrler.transferCtrler.Snapshot()
	if xerr != nil {
		return xerr
	}
	if xerr := ctrler.transferCtrler.HandleReply(dispatchID, sequence, ok); xerr != nil {
		ctrler.transferCtrler.RevertToSnapshot(snap)
		return xerr
	}
	return nil
}

// HandleTransferResolved applies the final acknowledgement or timeout of
// a previously dispatched packet.
func (ctrler *LiquidStakeCtrler) HandleTransferResolved(sequence uint64, res transfer.Resolution) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	return ctrler.transferCtrler.HandleResolved(sequence, res)
}

// MigrateLegacyRecords converts one chunk of pre-tracker transfer records
// into in-flight packets. Call repeatedly until the returned progress is
// marked done.
func (ctrler *LiquidStakeCtrler) MigrateLegacyRecords(limit uint32) (*transfer.MigrationProgress, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	return ctrler.transferCtrler.MigrateLegacyRecords(limit)
}
