package transfer

import (
	"encoding/json"
	"sync"

	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/tendermint/tendermint/libs/log"
)

// TransferTimeout is how far in the future an outbound transfer's
// transport timeout is set, in seconds.
const TransferTimeout = int64(600)

// trackerMeta remembers the highest sequence number the transport has
// ever assigned; recovery derives fresh dispatch ids from it.
type trackerMeta struct {
	MaxSequence uint64 `json:"max_sequence"`
}

func (m *trackerMeta) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE))
}

func (m *trackerMeta) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(m); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (m *trackerMeta) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, m); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*trackerMeta)(nil)

// TransferCtrler tracks outbound cross-chain transfers through their
// three-phase lifecycle: waiting-for-reply, in-flight, terminal.
// Each phase transition is an independent atomic call correlated by
// dispatch id or sequence number, never by in-memory state.
type TransferCtrler struct {
	waitingLedger  *ledger.SimpleLedger[*WaitingForReply]
	inflightLedger *ledger.SimpleLedger[*InFlightTransfer]
	metaLedger     *ledger.SimpleLedger[*trackerMeta]
	legacyLedger   *ledger.SimpleLedger[*legacyTransfer]
	progressLedger *ledger.SimpleLedger[*MigrationProgress]

	logger log.Logger
	mtx    sync.RWMutex
}

func NewTransferCtrler(dbDir string, logger log.Logger) (*TransferCtrler, xerrors.XError) {
	waitingLedger, xerr := ledger.NewSimpleLedger[*WaitingForReply]("waiting_for_reply", dbDir, 1024, func() *WaitingForReply { return &WaitingForReply{} })
	if xerr != nil {
		return nil, xerr
	}
	inflightLedger, xerr := ledger.NewSimpleLedger[*InFlightTransfer]("inflight_packets", dbDir, 4096, func() *InFlightTransfer { return &InFlightTransfer{} })
	if xerr != nil {
		return nil, xerr
	}
	metaLedger, xerr := ledger.NewSimpleLedger[*trackerMeta]("transfer_meta", dbDir, 1, func() *trackerMeta { return &trackerMeta{} })
	if xerr != nil {
		return nil, xerr
	}
	legacyLedger, xerr := ledger.NewSimpleLedger[*legacyTransfer]("inflight_packets_v1", dbDir, 1024, func() *legacyTransfer { return &legacyTransfer{} })
	if xerr != nil {
		return nil, xerr
	}
	progressLedger, xerr := ledger.NewSimpleLedger[*MigrationProgress]("migration_progress", dbDir, 1, func() *MigrationProgress { return &MigrationProgress{} })
	if xerr != nil {
		return nil, xerr
	}

	return &TransferCtrler{
		waitingLedger:  waitingLedger,
		inflightLedger: inflightLedger,
		metaLedger:     metaLedger,
		legacyLedger:   legacyLedger,
		progressLedger: progressLedger,
		logger:         logger.With("module", "lsd_TransferCtrler"),
	}, nil
}

// Dispatch stores a waiting-for-reply record under a fresh dispatch id and
// emits the outbound transfer. Returns the dispatch id.
func (ctrler *TransferCtrler) Dispatch(ctx *ctrlertypes.ExecContext, channelID string, token types.Coin, receiver types.Address) (uint64, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	return ctrler.dispatch(ctx, ctx.NextDispatchID(), channelID, token, receiver)
}

func (ctrler *TransferCtrler) dispatch(ctx *ctrlertypes.ExecContext, dispatchID uint64, channelID string, token types.Coin, receiver types.Address) (uint64, xerrors.XError) {
	if _, xerr := ctrler.waitingLedger.Get(ledger.ToLedgerKeyUint64(dispatchID)); xerr == nil {
		// a live record for this id means the host re-entered before the
		// previous dispatch resolved
		return 0, xerrors.ErrContractLocked.Wrapf("dispatch id %d is already waiting for its reply", dispatchID)
	} else if !xerr.Contains(xerrors.ErrNotFoundResult) {
		return 0, xerr
	}

	if xerr := ctrler.waitingLedger.Set(&WaitingForReply{
		DispatchID: dispatchID,
		Token:      token,
		Receiver:   receiver,
	}); xerr != nil {
		return 0, xerr
	}

	if xerr := ctx.TransferPort.DispatchTransfer(dispatchID, channelID, token, ctx.Contract, receiver, ctx.BlockTime+TransferTimeout); xerr != nil {
		return 0, xerr
	}

	ctx.EmitEvent("transfer_dispatched",
		"dispatch_id", formatUint(dispatchID),
		"receiver", receiver.String(),
		"denom", token.Denom,
		"amount", token.Amount.Dec(),
	)
	return dispatchID, nil
}

// HandleReply promotes a waiting record to a confirmed in-flight transfer
// keyed by the transport sequence number. Missing or malformed reply data
// fails the whole operation.
func (ctrler *TransferCtrler) HandleReply(dispatchID, sequence uint64, ok bool) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	w, xerr := ctrler.waitingLedger.Del(ledger.ToLedgerKeyUint64(dispatchID))
	if xerr != nil {
		return xerrors.ErrFailedIBCTransfer.Wrapf("no waiting record for dispatch id %d", dispatchID)
	}
	if !ok || sequence == 0 {
		return xerrors.ErrFailedIBCTransfer.Wrapf("dispatch id %d: reply carries no sequence", dispatchID)
	}

	if xerr := ctrler.inflightLedger.Set(&InFlightTransfer{
		Sequence: sequence,
		Token:    w.Token,
		Receiver: w.Receiver,
		Status:   PACKET_SENT,
	}); xerr != nil {
		return xerr
	}

	meta := ctrler.meta()
	if sequence > meta.MaxSequence {
		meta.MaxSequence = sequence
		if xerr := ctrler.metaLedger.Set(meta); xerr != nil {
			return xerr
		}
	}
	return nil
}

// HandleResolved applies a terminal notification. Ack-success removes the
// record; ack-failure and timeout leave it for recovery. Notifications for
// unknown sequences are ignored: the record may already have been
// recovered or acked.
func (ctrler *TransferCtrler) HandleResolved(sequence uint64, res Resolution) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	key := ledger.ToLedgerKeyUint64(sequence)

	if res == RESOLVE_ACK_SUCCESS {
		if _, xerr := ctrler.inflightLedger.Del(key); xerr != nil && !xerr.Contains(xerrors.ErrNotFoundResult) {
			return xerr
		}
		return nil
	}

	t, xerr := ctrler.inflightLedger.Get(key)
	if xerr != nil {
		if xerr.Contains(xerrors.ErrNotFoundResult) {
			ctrler.logger.Info("terminal notification for unknown sequence", "sequence", sequence, "resolution", res)
			return nil
		}
		return xerr
	}
	if t.Status != PACKET_SENT {
		ctrler.logger.Info("transfer already terminal", "sequence", sequence, "status", t.Status)
		return nil
	}

	switch res {
	case RESOLVE_ACK_FAILURE:
		t.Status = PACKET_ACK_FAILURE
	case RESOLVE_TIMEOUT:
		t.Status = PACKET_TIMED_OUT
	default:
		return xerrors.ErrInvalidPacketStatus.Wrapf("unknown resolution %d", res)
	}
	return ctrler.inflightLedger.Set(t)
}

func (ctrler *TransferCtrler) meta() *trackerMeta {
	m, xerr := ctrler.metaLedger.Get(ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE)))
	if xerr != nil {
		return &trackerMeta{}
	}
	return m
}

// Snapshot captures the uncommitted buffers of every transfer ledger.
type Snapshot struct {
	waiting  *ledger.Snapshot[*WaitingForReply]
	inflight *ledger.Snapshot[*InFlightTransfer]
	meta     *ledger.Snapshot[*trackerMeta]
	legacy   *ledger.Snapshot[*legacyTransfer]
	progress *ledger.Snapshot[*MigrationProgress]
}

func (ctrler *TransferCtrler) Snapshot() (*Snapshot, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	snap := &Snapshot{}
	var xerr xerrors.XError
	if snap.waiting, xerr = ctrler.waitingLedger.Snapshot(); xerr != nil {
		return nil, xerr
	}
	if snap.inflight, xerr = ctrler.inflightLedger.Snapshot(); xerr != nil {
		return nil, xerr
	}
	if snap.meta, xerr = ctrler.metaLedger.Snapshot(); xerr != nil {
		return nil, xerr
	}
	if snap.legacy, xerr = ctrler.legacyLedger.Snapshot(); xerr != nil {
		return nil, xerr
	}
	if snap.progress, xerr = ctrler.progressLedger.Snapshot(); xerr != nil {
		return nil, xerr
	}
	return snap, nil
}

func (ctrler *TransferCtrler) RevertToSnapshot(snap *Snapshot) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	ctrler.waitingLedger.RevertToSnapshot(snap.waiting)
	ctrler.inflightLedger.RevertToSnapshot(snap.inflight)
	ctrler.metaLedger.RevertToSnapshot(snap.meta)
	ctrler.legacyLedger.RevertToSnapshot(snap.legacy)
	ctrler.progressLedger.RevertToSnapshot(snap.progress)
}

func (ctrler *TransferCtrler) Commit() ([]byte, int64, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if _, _, xerr := ctrler.waitingLedger.Commit(); xerr != nil {
		return nil, -1, xerr
	}
	if _, _, xerr := ctrler.metaLedger.Commit(); xerr != nil {
		return nil, -1, xerr
	}
	if _, _, xerr := ctrler.legacyLedger.Commit(); xerr != nil {
		return nil, -1, xerr
	}
	if _, _, xerr := ctrler.progressLedger.Commit(); xerr != nil {
		return nil, -1, xerr
	}
	return ctrler.inflightLedger.Commit()
}

func (ctrler *TransferCtrler) Close() xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	for _, fn := range []func() xerrors.XError{
		ctrler.waitingLedger.Close,
		ctrler.metaLedger.Close,
		ctrler.legacyLedger.Close,
		ctrler.progressLedger.Close,
		ctrler.inflightLedger.Close,
	} {
		if xerr := fn(); xerr != nil {
			return xerr
		}
	}
	return nil
}
