package batch

import (
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/ctrlers/accounting"
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/tendermint/tendermint/libs/log"
)

// batchPointer records which batch is currently open for unstake requests.
// It is updated in the same transition that seals the previous batch,
// never inferred by scanning.
type batchPointer struct {
	PendingBatchID uint64 `json:"pending_batch_id"`
}

func (p *batchPointer) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE))
}

func (p *batchPointer) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(p); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (p *batchPointer) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, p); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*batchPointer)(nil)

// BatchCtrler owns the batch state machine and the per-user unstake
// request ledger.
type BatchCtrler struct {
	batchLedger   *ledger.SimpleLedger[*Batch]
	requestLedger *ledger.SimpleLedger[*UnstakeRequest]
	pointerLedger *ledger.SimpleLedger[*batchPointer]

	logger log.Logger
	mtx    sync.RWMutex
}

func NewBatchCtrler(dbDir string, logger log.Logger) (*BatchCtrler, xerrors.XError) {
	batchLedger, xerr := ledger.NewSimpleLedger[*Batch]("batches", dbDir, 2048, func() *Batch { return &Batch{} })
	if xerr != nil {
		return nil, xerr
	}
	requestLedger, xerr := ledger.NewSimpleLedger[*UnstakeRequest]("unstake_requests", dbDir, 2048, func() *UnstakeRequest { return &UnstakeRequest{} })
	if xerr != nil {
		return nil, xerr
	}
	pointerLedger, xerr := ledger.NewSimpleLedger[*batchPointer]("batch_meta", dbDir, 1, func() *batchPointer { return &batchPointer{} })
	if xerr != nil {
		return nil, xerr
	}

	return &BatchCtrler{
		batchLedger:   batchLedger,
		requestLedger: requestLedger,
		pointerLedger: pointerLedger,
		logger:        logger.With("module", "lsd_BatchCtrler"),
	}, nil
}

// InitLedger opens batch 1 if no batch exists yet.
func (ctrler *BatchCtrler) InitLedger(now, batchPeriod int64) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if _, xerr := ctrler.pendingBatch(); xerr == nil {
		return nil
	} else if !xerr.Contains(xerrors.ErrNotFoundResult) {
		return xerr
	}

	first := NewBatch(1, now+batchPeriod)
	if xerr := ctrler.batchLedger.Set(first); xerr != nil {
		return xerr
	}
	return ctrler.pointerLedger.Set(&batchPointer{PendingBatchID: first.ID})
}

func (ctrler *BatchCtrler) PendingBatch() (*Batch, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	return ctrler.pendingBatch()
}

func (ctrler *BatchCtrler) pendingBatch() (*Batch, xerrors.XError) {
	ptr, xerr := ctrler.pointerLedger.Get(ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE)))
	if xerr != nil {
		return nil, xerr
	}
	b, xerr := ctrler.batchLedger.Get(ledger.ToLedgerKeyUint64(ptr.PendingBatchID))
	if xerr != nil {
		return nil, xerr
	}
	return b, nil
}

func (ctrler *BatchCtrler) GetBatch(id uint64) (*Batch, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	return ctrler.batchLedger.Get(ledger.ToLedgerKeyUint64(id))
}

func (ctrler *BatchCtrler) GetRequest(batchID uint64, user types.Address) (*UnstakeRequest, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	return ctrler.requestLedger.Get(RequestKey(batchID, user))
}

// QueueUnstake adds amount to the open batch. A user's repeated requests
// within the same batch accumulate into one record.
func (ctrler *BatchCtrler) QueueUnstake(user types.Address, amount *uint256.Int) (*Batch, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	b, xerr := ctrler.pendingBatch()
	if xerr != nil {
		return nil, xerrors.ErrBatchNotReady.Wrap(xerr)
	}

	req, xerr := ctrler.requestLedger.Get(RequestKey(b.ID, user))
	if xerr != nil && !xerr.Contains(xerrors.ErrNotFoundResult) {
		return nil, xerr
	}
	if req == nil {
		req = &UnstakeRequest{
			BatchID: b.ID,
			User:    user,
			Amount:  amount.Clone(),
		}
		b.UnstakeRequestsCount++
	} else {
		req.Amount = new(uint256.Int).Add(req.Amount, amount)
	}
	b.BatchTotalLiquidStake = new(uint256.Int).Add(b.BatchTotalLiquidStake, amount)

	if xerr := ctrler.requestLedger.Set(req); xerr != nil {
		return nil, xerr
	}
	if xerr := ctrler.batchLedger.Set(b); xerr != nil {
		return nil, xerr
	}
	return b, nil
}

// Submit seals the pending batch: verifies its action time and totals,
// computes the expected native unstake amount, deducts the batch from the
// running totals (clamped at zero) and opens the successor batch. The
// caller burns the liquid tokens.
func (ctrler *BatchCtrler) Submit(now, batchPeriod, unbondingPeriod int64, state *ctrlertypes.State) (*Batch, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	b, xerr := ctrler.pendingBatch()
	if xerr != nil {
		return nil, xerrors.ErrBatchNotReady.Wrap(xerr)
	}
	if b.NextBatchActionTime == 0 || now < b.NextBatchActionTime {
		return nil, xerrors.ErrBatchNotReady.Wrapf("batch %d may be submitted at %d, now %d", b.ID, b.NextBatchActionTime, now)
	}
	if b.UnstakeRequestsCount == 0 {
		return nil, xerrors.ErrBatchEmpty.Wrapf("batch %d", b.ID)
	}
	if state.TotalLiquidStakeToken.Lt(b.BatchTotalLiquidStake) {
		return nil, xerrors.ErrInvalidUnstakeAmount.Wrapf(
			"batch %d claims %v liquid, outstanding %v", b.ID, b.BatchTotalLiquidStake, state.TotalLiquidStakeToken)
	}

	unbond := accounting.ComputeUnbondAmount(state.TotalNativeToken, state.TotalLiquidStakeToken, b.BatchTotalLiquidStake)

	successor := NewBatch(b.ID+1, now+batchPeriod)
	if xerr := ctrler.batchLedger.Set(successor); xerr != nil {
		return nil, xerr
	}
	if xerr := ctrler.pointerLedger.Set(&batchPointer{PendingBatchID: successor.ID}); xerr != nil {
		return nil, xerr
	}

	b.Status = BATCH_SUBMITTED
	b.ExpectedNativeUnstaked = unbond.Clone()
	b.NextBatchActionTime = now + unbondingPeriod
	if xerr := ctrler.batchLedger.Set(b); xerr != nil {
		return nil, xerr
	}

	state.TotalNativeToken = subClamped(state.TotalNativeToken, unbond)
	state.TotalLiquidStakeToken = subClamped(state.TotalLiquidStakeToken, b.BatchTotalLiquidStake)

	return b, nil
}

// ReceiveUnstaked finalizes a submitted batch. The received amount must
// exactly match the expected amount; funds are never silently absorbed.
func (ctrler *BatchCtrler) ReceiveUnstaked(batchID uint64, amount *uint256.Int) (*Batch, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	b, xerr := ctrler.batchLedger.Get(ledger.ToLedgerKeyUint64(batchID))
	if xerr != nil {
		return nil, xerrors.ErrBatchNotClaimable.Wrap(xerr)
	}
	if b.Status != BATCH_SUBMITTED {
		return nil, xerrors.ErrBatchNotClaimable.Wrapf("batch %d status is %s", b.ID, b.Status)
	}
	if b.ExpectedNativeUnstaked == nil {
		return nil, xerrors.ErrBatchWithoutExpectedNativeAmount.Wrapf("batch %d", b.ID)
	}
	if !b.ExpectedNativeUnstaked.Eq(amount) {
		return nil, xerrors.ErrReceivedWrongBatchAmount.Wrapf(
			"batch %d expected %v, received %v", b.ID, b.ExpectedNativeUnstaked, amount)
	}

	b.Status = BATCH_RECEIVED
	b.ReceivedNativeUnstaked = amount.Clone()
	b.NextBatchActionTime = 0
	if xerr := ctrler.batchLedger.Set(b); xerr != nil {
		return nil, xerr
	}
	return b, nil
}

// Withdraw pays the user their pro-rata share of a received batch and
// destroys the request, so a second withdraw fails.
func (ctrler *BatchCtrler) Withdraw(batchID uint64, user types.Address) (*uint256.Int, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	b, xerr := ctrler.batchLedger.Get(ledger.ToLedgerKeyUint64(batchID))
	if xerr != nil {
		return nil, xerrors.ErrBatchEmpty.Wrap(xerr)
	}
	if b.Status != BATCH_RECEIVED {
		return nil, xerrors.ErrBatchNotClaimable.Wrapf("batch %d status is %s", b.ID, b.Status)
	}

	req, xerr := ctrler.requestLedger.Get(RequestKey(batchID, user))
	if xerr != nil {
		if xerr.Contains(xerrors.ErrNotFoundResult) {
			return nil, xerrors.ErrNoRequestInBatch.Wrapf("batch %d, user %s", batchID, user)
		}
		return nil, xerr
	}

	payout := accounting.ProRataShare(b.ReceivedNativeUnstaked, req.Amount, b.BatchTotalLiquidStake)

	if _, xerr := ctrler.requestLedger.Del(req.Key()); xerr != nil {
		return nil, xerr
	}
	return payout, nil
}

// SlashCorrections overwrites expected amounts on batches not yet
// received. The stopped-contract authorization is the caller's concern.
func (ctrler *BatchCtrler) SlashCorrections(corrections []ctrlertypes.BatchSlashCorrection) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	for _, c := range corrections {
		b, xerr := ctrler.batchLedger.Get(ledger.ToLedgerKeyUint64(c.BatchID))
		if xerr != nil {
			return xerr
		}
		if b.Status == BATCH_RECEIVED {
			return xerrors.ErrUnexpectedBatchStatus.Wrapf("batch %d is already received", b.ID)
		}
		if b.ExpectedNativeUnstaked == nil {
			return xerrors.ErrBatchWithoutExpectedNativeAmount.Wrapf("batch %d", b.ID)
		}
		b.ExpectedNativeUnstaked = c.ExpectedNativeUnstaked.Clone()
		if xerr := ctrler.batchLedger.Set(b); xerr != nil {
			return xerr
		}
	}
	return nil
}

// Snapshot captures the uncommitted buffers of every batch ledger.
type Snapshot struct {
	batches  *ledger.Snapshot[*Batch]
	requests *ledger.Snapshot[*UnstakeRequest]
	pointer  *ledger.Snapshot[*batchPointer]
}

func (ctrler *BatchCtrler) Snapshot() (*Snapshot, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	batches, xerr := ctrler.batchLedger.Snapshot()
	if xerr != nil {
		return nil, xerr
	}
	requests, xerr := ctrler.requestLedger.Snapshot()
	if xerr != nil {
		return nil, xerr
	}
	pointer, xerr := ctrler.pointerLedger.Snapshot()
	if xerr != nil {
		return nil, xerr
	}
	return &Snapshot{batches: batches, requests: requests, pointer: pointer}, nil
}

func (ctrler *BatchCtrler) RevertToSnapshot(snap *Snapshot) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	ctrler.batchLedger.RevertToSnapshot(snap.batches)
	ctrler.requestLedger.RevertToSnapshot(snap.requests)
	ctrler.pointerLedger.RevertToSnapshot(snap.pointer)
}

func (ctrler *BatchCtrler) Commit() ([]byte, int64, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if _, _, xerr := ctrler.pointerLedger.Commit(); xerr != nil {
		return nil, -1, xerr
	}
	if _, _, xerr := ctrler.requestLedger.Commit(); xerr != nil {
		return nil, -1, xerr
	}
	return ctrler.batchLedger.Commit()
}

func (ctrler *BatchCtrler) Close() xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if xerr := ctrler.pointerLedger.Close(); xerr != nil {
		return xerr
	}
	if xerr := ctrler.requestLedger.Close(); xerr != nil {
		return xerr
	}
	return ctrler.batchLedger.Close()
}

func subClamped(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(a, b)
}
