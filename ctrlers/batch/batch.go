package batch

import (
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

type BatchStatus int32

const (
	BATCH_PENDING BatchStatus = 1 + iota
	BATCH_SUBMITTED
	BATCH_RECEIVED
)

func (s BatchStatus) String() string {
	switch s {
	case BATCH_PENDING:
		return "pending"
	case BATCH_SUBMITTED:
		return "submitted"
	case BATCH_RECEIVED:
		return "received"
	}
	return "unknown"
}

// Batch aggregates the unstake requests of one unbonding window.
// The meaning of NextBatchActionTime depends on the status: earliest
// submission time while pending, earliest expected receipt while submitted,
// cleared once received.
type Batch struct {
	ID                     uint64       `json:"id"`
	BatchTotalLiquidStake  *uint256.Int `json:"batch_total_liquid_stake"`
	UnstakeRequestsCount   uint64       `json:"unstake_requests_count"`
	Status                 BatchStatus  `json:"status"`
	NextBatchActionTime    int64        `json:"next_batch_action_time,omitempty"`
	ExpectedNativeUnstaked *uint256.Int `json:"expected_native_unstaked,omitempty"`
	ReceivedNativeUnstaked *uint256.Int `json:"received_native_unstaked,omitempty"`

	mtx sync.RWMutex
}

func NewBatch(id uint64, actionTime int64) *Batch {
	return &Batch{
		ID:                    id,
		BatchTotalLiquidStake: uint256.NewInt(0),
		Status:                BATCH_PENDING,
		NextBatchActionTime:   actionTime,
	}
}

func (b *Batch) Key() ledger.LedgerKey {
	return ledger.ToLedgerKeyUint64(b.ID)
}

func (b *Batch) Encode() ([]byte, xerrors.XError) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	if bz, err := json.Marshal(b); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (b *Batch) Decode(bz []byte) xerrors.XError {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if err := json.Unmarshal(bz, b); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*Batch)(nil)
