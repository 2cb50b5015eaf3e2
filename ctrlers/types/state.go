package types

import (
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

// OwnerTransferMinDelay is the minimum time between initiating an
// ownership transfer and the new owner being able to claim it.
const OwnerTransferMinDelay = int64(7 * 24 * 60 * 60)

// State holds the running totals backing the redemption rate, plus the
// two-phase ownership transfer bookkeeping. It is persisted as a single
// record and threaded through every operation.
type State struct {
	TotalNativeToken      *uint256.Int `json:"total_native_token"`
	TotalLiquidStakeToken *uint256.Int `json:"total_liquid_stake_token"`
	TotalRewardAmount     *uint256.Int `json:"total_reward_amount"`
	TotalFees             *uint256.Int `json:"total_fees"`

	Owner                types.Address `json:"owner"`
	PendingOwner         types.Address `json:"pending_owner,omitempty"`
	OwnerTransferMinTime int64         `json:"owner_transfer_min_time,omitempty"`

	mtx sync.RWMutex
}

func NewState(owner types.Address) *State {
	return &State{
		TotalNativeToken:      uint256.NewInt(0),
		TotalLiquidStakeToken: uint256.NewInt(0),
		TotalRewardAmount:     uint256.NewInt(0),
		TotalFees:             uint256.NewInt(0),
		Owner:                 owner,
	}
}

func (s *State) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE))
}

func (s *State) Encode() ([]byte, xerrors.XError) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if bz, err := json.Marshal(s); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (s *State) Decode(bz []byte) xerrors.XError {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := json.Unmarshal(bz, s); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*State)(nil)
