package batch

import (
	"encoding/binary"
	"encoding/json"

	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/tendermint/tendermint/crypto/tmhash"
)

// UnstakeRequest is one user's accumulated unstake amount in one batch.
// There is at most one record per (batch, user); repeated unstakes into
// the same open batch add to it.
type UnstakeRequest struct {
	BatchID uint64        `json:"batch_id"`
	User    types.Address `json:"user"`
	Amount  *uint256.Int  `json:"amount"`
}

// RequestKey is the batch id followed by a digest of the user address.
func RequestKey(batchID uint64, user types.Address) ledger.LedgerKey {
	var ret ledger.LedgerKey
	binary.BigEndian.PutUint64(ret[:8], batchID)
	copy(ret[8:], tmhash.Sum([]byte(user))[:ledger.LEDGERKEYSIZE-8])
	return ret
}

func (r *UnstakeRequest) Key() ledger.LedgerKey {
	return RequestKey(r.BatchID, r.User)
}

func (r *UnstakeRequest) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(r); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (r *UnstakeRequest) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, r); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*UnstakeRequest)(nil)
