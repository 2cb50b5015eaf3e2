package transfer

import (
	"encoding/json"
	"sort"

	"github.com/holiman/uint256"
	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

// legacyTransfer is the pre-status record layout: every tracked packet was
// implicitly sent and amounts were bare numbers of the protocol denom.
type legacyTransfer struct {
	Sequence uint64        `json:"sequence"`
	Denom    string        `json:"denom"`
	Amount   *uint256.Int  `json:"amount"`
	Receiver types.Address `json:"receiver"`
}

func (t *legacyTransfer) Key() ledger.LedgerKey {
	return ledger.ToLedgerKeyUint64(t.Sequence)
}

func (t *legacyTransfer) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(t); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (t *legacyTransfer) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, t); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*legacyTransfer)(nil)

// MigrationProgress tracks the chunked migration of legacy in-flight
// records. Each call migrates at most one chunk and resumes from
// LastSequence until Done.
type MigrationProgress struct {
	LastSequence uint64 `json:"last_sequence"`
	Migrated     uint64 `json:"migrated"`
	Done         bool   `json:"done"`
}

func (p *MigrationProgress) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE))
}

func (p *MigrationProgress) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(p); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (p *MigrationProgress) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, p); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*MigrationProgress)(nil)

// MigrateLegacyRecords moves up to limit legacy records into the current
// in-flight ledger. Returns the updated progress; callers repeat the call
// until Done.
func (ctrler *TransferCtrler) MigrateLegacyRecords(limit uint32) (*MigrationProgress, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if limit == 0 {
		limit = 100
	}

	progress, xerr := ctrler.progressLedger.Get(ledger.ToLedgerKey(bytes.ZeroBytes(ledger.LEDGERKEYSIZE)))
	if xerr != nil {
		if !xerr.Contains(xerrors.ErrNotFoundResult) {
			return nil, xerr
		}
		progress = &MigrationProgress{}
	}
	if progress.Done {
		return progress, nil
	}

	var pending []*legacyTransfer
	xerr = ctrler.legacyLedger.IterateAllItems(func(t *legacyTransfer) xerrors.XError {
		if t.Sequence > progress.LastSequence {
			pending = append(pending, t)
		}
		return nil
	})
	if xerr != nil {
		return nil, xerr
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Sequence < pending[j].Sequence })

	n := uint32(0)
	for _, t := range pending {
		if n >= limit {
			break
		}
		if xerr := ctrler.inflightLedger.Set(&InFlightTransfer{
			Sequence: t.Sequence,
			Token:    types.NewCoin(t.Denom, t.Amount),
			Receiver: t.Receiver,
			Status:   PACKET_SENT,
		}); xerr != nil {
			return nil, xerr
		}
		if _, xerr := ctrler.legacyLedger.Del(t.Key()); xerr != nil {
			return nil, xerr
		}
		progress.LastSequence = t.Sequence
		progress.Migrated++
		n++
	}
	if uint32(len(pending)) <= n {
		progress.Done = true
	}

	if xerr := ctrler.progressLedger.Set(progress); xerr != nil {
		return nil, xerr
	}
	ctrler.logger.Info("migrated legacy in-flight records", "count", n, "done", progress.Done)
	return progress, nil
}
