package transfer

import (
	"encoding/json"

	"github.com/milkyway-labs/lsd-go/ledger"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

type PacketStatus int32

const (
	PACKET_SENT PacketStatus = 1 + iota
	PACKET_ACK_FAILURE
	PACKET_TIMED_OUT
)

func (s PacketStatus) String() string {
	switch s {
	case PACKET_SENT:
		return "sent"
	case PACKET_ACK_FAILURE:
		return "ack_failure"
	case PACKET_TIMED_OUT:
		return "timed_out"
	}
	return "unknown"
}

func (s PacketStatus) Recoverable() bool {
	return s == PACKET_ACK_FAILURE || s == PACKET_TIMED_OUT
}

// Resolution is the terminal outcome the transport reports for a
// dispatched transfer.
type Resolution int32

const (
	RESOLVE_ACK_SUCCESS Resolution = 1 + iota
	RESOLVE_ACK_FAILURE
	RESOLVE_TIMEOUT
)

// InFlightTransfer is a dispatched transfer whose outcome the destination
// chain has not yet confirmed. Keyed by the transport sequence number.
type InFlightTransfer struct {
	Sequence uint64        `json:"sequence"`
	Token    types.Coin    `json:"token"`
	Receiver types.Address `json:"receiver"`
	Status   PacketStatus  `json:"status"`
}

func (t *InFlightTransfer) Key() ledger.LedgerKey {
	return ledger.ToLedgerKeyUint64(t.Sequence)
}

func (t *InFlightTransfer) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(t); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (t *InFlightTransfer) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, t); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*InFlightTransfer)(nil)

// WaitingForReply is the provisional record between dispatching a transfer
// and its confirmation reply. Keyed by the caller-chosen dispatch id.
type WaitingForReply struct {
	DispatchID uint64        `json:"dispatch_id"`
	Token      types.Coin    `json:"token"`
	Receiver   types.Address `json:"receiver"`
}

func (w *WaitingForReply) Key() ledger.LedgerKey {
	return ledger.ToLedgerKeyUint64(w.DispatchID)
}

func (w *WaitingForReply) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(w); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (w *WaitingForReply) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, w); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*WaitingForReply)(nil)
