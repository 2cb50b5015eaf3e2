package ledger

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

const LEDGERKEYSIZE = 32

type LedgerKey = [LEDGERKEYSIZE]byte

func ToLedgerKey(s []byte) LedgerKey {
	var ret LedgerKey
	n := len(s)
	if n > LEDGERKEYSIZE {
		n = LEDGERKEYSIZE
	}
	copy(ret[:], s[:n])
	return ret
}

// ToLedgerKeyUint64 builds a key from a numeric identifier
// (batch id, transfer sequence, dispatch id).
func ToLedgerKeyUint64(v uint64) LedgerKey {
	var ret LedgerKey
	binary.BigEndian.PutUint64(ret[:8], v)
	return ret
}

func FromLedgerKeyUint64(k LedgerKey) uint64 {
	return binary.BigEndian.Uint64(k[:8])
}

type LedgerKeyList []LedgerKey

func (a LedgerKeyList) Len() int {
	return len(a)
}
func (a LedgerKeyList) Less(i, j int) bool {
	return bytes.Compare(a[i][:], a[j][:]) < 0
}
func (a LedgerKeyList) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

var _ sort.Interface = LedgerKeyList(nil)

type ILedgerItem interface {
	Key() LedgerKey
	Encode() ([]byte, xerrors.XError)
	Decode([]byte) xerrors.XError
}

type ILedger[T ILedgerItem] interface {
	Set(T) xerrors.XError
	Get(LedgerKey) (T, xerrors.XError)
	Del(LedgerKey) (T, xerrors.XError)
	Read(LedgerKey) (T, xerrors.XError)
	IterateAllItems(func(T) xerrors.XError) xerrors.XError
	Snapshot() (*Snapshot[T], xerrors.XError)
	RevertToSnapshot(*Snapshot[T])
	Commit() ([]byte, int64, xerrors.XError)
	Close() xerrors.XError
}
