package ledger

import (
	"sort"
	"sync"

	"github.com/cosmos/iavl"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	tmdb "github.com/tendermint/tm-db"
)

// SimpleLedger keeps items of one kind in an iavl tree.
// Mutations are buffered in memory until Commit.
type SimpleLedger[T ILedgerItem] struct {
	db          tmdb.DB
	tree        *iavl.MutableTree
	cachedItems *memItems[T]
	getNewItem  func() T

	mtx sync.RWMutex
}

func NewSimpleLedger[T ILedgerItem](name, dbDir string, cacheSize int, cb func() T) (*SimpleLedger[T], xerrors.XError) {
	if db, err := tmdb.NewDB(name, "goleveldb", dbDir); err != nil {
		return nil, xerrors.From(err)
	} else if tree, err := iavl.NewMutableTree(db, cacheSize, false); err != nil {
		_ = db.Close()
		return nil, xerrors.From(err)
	} else if _, err := tree.Load(); err != nil {
		_ = db.Close()
		return nil, xerrors.From(err)
	} else {
		return &SimpleLedger[T]{
			db:          db,
			tree:        tree,
			cachedItems: newMemItems[T](),
			getNewItem:  cb,
		}, nil
	}
}

func (ledger *SimpleLedger[T]) Set(item T) xerrors.XError {
	ledger.mtx.Lock()
	defer ledger.mtx.Unlock()

	ledger.cachedItems.delRemovedKey(item.Key())
	ledger.cachedItems.setUpdatedItem(item)
	ledger.cachedItems.setGotItem(item)
	return nil
}

func (ledger *SimpleLedger[T]) Get(key LedgerKey) (T, xerrors.XError) {
	ledger.mtx.Lock()
	defer ledger.mtx.Unlock()

	return ledger.get(key)
}

func (ledger *SimpleLedger[T]) get(key LedgerKey) (T, xerrors.XError) {
	var emptyNil T

	if ledger.cachedItems.isRemovedKey(key) {
		return emptyNil, xerrors.ErrNotFoundResult
	}
	if item, ok := ledger.cachedItems.getGotItem(key); ok {
		return item, nil
	}

	if item, xerr := ledger.read(key); xerr != nil {
		return emptyNil, xerr
	} else {
		ledger.cachedItems.setGotItem(item)
		return item, nil
	}
}

func (ledger *SimpleLedger[T]) Del(key LedgerKey) (T, xerrors.XError) {
	ledger.mtx.Lock()
	defer ledger.mtx.Unlock()

	var emptyNil T
	if item, xerr := ledger.get(key); xerr != nil {
		return emptyNil, xerr
	} else {
		ledger.cachedItems.delGotItem(key)
		ledger.cachedItems.delUpdatedItem(key)
		ledger.cachedItems.appendRemovedKey(key)
		return item, nil
	}
}

// Snapshot is a saved copy of a ledger's uncommitted mutation buffer.
type Snapshot[T ILedgerItem] struct {
	items *memItems[T]
}

// Snapshot copies the mutation buffer. Buffered items are duplicated
// through their codec, so mutations made after the snapshot never reach
// the copy.
func (ledger *SimpleLedger[T]) Snapshot() (*Snapshot[T], xerrors.XError) {
	ledger.mtx.RLock()
	defer ledger.mtx.RUnlock()

	items, xerr := ledger.cachedItems.clone(ledger.getNewItem)
	if xerr != nil {
		return nil, xerr
	}
	return &Snapshot[T]{items: items}, nil
}

// RevertToSnapshot drops every buffered mutation made since the snapshot
// was taken. The committed tree is not touched.
func (ledger *SimpleLedger[T]) RevertToSnapshot(snap *Snapshot[T]) {
	ledger.mtx.Lock()
	defer ledger.mtx.Unlock()

	ledger.cachedItems = snap.items
}

// Read bypasses the mutation buffer and reads the committed tree only.
func (ledger *SimpleLedger[T]) Read(key LedgerKey) (T, xerrors.XError) {
	ledger.mtx.RLock()
	defer ledger.mtx.RUnlock()

	return ledger.read(key)
}

func (ledger *SimpleLedger[T]) read(key LedgerKey) (T, xerrors.XError) {
	var emptyNil T
	item := ledger.getNewItem()

	if bz, err := ledger.tree.Get(key[:]); err != nil {
		return emptyNil, xerrors.From(err)
	} else if bz == nil {
		return emptyNil, xerrors.ErrNotFoundResult
	} else if xerr := item.Decode(bz); xerr != nil {
		return emptyNil, xerr
	} else if key != item.Key() {
		return emptyNil, xerrors.NewOrdinary("simple_ledger: the key encoded in the value does not match the requested key")
	}
	return item, nil
}

// IterateAllItems walks the committed tree overlaid with the uncommitted
// mutation buffer, in key order for committed items followed by any
// not-yet-committed additions.
func (ledger *SimpleLedger[T]) IterateAllItems(cb func(T) xerrors.XError) xerrors.XError {
	ledger.mtx.RLock()
	defer ledger.mtx.RUnlock()

	seen := make(map[LedgerKey]bool)
	var cbErr xerrors.XError

	stopped, err := ledger.tree.Iterate(func(key []byte, value []byte) bool {
		k := ToLedgerKey(key)
		seen[k] = true

		if ledger.cachedItems.isRemovedKey(k) {
			return false
		}
		item, ok := ledger.cachedItems.getGotItem(k)
		if !ok {
			item = ledger.getNewItem()
			if xerr := item.Decode(value); xerr != nil {
				cbErr = xerr
				return true
			}
		}
		if xerr := cb(item); xerr != nil {
			cbErr = xerr
			return true
		}
		return false
	})

	if err != nil {
		return xerrors.From(err)
	} else if stopped {
		if cbErr != nil {
			return cbErr
		}
		return xerrors.NewOrdinary("simple_ledger: iteration stopped")
	}

	var keys LedgerKeyList
	for k := range ledger.cachedItems.updatedItems {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Sort(keys)
	for _, k := range keys {
		if xerr := cb(ledger.cachedItems.updatedItems[k]); xerr != nil {
			return xerr
		}
	}
	return nil
}

func (ledger *SimpleLedger[T]) Commit() ([]byte, int64, xerrors.XError) {
	ledger.mtx.Lock()
	defer ledger.mtx.Unlock()

	var keys LedgerKeyList
	for k := range ledger.cachedItems.updatedItems {
		keys = append(keys, k)
	}
	sort.Sort(keys)

	for _, k := range keys {
		var vk LedgerKey
		copy(vk[:], k[:])

		item := ledger.cachedItems.updatedItems[vk]
		if bz, xerr := item.Encode(); xerr != nil {
			return nil, -1, xerr
		} else if _, err := ledger.tree.Set(vk[:], bz); err != nil {
			return nil, -1, xerrors.From(err)
		}
	}

	for _, k := range ledger.cachedItems.removedKeys {
		var vk LedgerKey
		copy(vk[:], k[:])
		if _, _, err := ledger.tree.Remove(vk[:]); err != nil {
			return nil, -1, xerrors.From(err)
		}
	}

	h, v, err := ledger.tree.SaveVersion()
	if err != nil {
		return h, v, xerrors.From(err)
	}

	ledger.cachedItems.reset()
	return h, v, nil
}

func (ledger *SimpleLedger[T]) Close() xerrors.XError {
	ledger.mtx.Lock()
	defer ledger.mtx.Unlock()

	if ledger.db != nil {
		if err := ledger.db.Close(); err != nil {
			return xerrors.From(err)
		}
	}
	ledger.db = nil
	ledger.tree = nil
	return nil
}

var _ ILedger[ILedgerItem] = (*SimpleLedger[ILedgerItem])(nil)
