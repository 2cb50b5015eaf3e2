package ledger

import (
	"github.com/milkyway-labs/lsd-go/types/xerrors"
)

type memItems[T ILedgerItem] struct {
	gotItems     map[LedgerKey]T
	updatedItems map[LedgerKey]T
	removedKeys  []LedgerKey
}

func newMemItems[T ILedgerItem]() *memItems[T] {
	return &memItems[T]{
		gotItems:     make(map[LedgerKey]T),
		updatedItems: make(map[LedgerKey]T),
	}
}

func (m *memItems[T]) setGotItem(item T) {
	m.gotItems[item.Key()] = item
}

func (m *memItems[T]) setUpdatedItem(item T) {
	m.updatedItems[item.Key()] = item
}

func (m *memItems[T]) appendRemovedKey(key LedgerKey) {
	for _, k := range m.removedKeys {
		if k == key {
			return
		}
	}
	m.removedKeys = append(m.removedKeys, key)
}

func (m *memItems[T]) getGotItem(key LedgerKey) (T, bool) {
	item, ok := m.gotItems[key]
	return item, ok
}

func (m *memItems[T]) isRemovedKey(key LedgerKey) bool {
	for _, k := range m.removedKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (m *memItems[T]) delRemovedKey(key LedgerKey) {
	for i, k := range m.removedKeys {
		if k == key {
			m.removedKeys = append(m.removedKeys[:i], m.removedKeys[i+1:]...)
			return
		}
	}
}

func (m *memItems[T]) delGotItem(key LedgerKey) {
	delete(m.gotItems, key)
}

func (m *memItems[T]) delUpdatedItem(key LedgerKey) {
	delete(m.updatedItems, key)
}

// clone deep-copies the buffer through each item's codec so that later
// in-place mutation of a buffered item cannot reach the copy.
func (m *memItems[T]) clone(newItem func() T) (*memItems[T], xerrors.XError) {
	c := newMemItems[T]()
	dup := func(item T) (T, xerrors.XError) {
		var emptyNil T
		bz, xerr := item.Encode()
		if xerr != nil {
			return emptyNil, xerr
		}
		it := newItem()
		if xerr := it.Decode(bz); xerr != nil {
			return emptyNil, xerr
		}
		return it, nil
	}

	for k, v := range m.gotItems {
		d, xerr := dup(v)
		if xerr != nil {
			return nil, xerr
		}
		c.gotItems[k] = d
	}
	for k, v := range m.updatedItems {
		d, xerr := dup(v)
		if xerr != nil {
			return nil, xerr
		}
		c.updatedItems[k] = d
	}
	c.removedKeys = append(c.removedKeys, m.removedKeys...)
	return c, nil
}

func (m *memItems[T]) reset() {
	m.gotItems = make(map[LedgerKey]T)
	m.updatedItems = make(map[LedgerKey]T)
	m.removedKeys = nil
}
