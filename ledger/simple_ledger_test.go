package ledger

import (
	"encoding/json"
	"testing"

	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

func newTestItem(nm string, val int64) *testItem {
	return &testItem{Name: nm, Value: val}
}

func (i *testItem) Key() LedgerKey {
	return ToLedgerKey([]byte(i.Name))
}

func (i *testItem) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(i); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (i *testItem) Decode(d []byte) xerrors.XError {
	if err := json.Unmarshal(d, i); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ILedgerItem = (*testItem)(nil)

func TestSimpleLedger_SetGetDel(t *testing.T) {
	dbDir := t.TempDir()

	lg, xerr := NewSimpleLedger[*testItem]("testLedger", dbDir, 256, func() *testItem { return &testItem{} })
	require.NoError(t, xerr)

	i0 := newTestItem("i0", 0)
	i1 := newTestItem("i1", 1)

	require.NoError(t, lg.Set(i0))
	require.NoError(t, lg.Set(i1))

	// visible before commit
	item, xerr := lg.Get(i0.Key())
	require.NoError(t, xerr)
	require.Equal(t, i0, item)

	item, xerr = lg.Del(i1.Key())
	require.NoError(t, xerr)
	require.Equal(t, i1, item)

	// deleted item is gone
	_, xerr = lg.Get(i1.Key())
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrNotFoundResult))

	// delete of a missing key fails
	_, xerr = lg.Del(ToLedgerKey([]byte("nope")))
	require.Error(t, xerr)

	require.NoError(t, lg.Close())
}

func TestSimpleLedger_CommitManyItems(t *testing.T) {
	dbDir := t.TempDir()

	lg, xerr := NewSimpleLedger[*testItem]("testLedger", dbDir, 256, func() *testItem { return &testItem{} })
	require.NoError(t, xerr)

	// keys at both ends of the sort order plus random fillers, all
	// written in one commit
	items := []*testItem{
		newTestItem("aaa", 1),
		newTestItem("zzz", 26),
	}
	for i := 0; i < 8; i++ {
		items = append(items, newTestItem(bytes.RandHexBytes(8).String(), int64(100+i)))
	}
	for _, it := range items {
		require.NoError(t, lg.Set(it))
	}

	_, _, xerr = lg.Commit()
	require.NoError(t, xerr)

	// every item must come back under its own key
	for _, it := range items {
		got, xerr := lg.Read(it.Key())
		require.NoError(t, xerr, "item %s", it.Name)
		require.Equal(t, it, got)
	}

	require.NoError(t, lg.Close())
}

func TestSimpleLedger_SnapshotRevert(t *testing.T) {
	dbDir := t.TempDir()

	lg, xerr := NewSimpleLedger[*testItem]("testLedger", dbDir, 256, func() *testItem { return &testItem{} })
	require.NoError(t, xerr)

	require.NoError(t, lg.Set(newTestItem("a", 1)))
	require.NoError(t, lg.Set(newTestItem("b", 2)))

	snap, xerr := lg.Snapshot()
	require.NoError(t, xerr)

	// mutate after the snapshot: overwrite, delete, add, and touch a
	// buffered item in place
	a, xerr := lg.Get(ToLedgerKey([]byte("a")))
	require.NoError(t, xerr)
	a.Value = 99
	require.NoError(t, lg.Set(a))
	_, xerr = lg.Del(ToLedgerKey([]byte("b")))
	require.NoError(t, xerr)
	require.NoError(t, lg.Set(newTestItem("c", 3)))

	lg.RevertToSnapshot(snap)

	a, xerr = lg.Get(ToLedgerKey([]byte("a")))
	require.NoError(t, xerr)
	require.Equal(t, int64(1), a.Value)

	b, xerr := lg.Get(ToLedgerKey([]byte("b")))
	require.NoError(t, xerr)
	require.Equal(t, int64(2), b.Value)

	_, xerr = lg.Get(ToLedgerKey([]byte("c")))
	require.Error(t, xerr)
	require.True(t, xerr.Contains(xerrors.ErrNotFoundResult))

	require.NoError(t, lg.Close())
}

func TestSimpleLedger_CommitAndReload(t *testing.T) {
	dbDir := t.TempDir()

	lg, xerr := NewSimpleLedger[*testItem]("testLedger", dbDir, 256, func() *testItem { return &testItem{} })
	require.NoError(t, xerr)

	i0 := newTestItem("i0", 10)
	i1 := newTestItem("i1", 11)
	require.NoError(t, lg.Set(i0))
	require.NoError(t, lg.Set(i1))

	// not committed, so not readable from the tree
	_, xerr = lg.Read(i0.Key())
	require.Error(t, xerr)

	h0, v0, xerr := lg.Commit()
	require.NoError(t, xerr)
	require.NotNil(t, h0)
	require.Equal(t, int64(1), v0)

	item, xerr := lg.Read(i0.Key())
	require.NoError(t, xerr)
	require.Equal(t, i0, item)

	require.NoError(t, lg.Close())

	// reopen and check persisted state
	lg, xerr = NewSimpleLedger[*testItem]("testLedger", dbDir, 256, func() *testItem { return &testItem{} })
	require.NoError(t, xerr)

	item, xerr = lg.Get(i1.Key())
	require.NoError(t, xerr)
	require.Equal(t, i1, item)

	// commit of a removal
	_, xerr = lg.Del(i1.Key())
	require.NoError(t, xerr)
	h1, v1, xerr := lg.Commit()
	require.NoError(t, xerr)
	require.Equal(t, int64(2), v1)
	require.NotEqual(t, h0, h1)

	_, xerr = lg.Read(i1.Key())
	require.Error(t, xerr)

	require.NoError(t, lg.Close())
}

func TestSimpleLedger_IterateOverlay(t *testing.T) {
	dbDir := t.TempDir()

	lg, xerr := NewSimpleLedger[*testItem]("testLedger", dbDir, 256, func() *testItem { return &testItem{} })
	require.NoError(t, xerr)

	require.NoError(t, lg.Set(newTestItem("a", 1)))
	require.NoError(t, lg.Set(newTestItem("b", 2)))
	_, _, xerr = lg.Commit()
	require.NoError(t, xerr)

	// same block mutation set: remove one committed item, add a new one
	_, xerr = lg.Del(ToLedgerKey([]byte("a")))
	require.NoError(t, xerr)
	require.NoError(t, lg.Set(newTestItem("c", 3)))

	seen := map[string]int64{}
	xerr = lg.IterateAllItems(func(it *testItem) xerrors.XError {
		seen[it.Name] = it.Value
		return nil
	})
	require.NoError(t, xerr)
	require.Equal(t, map[string]int64{"b": 2, "c": 3}, seen)

	require.NoError(t, lg.Close())
}
