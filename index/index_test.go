package index

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/value"
)

func sortedUint64(ids []uint64) []uint64 {
	out := append([]uint64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func TestBTreeInsertSearchAcrossSplits(t *testing.T) {
	bt := NewBTreeWithBranch(2) // small branch to force splits quickly
	for i := int64(0); i < 200; i++ {
		bt.Insert(value.Int(i), uint64(i))
	}

	for i := int64(0); i < 200; i++ {
		got := bt.Search(value.Int(i))
		require.Equal(t, []uint64{uint64(i)}, got, "key %d", i)
	}

	require.Nil(t, bt.Search(value.Int(999)))
}

func TestBTreeDuplicateKeysAccumulateRowIDs(t *testing.T) {
	bt := NewBTree()
	bt.Insert(value.Str("x"), 1)
	bt.Insert(value.Str("x"), 2)
	bt.Insert(value.Str("x"), 3)

	require.ElementsMatch(t, []uint64{1, 2, 3}, bt.Search(value.Str("x")))
}

func TestBTreeRangeInclusiveBounds(t *testing.T) {
	bt := NewBTreeWithBranch(2)
	for i := int64(0); i < 50; i++ {
		bt.Insert(value.Int(i), uint64(i))
	}

	got := sortedUint64(bt.Range(value.Int(10), value.Int(15)))
	require.Equal(t, []uint64{10, 11, 12, 13, 14, 15}, got)
}

func TestBTreeLessThanGreaterThanExclusive(t *testing.T) {
	bt := NewBTreeWithBranch(2)
	for i := int64(0); i < 10; i++ {
		bt.Insert(value.Int(i), uint64(i))
	}

	less := sortedUint64(bt.LessThan(value.Int(5)))
	require.Equal(t, []uint64{0, 1, 2, 3, 4}, less)

	greater := sortedUint64(bt.GreaterThan(value.Int(5)))
	require.Equal(t, []uint64{6, 7, 8, 9}, greater)
}

func TestHashInsertSearchAndLinearProbing(t *testing.T) {
	h := NewHash()
	n := 100 // forces several resizes past DefaultLoadFactor
	for i := int64(0); i < int64(n); i++ {
		h.Insert(value.Int(i), uint64(i))
	}

	for i := int64(0); i < int64(n); i++ {
		require.Equal(t, []uint64{uint64(i)}, h.Search(value.Int(i)), "key %d", i)
	}
}

func TestHashDeleteTombstonesAndSurvivorsRemainSearchable(t *testing.T) {
	h := NewHash()
	for i := int64(0); i < 20; i++ {
		h.Insert(value.Int(i), uint64(i))
	}

	for i := int64(0); i < 20; i += 2 {
		h.Delete(value.Int(i), uint64(i))
	}

	for i := int64(0); i < 20; i++ {
		got := h.Search(value.Int(i))
		if i%2 == 0 {
			require.Empty(t, got, "deleted key %d should be absent", i)
		} else {
			require.Equal(t, []uint64{uint64(i)}, got, "surviving key %d", i)
		}
	}
}

func TestHashRemoveValueAcrossAllKeys(t *testing.T) {
	h := NewHash()
	h.Insert(value.Str("a"), 1)
	h.Insert(value.Str("b"), 1)
	h.Insert(value.Str("a"), 2)

	h.RemoveValue(1)

	require.Equal(t, []uint64{2}, h.Search(value.Str("a")))
	require.Empty(t, h.Search(value.Str("b")))
}

func TestCompositeHashTupleIdentity(t *testing.T) {
	c := NewCompositeHash()
	c.Insert([]value.Value{value.Str("a"), value.Str("b")}, 1)
	c.Insert([]value.Value{value.Str("ab"), value.Str("")}, 2)

	require.Equal(t, []uint64{1}, c.Search([]value.Value{value.Str("a"), value.Str("b")}))
	require.Equal(t, []uint64{2}, c.Search([]value.Value{value.Str("ab"), value.Str("")}))
}

func TestCompositeHashDelete(t *testing.T) {
	c := NewCompositeHash()
	key := []value.Value{value.Int(1), value.Int(2)}
	c.Insert(key, 10)
	c.Delete(key, 10)

	require.Empty(t, c.Search(key))
}

func TestBitmapSetSearchAndLowCardinality(t *testing.T) {
	b := NewBitmap(0) // exercises the <=0 -> DefaultBitmapCapacityHint path
	b.Set(value.Str("red"), 1)
	b.Set(value.Str("red"), 65)
	b.Set(value.Str("blue"), 2)

	require.ElementsMatch(t, []uint64{1, 65}, b.Search(value.Str("red")))
	require.Equal(t, []uint64{2}, b.Search(value.Str("blue")))
	require.Nil(t, b.Search(value.Str("green")))
}

func TestBitmapAndOrNot(t *testing.T) {
	b := NewBitmap(8)
	b.Set(value.Str("red"), 1)
	b.Set(value.Str("red"), 2)
	b.Set(value.Str("big"), 2)
	b.Set(value.Str("big"), 3)

	require.Equal(t, []uint64{2}, b.And(value.Str("red"), value.Str("big")))
	require.ElementsMatch(t, []uint64{1, 2, 3}, b.Or(value.Str("red"), value.Str("big")))
	require.ElementsMatch(t, []uint64{3}, b.Not(value.Str("red")))
}

func TestRecommendHeuristic(t *testing.T) {
	require.Equal(t, KindBitmap, Recommend(50, false))
	require.Equal(t, KindBTree, Recommend(50000, true))
	require.Equal(t, KindHash, Recommend(50000, false))
	require.Equal(t, KindBTree, Recommend(5000, false))
}

func TestIndexKindsAgreeOnEqualityLookup(t *testing.T) {
	rows := []struct {
		key   value.Value
		rowID uint64
	}{
		{value.Int(1), 10}, {value.Int(2), 20}, {value.Int(1), 30},
	}

	bt := NewBTree()
	h := NewHash()
	bm := NewBitmap(8)
	for _, r := range rows {
		bt.Insert(r.key, r.rowID)
		h.Insert(r.key, r.rowID)
		bm.Set(r.key, r.rowID)
	}

	probe := value.Int(1)
	want := []uint64{10, 30}
	require.ElementsMatch(t, want, bt.Search(probe))
	require.ElementsMatch(t, want, h.Search(probe))
	require.ElementsMatch(t, want, bm.Search(probe))
}

func TestManagerCreateIndexesAndLookup(t *testing.T) {
	m := NewManager()

	_, err := m.CreateBTree("ix_t_a", "t", "a", 1000)
	require.NoError(t, err)
	_, err = m.CreateHash("ix_t_b", "t", "b", 50000)
	require.NoError(t, err)

	require.Len(t, m.IndexesOnTable("t"), 2)
	require.Len(t, m.IndexesOnColumn("t", "a"), 1)
	require.Empty(t, m.IndexesOnColumn("t", "missing"))

	info, ok := m.Get("ix_t_a")
	require.True(t, ok)
	require.Equal(t, KindBTree, info.Kind)

	require.NoError(t, m.Drop("ix_t_a"))
	_, ok = m.Get("ix_t_a")
	require.False(t, ok)
	require.Len(t, m.IndexesOnTable("t"), 1)
}

func TestManagerDropTableRemovesAllItsIndexes(t *testing.T) {
	m := NewManager()
	_, err := m.CreateBTree("ix_a", "t", "a", 10)
	require.NoError(t, err)
	_, err = m.CreateBitmap("ix_b", "t", "b", 10)
	require.NoError(t, err)

	m.DropTable("t")

	require.Empty(t, m.IndexesOnTable("t"))
	_, ok := m.Get("ix_a")
	require.False(t, ok)
}

func TestManagerDuplicateNameFails(t *testing.T) {
	m := NewManager()
	_, err := m.CreateBTree("ix", "t", "a", 10)
	require.NoError(t, err)
	_, err = m.CreateHash("ix", "t", "b", 10)
	require.Error(t, err)
}
