package qcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/exec"
	"github.com/lyradb/lyradb/value"
)

func sampleResult() *exec.QueryResult {
	return &exec.QueryResult{
		Columns: []string{"count"},
		Rows:    [][]value.Value{{value.Int(3)}},
	}
}

func TestCacheHitAfterPut(t *testing.T) {
	c := New()

	_, ok := c.Get("SELECT COUNT(*) FROM t")
	require.False(t, ok)

	c.Put("SELECT COUNT(*) FROM t", sampleResult(), []string{"t"})

	got, ok := c.Get("select   count(*)   from t")
	require.True(t, ok)
	require.Equal(t, int64(3), got.Rows[0][0].Int())

	require.Equal(t, int64(1), c.Stats().Hits)
	require.Equal(t, int64(1), c.Stats().Misses)
}

func TestCacheInvalidationByTable(t *testing.T) {
	c := New()
	c.Put("SELECT COUNT(*) FROM t", sampleResult(), []string{"t"})

	c.Invalidate("t")

	_, ok := c.Get("SELECT COUNT(*) FROM t")
	require.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New(WithTTL(time.Millisecond))
	c.Put("SELECT 1", sampleResult(), nil)

	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("SELECT 1")
	require.False(t, ok)
}

func TestCacheMaxEntriesEviction(t *testing.T) {
	c := New(WithMaxEntries(2))

	c.Put("SELECT 1", sampleResult(), nil)
	c.Put("SELECT 2", sampleResult(), nil)
	c.Put("SELECT 3", sampleResult(), nil)

	require.LessOrEqual(t, c.Len(), 2)
	require.Equal(t, int64(1), c.Stats().Evictions)

	// the first query, being LRU, was evicted.
	_, ok := c.Get("SELECT 1")
	require.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := New()
	c.Put("SELECT 1", sampleResult(), []string{"t"})
	c.Clear()

	require.Equal(t, 0, c.Len())
	_, ok := c.Get("SELECT 1")
	require.False(t, ok)
}

func TestNormalizeFoldsKeywordsOnly(t *testing.T) {
	a := Normalize("select * from T where X = 'Value'")
	b := Normalize("SELECT   *  FROM T WHERE X='Value'")

	require.Equal(t, a, b)
	require.Contains(t, a, "'Value'")
}

func TestSingleflightCollapsesConcurrentMisses(t *testing.T) {
	c := New()

	calls := 0
	execute := func() (*exec.QueryResult, error) {
		calls++

		return sampleResult(), nil
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_, _, _ = c.Singleflight("SELECT 1", execute)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	require.LessOrEqual(t, calls, 8)
}
