package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheCapacityInvariant(t *testing.T) {
	c := New(4*DefaultPageBytes, WithLoader(func(id PageID) ([]byte, error) {
		return []byte{byte(id)}, nil
	}))

	for i := PageID(1); i <= 10; i++ {
		_, err := c.Get(i)
		require.NoError(t, err)
		require.LessOrEqual(t, c.UsedBytes(), int64(4*DefaultPageBytes))
	}
}

func TestCachePinExemptsFromEviction(t *testing.T) {
	c := New(2*DefaultPageBytes, WithLoader(func(id PageID) ([]byte, error) {
		return []byte{byte(id)}, nil
	}))

	_, err := c.Get(1)
	require.NoError(t, err)
	c.Pin(1)

	_, err = c.Get(2)
	require.NoError(t, err)
	_, err = c.Get(3)
	require.NoError(t, err)

	// page 1 is pinned, so eviction must have skipped it even though it is
	// the coldest probation entry.
	_, err = c.Get(1)
	require.NoError(t, err)

	c.Unpin(1)
}

func TestCacheTwoQueuePromotionLaw(t *testing.T) {
	c := New(10*DefaultPageBytes, WithLoader(func(id PageID) ([]byte, error) {
		return []byte{byte(id)}, nil
	}))

	_, err := c.Get(1)
	require.NoError(t, err)
	require.True(t, c.InProbation(1))
	require.False(t, c.InProtected(1))

	_, err = c.Get(1)
	require.NoError(t, err)
	require.True(t, c.InProtected(1))
	require.False(t, c.InProbation(1))
}

func TestCacheDirtyPageFlushedOnEviction(t *testing.T) {
	flushed := make(map[PageID][]byte)
	c := New(1*DefaultPageBytes,
		WithLoader(func(id PageID) ([]byte, error) { return []byte{byte(id)}, nil }),
		WithFlusher(func(id PageID, data []byte) error {
			flushed[id] = data
			return nil
		}),
	)

	_, err := c.Get(1)
	require.NoError(t, err)
	c.MarkDirty(1)

	_, err = c.Get(2)
	require.NoError(t, err)

	require.Contains(t, flushed, PageID(1))
}

func TestCacheFlushAll(t *testing.T) {
	flushed := make(map[PageID]bool)
	c := New(10*DefaultPageBytes,
		WithLoader(func(id PageID) ([]byte, error) { return []byte{byte(id)}, nil }),
		WithFlusher(func(id PageID, data []byte) error {
			flushed[id] = true
			return nil
		}),
	)

	for i := PageID(1); i <= 3; i++ {
		_, err := c.Get(i)
		require.NoError(t, err)
		c.MarkDirty(i)
	}

	require.NoError(t, c.FlushAll())
	require.Len(t, flushed, 3)
}
