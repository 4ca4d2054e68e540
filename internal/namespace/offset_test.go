package namespace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendOnlyReadBoundsStale(t *testing.T) {
	_, err := AppendOnlyReadBounds(100, 200, 50, 10)
	var staleErr *StaleError
	require.ErrorAs(t, err, &staleErr)
	require.Equal(t, uint64(50), staleErr.Requested)
	require.Equal(t, uint64(100), staleErr.AvailableStart)
}

func TestAppendOnlyReadBoundsExactAndShort(t *testing.T) {
	b, err := AppendOnlyReadBounds(0, 100, 90, 5)
	require.NoError(t, err)
	require.Equal(t, uint32(5), b.Len)
	require.False(t, b.Short)

	b, err = AppendOnlyReadBounds(0, 100, 90, 50)
	require.NoError(t, err)
	require.Equal(t, uint32(10), b.Len)
	require.True(t, b.Short)
}

func TestAppendOnlyReadBoundsAtExactEnd(t *testing.T) {
	b, err := AppendOnlyReadBounds(0, 100, 100, 10)
	require.NoError(t, err)
	require.Equal(t, uint32(0), b.Len)
	require.True(t, b.Short)
}

func TestAppendOnlyWriteBoundsInvalidOffset(t *testing.T) {
	_, err := AppendOnlyWriteBounds(100, 50, 10, 10)
	var invErr *InvalidWriteError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, uint64(50), invErr.Provided)
	require.Equal(t, uint64(100), invErr.Expected)
}

func TestAppendOnlyWriteBoundsShort(t *testing.T) {
	b, err := AppendOnlyWriteBounds(100, 100, 10, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(4), b.Count)
	require.True(t, b.Short)
}

func TestWatchSampleRenderFieldOrder(t *testing.T) {
	s := WatchSample{TsMs: 1, P50Ms: 2, P95Ms: 3, Queued: 4, Backpressure: 5, Dropped: 6, UiReads: 7, UiDenies: 8}
	require.Equal(t, "watch ts_ms=1 p50_ms=2 p95_ms=3 queued=4 backpressure=5 dropped=6 ui_reads=7 ui_denies=8", s.Render())
}
