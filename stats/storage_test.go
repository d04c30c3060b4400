package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	require.NoError(t, err)

	t.Run("Record", func(t *testing.T) {
		storage.Record(Delta{Analyses: 1, CacheMisses: 1, FetchSuccess: 8, FetchFallback: 1, FetchBlocked: 1, DocumentsAnalyzed: 9})
		storage.Record(Delta{CacheHits: 1})

		stats := storage.GetCurrentStats()
		assert.Equal(t, 1, stats.Analyses)
		assert.Equal(t, 1, stats.CacheHits)
		assert.Equal(t, 1, stats.CacheMisses)
		assert.Equal(t, 8, stats.FetchSuccess)
		assert.Equal(t, 1, stats.FetchFallback)
		assert.Equal(t, 1, stats.FetchBlocked)
		assert.Equal(t, 9, stats.DocumentsAnalyzed)
		assert.False(t, stats.LastUpdated.IsZero())
	})

	t.Run("Persistence", func(t *testing.T) {
		require.NoError(t, storage.save())

		storage2, err := NewStorage(tempDir, nil)
		require.NoError(t, err)
		defer storage2.Close()

		assert.Equal(t, 1, storage2.GetCurrentStats().Analyses)
		assert.Equal(t, 8, storage2.GetCurrentStats().FetchSuccess)
	})

	t.Run("Cleanup", func(t *testing.T) {
		now := time.Now()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		oldMonth := first.AddDate(0, -3, 0).Format("2006-01")
		previous := first.AddDate(0, -1, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{Analyses: 100}
		storage.stats[previous] = &MonthlyStats{Analyses: 5}
		storage.mutex.Unlock()

		storage.Cleanup(1)

		_, exists := storage.GetMonthlyStats(oldMonth)
		assert.False(t, exists, "old stats should have been cleaned up")
		_, exists = storage.GetMonthlyStats(previous)
		assert.True(t, exists)
		assert.Equal(t, []string{storage.currentMonth(), previous}, storage.GetAllMonths())
	})

	t.Run("FileSize", func(t *testing.T) {
		require.NoError(t, storage.save())

		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		require.NoError(t, err)
		assert.Less(t, info.Size(), int64(1024))
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					storage.Record(Delta{CacheHits: 1, FetchTimeout: 1})
					storage.GetCurrentStats()
				}
			}()
		}
		wg.Wait()

		after := storage.GetCurrentStats()
		assert.Equal(t, before.CacheHits+1000, after.CacheHits)
		assert.Equal(t, before.FetchTimeout+1000, after.FetchTimeout)
	})

	require.NoError(t, storage.Close())
	require.NoError(t, storage.Close())
}

func TestCloseFlushesToDisk(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewStorage(tempDir, nil)
	require.NoError(t, err)

	storage.now = func() time.Time { return time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC) }
	storage.Record(Delta{Analyses: 3})
	require.NoError(t, storage.Close())

	reloaded, err := NewStorage(tempDir, nil)
	require.NoError(t, err)
	defer reloaded.Close()

	got, ok := reloaded.GetMonthlyStats("2024-05")
	require.True(t, ok)
	assert.Equal(t, 3, got.Analyses)
}
