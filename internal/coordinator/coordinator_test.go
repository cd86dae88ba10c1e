package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

type fakeStore struct {
	pingErr    error
	data       *models.PortfolioData
	fetchErr   error
	fetchCalls int

	inFlight    int32
	maxInFlight int32
	fetchDelay  time.Duration
}

func (f *fakeStore) Ping() error { return f.pingErr }

func (f *fakeStore) PortfolioData() (*models.PortfolioData, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, n) {
			break
		}
	}
	if f.fetchDelay > 0 {
		time.Sleep(f.fetchDelay)
	}

	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.data, nil
}

type fakeSheets struct {
	configured bool
	status     models.ConnectionStatus
}

func (f *fakeSheets) Configured() bool { return f.configured }

func (f *fakeSheets) Status(ctx context.Context) models.ConnectionStatus { return f.status }

type fakeSyncer struct {
	result models.SyncResult
	calls  int
}

func (f *fakeSyncer) Sync(ctx context.Context) models.SyncResult {
	f.calls++
	return f.result
}

type fakeCache struct {
	snap      *models.Snapshot
	loadErr   error
	saveErr   error
	saveCalls int
}

func (f *fakeCache) Load(ctx context.Context) (*models.Snapshot, error) {
	return f.snap, f.loadErr
}

func (f *fakeCache) Save(ctx context.Context, snap *models.Snapshot) error {
	f.saveCalls++
	if f.saveErr == nil {
		f.snap = snap.Clone()
	}
	return f.saveErr
}

func testData() *models.PortfolioData {
	return &models.PortfolioData{
		PortfolioValue:     decimal.NewFromInt(10000),
		DailyChange:        decimal.NewFromInt(250),
		DailyChangePercent: decimal.NewFromFloat(2.56),
		Positions: []models.Position{
			{Symbol: "AAPL", Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(150), Value: decimal.NewFromInt(1500)},
			{Symbol: "MSFT", Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(300), Value: decimal.NewFromInt(1500)},
		},
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("successful cycle publishes a complete snapshot", func(t *testing.T) {
		store := &fakeStore{data: testData()}
		sheets := &fakeSheets{configured: true, status: models.StatusConnected}
		sync := &fakeSyncer{result: models.SyncResult{Success: true, PointsWritten: 3}}
		c := New(store, sheets, sync, true, time.Minute)

		snap, err := c.Refresh(ctx)
		require.NoError(t, err)

		assert.True(t, decimal.NewFromInt(10000).Equal(snap.PortfolioValue))
		assert.Equal(t, 2, snap.TotalPositions)
		assert.Equal(t, "success", snap.LastSync)
		assert.Equal(t, models.StatusConnected, snap.InfluxDBStatus)
		assert.Equal(t, models.StatusConnected, snap.GoogleSheetsStatus)
		assert.True(t, snap.DataSources[models.SourceInfluxDB])
		assert.True(t, snap.DataSources[models.SourceGoogleSheets])
		assert.Empty(t, snap.PartialErrors)
		assert.Empty(t, snap.Error)
		assert.Equal(t, 1, sync.calls)
		assert.Same(t, snap, c.Snapshot())
	})

	t.Run("fetch failure falls back to the cached snapshot verbatim", func(t *testing.T) {
		store := &fakeStore{data: testData()}
		sheets := &fakeSheets{configured: false}
		c := New(store, sheets, &fakeSyncer{}, true, time.Minute)

		first, err := c.Refresh(ctx)
		require.NoError(t, err)

		store.fetchErr = fmt.Errorf("connection refused")
		second, err := c.Refresh(ctx)
		require.NoError(t, err)

		assert.True(t, first.PortfolioValue.Equal(second.PortfolioValue))
		assert.True(t, first.DailyChange.Equal(second.DailyChange))
		assert.Equal(t, first.Positions, second.Positions)
		assert.Equal(t, first.TotalPositions, second.TotalPositions)
		assert.Equal(t, "Using cached data - connection refused", second.Error)
	})

	t.Run("fetch failure with no cache is fatal and publishes nothing", func(t *testing.T) {
		store := &fakeStore{fetchErr: fmt.Errorf("no route to host")}
		c := New(store, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)

		snap, err := c.Refresh(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUpdateFailed))
		assert.Nil(t, snap)
		assert.Nil(t, c.Snapshot())
	})

	t.Run("cached fallback is a deep copy and cannot be corrupted", func(t *testing.T) {
		store := &fakeStore{data: testData()}
		c := New(store, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)

		_, err := c.Refresh(ctx)
		require.NoError(t, err)

		store.fetchErr = fmt.Errorf("boom")
		first, err := c.Refresh(ctx)
		require.NoError(t, err)

		// Corrupting one published snapshot must not leak into later cycles.
		first.Positions[0].Symbol = "HACKED"

		second, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "AAPL", second.Positions[0].Symbol)
	})

	t.Run("source statuses are independent", func(t *testing.T) {
		store := &fakeStore{data: testData()}
		sheets := &fakeSheets{configured: true, status: models.StatusDisconnected}
		c := New(store, sheets, &fakeSyncer{result: models.SyncResult{Success: true}}, true, time.Minute)

		snap, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.True(t, snap.DataSources[models.SourceInfluxDB])
		assert.False(t, snap.DataSources[models.SourceGoogleSheets])

		store.pingErr = fmt.Errorf("timeout")
		sheets.status = models.StatusConnected
		snap, err = c.Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, snap.DataSources[models.SourceInfluxDB])
		assert.True(t, snap.DataSources[models.SourceGoogleSheets])
	})

	t.Run("sync failure is non-fatal and annotated", func(t *testing.T) {
		store := &fakeStore{data: testData()}
		sheets := &fakeSheets{configured: true, status: models.StatusConnected}
		sync := &fakeSyncer{result: models.SyncResult{Success: false, Error: "quota exceeded"}}
		c := New(store, sheets, sync, true, time.Minute)

		snap, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "error: quota exceeded", snap.LastSync)
		assert.Contains(t, snap.PartialErrors, "sync: quota exceeded")
		assert.True(t, decimal.NewFromInt(10000).Equal(snap.PortfolioValue))
	})

	t.Run("ping failure is non-fatal when the fetch still succeeds", func(t *testing.T) {
		store := &fakeStore{data: testData(), pingErr: fmt.Errorf("dial tcp: timeout")}
		c := New(store, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)

		snap, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDisconnected, snap.InfluxDBStatus)
		assert.NotEmpty(t, snap.PartialErrors)
		assert.True(t, decimal.NewFromInt(10000).Equal(snap.PortfolioValue))
	})

	t.Run("auto-sync disabled skips the syncer", func(t *testing.T) {
		sync := &fakeSyncer{}
		sheets := &fakeSheets{configured: true, status: models.StatusConnected}
		c := New(&fakeStore{data: testData()}, sheets, sync, false, time.Minute)

		snap, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Zero(t, sync.calls)
		assert.Empty(t, snap.LastSync)
	})

	t.Run("unconfigured spreadsheet skips sync and reports not_configured", func(t *testing.T) {
		sync := &fakeSyncer{}
		c := New(&fakeStore{data: testData()}, &fakeSheets{configured: false}, sync, true, time.Minute)

		snap, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Zero(t, sync.calls)
		assert.Equal(t, models.StatusNotConfigured, snap.GoogleSheetsStatus)
		assert.False(t, snap.DataSources[models.SourceGoogleSheets])
	})

	t.Run("refreshes are single-flight", func(t *testing.T) {
		store := &fakeStore{data: testData(), fetchDelay: 20 * time.Millisecond}
		c := New(store, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Refresh(ctx)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&store.maxInFlight))
		assert.Equal(t, 5, store.fetchCalls)
	})
}

func TestSnapshotPersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("successful fetch saves the snapshot", func(t *testing.T) {
		cache := &fakeCache{}
		c := New(&fakeStore{data: testData()}, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)
		c.SetSnapshotCache(cache)

		_, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.saveCalls)
		require.NotNil(t, cache.snap)
		assert.True(t, decimal.NewFromInt(10000).Equal(cache.snap.PortfolioValue))
	})

	t.Run("persisted snapshot seeds degraded startup", func(t *testing.T) {
		seeded := &models.Snapshot{
			PortfolioValue: decimal.NewFromInt(7777),
			Positions:      []models.Position{{Symbol: "AAPL", Value: decimal.NewFromInt(7777)}},
			LastUpdate:     time.Now().Add(-time.Hour),
		}
		cache := &fakeCache{snap: seeded}
		store := &fakeStore{fetchErr: fmt.Errorf("influxdb down")}
		c := New(store, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)
		c.SetSnapshotCache(cache)

		c.seedFromCache(ctx)
		snap, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(7777).Equal(snap.PortfolioValue))
		assert.Contains(t, snap.Error, "Using cached data")
	})

	t.Run("save failure does not fail the refresh", func(t *testing.T) {
		cache := &fakeCache{saveErr: fmt.Errorf("redis down")}
		c := New(&fakeStore{data: testData()}, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)
		c.SetSnapshotCache(cache)

		_, err := c.Refresh(ctx)
		require.NoError(t, err)
	})
}

func TestHealthy(t *testing.T) {
	ctx := context.Background()

	t.Run("false before first refresh", func(t *testing.T) {
		c := New(&fakeStore{}, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)
		assert.False(t, c.Healthy())
	})

	t.Run("sheets only affect health when configured", func(t *testing.T) {
		store := &fakeStore{data: testData()}
		sheets := &fakeSheets{configured: false}
		c := New(store, sheets, &fakeSyncer{}, true, time.Minute)

		_, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.True(t, c.Healthy())

		sheets.configured = true
		sheets.status = models.StatusDisconnected
		_, err = c.Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, c.Healthy())
	})

	t.Run("false when influxdb is disconnected", func(t *testing.T) {
		store := &fakeStore{data: testData(), pingErr: fmt.Errorf("timeout")}
		c := New(store, &fakeSheets{}, &fakeSyncer{}, true, time.Minute)

		_, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, c.Healthy())
	})
}
