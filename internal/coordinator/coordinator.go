package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// ErrUpdateFailed marks the fatal refresh condition: the data fetch failed
// and no previously successful snapshot exists to fall back on. Callers
// should treat the coordinator as unavailable when errors.Is reports it.
var ErrUpdateFailed = errors.New("portfolio update failed")

// TimeSeriesStore is the InfluxDB surface the coordinator depends on
type TimeSeriesStore interface {
	Ping() error
	PortfolioData() (*models.PortfolioData, error)
}

// SpreadsheetStore is the Google Sheets surface the coordinator depends on
type SpreadsheetStore interface {
	Configured() bool
	Status(ctx context.Context) models.ConnectionStatus
}

// Synchronizer performs one spreadsheet-to-store synchronization
type Synchronizer interface {
	Sync(ctx context.Context) models.SyncResult
}

// SnapshotCache persists the last successful snapshot across restarts
type SnapshotCache interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}

// Coordinator produces one immutable Snapshot per refresh cycle. Refreshes
// are single-flight: a cycle runs to completion before the next may start.
// A failing data source never aborts the cycle while a cached good snapshot
// exists; only a fetch failure with no cache is fatal.
type Coordinator struct {
	store    TimeSeriesStore
	sheets   SpreadsheetStore
	syncer   Synchronizer
	autoSync bool
	interval time.Duration

	cache SnapshotCache // optional, nil when disabled
	now   func() time.Time

	refreshMu sync.Mutex // single-flight guard, held for the whole cycle

	mu             sync.RWMutex
	current        *models.Snapshot
	lastSuccessful *models.Snapshot
}

// New creates a coordinator polling store every interval, optionally
// auto-syncing the spreadsheet source first.
func New(store TimeSeriesStore, sheets SpreadsheetStore, syncer Synchronizer, autoSync bool, interval time.Duration) *Coordinator {
	return &Coordinator{
		store:    store,
		sheets:   sheets,
		syncer:   syncer,
		autoSync: autoSync,
		interval: interval,
		now:      time.Now,
	}
}

// SetSnapshotCache enables snapshot persistence. Must be called before Run.
func (c *Coordinator) SetSnapshotCache(cache SnapshotCache) {
	c.cache = cache
}

// Snapshot returns the most recently published snapshot, or nil before the
// first successful refresh. The returned snapshot is immutable.
func (c *Coordinator) Snapshot() *models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Healthy reports overall data source health from the published snapshot:
// InfluxDB must be connected, and Google Sheets must be connected whenever
// a spreadsheet is configured.
func (c *Coordinator) Healthy() bool {
	snap := c.Snapshot()
	if snap == nil {
		return false
	}
	if snap.InfluxDBStatus != models.StatusConnected {
		return false
	}
	if c.sheets.Configured() && snap.GoogleSheetsStatus != models.StatusConnected {
		return false
	}
	return true
}

// Run executes an initial refresh, then refreshes on every interval tick
// until the context is cancelled. A fatal initial refresh is logged, not
// returned; degraded startup is preferred over no service at all.
func (c *Coordinator) Run(ctx context.Context) error {
	c.seedFromCache(ctx)

	if _, err := c.Refresh(ctx); err != nil {
		log.Printf("Initial refresh failed: %v", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Coordinator shutting down...")
			return ctx.Err()
		case <-ticker.C:
			if _, err := c.Refresh(ctx); err != nil {
				log.Printf("Refresh failed: %v", err)
			}
		}
	}
}

// Refresh runs one full refresh cycle and publishes the resulting snapshot.
// It returns ErrUpdateFailed when the fetch fails with no cached fallback;
// in that case no snapshot is published and the previous one stays visible.
func (c *Coordinator) Refresh(ctx context.Context) (*models.Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	snap := &models.Snapshot{
		LastUpdate: c.now(),
		Positions:  []models.Position{},
	}
	var partial []string

	// Step 1: optional spreadsheet sync. Failure is non-fatal.
	if c.autoSync && c.sheets.Configured() {
		result := c.syncer.Sync(ctx)
		switch {
		case result.Success:
			snap.LastSync = "success"
		case result.Error != "":
			snap.LastSync = "error: " + result.Error
			partial = append(partial, "sync: "+result.Error)
		default:
			snap.LastSync = "failed"
			partial = append(partial, "sync: failed")
		}
	}

	// Step 2: InfluxDB connectivity probe. Failure is non-fatal.
	snap.InfluxDBStatus = models.StatusConnected
	if err := c.store.Ping(); err != nil {
		snap.InfluxDBStatus = models.StatusDisconnected
		partial = append(partial, fmt.Sprintf("influxdb: %v", err))
	}

	// Step 3: data fetch. On failure fall back to the cached snapshot;
	// with no cache the whole refresh fails.
	fetched := false
	data, err := c.store.PortfolioData()
	if err != nil {
		cached := c.cachedSnapshot()
		if cached == nil {
			return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
		}
		log.Printf("Using last successful data due to fetch failure: %v", err)
		snap.PortfolioValue = cached.PortfolioValue
		snap.DailyChange = cached.DailyChange
		snap.DailyChangePercent = cached.DailyChangePercent
		snap.Positions = cached.Positions
		snap.Error = fmt.Sprintf("Using cached data - %v", err)
	} else {
		fetched = true
		snap.PortfolioValue = data.PortfolioValue
		snap.DailyChange = data.DailyChange
		snap.DailyChangePercent = data.DailyChangePercent
		snap.Positions = data.Positions
	}
	snap.TotalPositions = len(snap.Positions)

	// Step 4: spreadsheet connectivity probe, independent of the sync outcome
	snap.GoogleSheetsStatus = models.StatusNotConfigured
	if c.sheets.Configured() {
		snap.GoogleSheetsStatus = c.sheets.Status(ctx)
		if snap.GoogleSheetsStatus != models.StatusConnected {
			partial = append(partial, "google sheets: disconnected")
		}
	}

	// Step 5: data source flags derive from the probes alone
	snap.DataSources = map[string]bool{
		models.SourceInfluxDB:     snap.InfluxDBStatus == models.StatusConnected,
		models.SourceGoogleSheets: snap.GoogleSheetsStatus == models.StatusConnected,
	}

	// Step 6: aggregate non-fatal errors
	snap.PartialErrors = partial

	// Step 7: publish atomically, caching a deep copy on a successful fetch
	c.mu.Lock()
	if fetched {
		c.lastSuccessful = snap.Clone()
	}
	c.current = snap
	c.mu.Unlock()

	if fetched && c.cache != nil {
		if err := c.cache.Save(ctx, snap); err != nil {
			log.Printf("Failed to persist snapshot: %v", err)
		}
	}

	return snap, nil
}

// seedFromCache loads a persisted snapshot so a restart can serve degraded
// data when the first fetch fails.
func (c *Coordinator) seedFromCache(ctx context.Context) {
	if c.cache == nil {
		return
	}
	snap, err := c.cache.Load(ctx)
	if err != nil {
		log.Printf("Failed to load persisted snapshot: %v", err)
		return
	}
	if snap == nil {
		return
	}

	c.mu.Lock()
	if c.lastSuccessful == nil {
		c.lastSuccessful = snap
		log.Printf("Seeded last successful snapshot from cache (updated %s)", snap.LastUpdate.Format(time.RFC3339))
	}
	c.mu.Unlock()
}

// cachedSnapshot returns a deep copy of the last successful snapshot
func (c *Coordinator) cachedSnapshot() *models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccessful.Clone()
}
