package status

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

type fakeInflux struct {
	err error
}

func (f *fakeInflux) HealthCheck() error { return f.err }

type fakeSheets struct {
	configured bool
	status     models.ConnectionStatus
}

func (f *fakeSheets) Configured() bool                                    { return f.configured }
func (f *fakeSheets) Status(ctx context.Context) models.ConnectionStatus { return f.status }

func TestSystemStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy with influxdb only", func(t *testing.T) {
		r := NewReporter(&fakeInflux{}, &fakeSheets{configured: false}, "1.3.0")
		status := r.SystemStatus(ctx)

		assert.True(t, status.Healthy)
		assert.True(t, status.Components[models.ComponentTracker])
		assert.True(t, status.Components[models.ComponentInfluxDB])
		assert.False(t, status.Components[models.ComponentGoogleSheets])
		assert.Equal(t, "1.3.0", status.Version)
		assert.False(t, status.LastCheck.IsZero())
	})

	t.Run("influxdb failure degrades health", func(t *testing.T) {
		r := NewReporter(&fakeInflux{err: fmt.Errorf("database not found")}, &fakeSheets{}, "1.3.0")
		status := r.SystemStatus(ctx)

		assert.False(t, status.Healthy)
		assert.False(t, status.Components[models.ComponentInfluxDB])
	})

	t.Run("unconfigured sheets never degrade health", func(t *testing.T) {
		r := NewReporter(&fakeInflux{}, &fakeSheets{configured: false, status: models.StatusNotConfigured}, "1.3.0")
		assert.True(t, r.SystemStatus(ctx).Healthy)
	})

	t.Run("configured but disconnected sheets degrade health", func(t *testing.T) {
		r := NewReporter(&fakeInflux{}, &fakeSheets{configured: true, status: models.StatusDisconnected}, "1.3.0")
		status := r.SystemStatus(ctx)

		assert.False(t, status.Healthy)
		assert.False(t, status.Components[models.ComponentGoogleSheets])
	})

	t.Run("configured and connected sheets are healthy", func(t *testing.T) {
		r := NewReporter(&fakeInflux{}, &fakeSheets{configured: true, status: models.StatusConnected}, "1.3.0")
		status := r.SystemStatus(ctx)

		assert.True(t, status.Healthy)
		assert.True(t, status.Components[models.ComponentGoogleSheets])
	})
}
