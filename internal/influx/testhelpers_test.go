package influx

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ha-tools/portfolio-tracker/internal/config"
)

// SetupTestClient starts an InfluxDB 1.8 container and returns a connected
// client pointed at a fresh database.
func SetupTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "influxdb:1.8",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"INFLUXDB_DB":                "portfolio_test",
			"INFLUXDB_ADMIN_USER":        "testuser",
			"INFLUXDB_ADMIN_PASSWORD":    "testpass",
			"INFLUXDB_HTTP_AUTH_ENABLED": "true",
		},
		WaitingFor: wait.ForListeningPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start influxdb container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "8086")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	client, err := New(config.InfluxDBConfig{
		URL:      fmt.Sprintf("http://%s:%s", host, port.Port()),
		Username: "testuser",
		Password: "testpass",
		Database: "portfolio_test",
		Timeout:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create influx client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	return client
}
