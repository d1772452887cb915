package db

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"bet-tracker-bot/internal/config"
)

func TestBuildPoolConfig(t *testing.T) {
	tests := []struct {
		name         string
		cfg          config.DatabaseConfig
		wantMin      int32
		wantMax      int32
		wantLifetime time.Duration
		wantTimeout  string
	}{
		{
			name:         "defaults",
			cfg:          config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "bets"},
			wantMin:      1,
			wantMax:      1,
			wantLifetime: defaultMaxConnLifetime,
		},
		{
			name: "configured",
			cfg: config.DatabaseConfig{
				Host: "db", Port: 5433, Name: "bets", PoolSize: 20,
				MaxConnLifetime: 10 * time.Minute, QueryTimeout: 1500 * time.Millisecond,
			},
			wantMin:      5,
			wantMax:      20,
			wantLifetime: 10 * time.Minute,
			wantTimeout:  "1500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := buildPoolConfig(&tt.cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMin, pc.MinConns)
			assert.Equal(t, tt.wantMax, pc.MaxConns)
			assert.Equal(t, tt.wantLifetime, pc.MaxConnLifetime)
			assert.Equal(t, defaultMaxConnIdleTime, pc.MaxConnIdleTime)
			assert.Equal(t, defaultConnectTimeout, pc.ConnConfig.ConnectTimeout)
			assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
			assert.Equal(t, tt.wantTimeout, pc.ConnConfig.RuntimeParams["statement_timeout"])
		})
	}
}

func TestHealthCheck_RequiresMigratedSchema(t *testing.T) {
	if err := exec.Command("docker", "info").Run(); err != nil {
		t.Skip("Docker is not available, skipping integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Host: host, Port: port.Int(), User: "testuser", Password: "testpass", Name: "testdb",
		PoolSize: 4, QueryTimeout: 5 * time.Second,
	}
	pool, err := NewPool(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	err = pool.HealthCheck(ctx)
	assert.ErrorIs(t, err, ErrSchemaMissing)
	assert.Contains(t, err.Error(), "picks")

	require.NoError(t, MigrateUp(cfg.DSN()))
	assert.NoError(t, pool.HealthCheck(ctx))

	var appName, timeout string
	require.NoError(t, pool.QueryRow(ctx, "SELECT current_setting('application_name'), current_setting('statement_timeout')").Scan(&appName, &timeout))
	assert.Equal(t, applicationName, appName)
	assert.Equal(t, "5s", timeout)
}
