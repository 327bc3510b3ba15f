//go:build integration

package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/puoklam/connectly-backend/env"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "connectly",
				"POSTGRES_PASSWORD": "connectly",
				"POSTGRES_DB":       "connectly",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("host=%s port=%s user=connectly password=connectly dbname=connectly sslmode=disable", host, port.Port())
}

func TestPostgresStore(t *testing.T) {
	dsn := startPostgres(t)
	conn, err := Open(env.DatabaseConfig{Driver: "postgres", DSN: dsn, MaxOpenConns: 4}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(conn) })

	storeSuite(t, func(t *testing.T) *Store {
		require.NoError(t, conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Exec(
			"TRUNCATE users, friendships, friend_requests, hobbies").Error)
		return NewStore(conn)
	})
}
