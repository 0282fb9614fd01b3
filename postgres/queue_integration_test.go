//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/afterten/orderbox"
	"github.com/afterten/orderbox/postgres"
)

func TestEnqueueRoundTripIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	queue := startQueue(t, ctx)

	order, err := queue.Enqueue(ctx, pgDraft("outlet-1"))
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	require.NotEmpty(t, order.ClientRef)
	require.Zero(t, order.Attempts)
	require.Equal(t, order.CreatedAtMillis, order.NextAttemptAtMillis)

	got, err := queue.Order(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ClientRef, got.ClientRef)
	require.JSONEq(t, string(order.Items), string(got.Items))

	count, err := queue.PendingCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestDueOrderingPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	queue := startQueue(t, ctx)

	first, err := queue.Enqueue(ctx, pgDraft("outlet-1"))
	require.NoError(t, err)
	second, err := queue.Enqueue(ctx, pgDraft("outlet-2"))
	require.NoError(t, err)

	// Push the older order's retry time past the newer one. It must
	// drop out of the due set until that time arrives, then come back
	// at the head of the list because it was enqueued first.
	retryAt := time.Now().Add(time.Minute)
	require.NoError(t, queue.RecordFailure(ctx, first.ID, 1, retryAt.UnixMilli()))

	due, err := queue.Due(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, second.ID, due[0].ID)

	due, err = queue.Due(ctx, retryAt.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, first.ID, due[0].ID)
	require.Equal(t, second.ID, due[1].ID)
	require.Equal(t, 1, due[0].Attempts)
}

func TestRecordFailureMonotonicPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	queue := startQueue(t, ctx)

	order, err := queue.Enqueue(ctx, pgDraft("outlet-1"))
	require.NoError(t, err)

	later := order.CreatedAtMillis + 10_000
	require.NoError(t, queue.RecordFailure(ctx, order.ID, 2, later))

	// A delayed write from an older attempt must not rewind state.
	require.NoError(t, queue.RecordFailure(ctx, order.ID, 1, order.CreatedAtMillis+1_000))

	got, err := queue.Order(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Attempts)
	require.Equal(t, later, got.NextAttemptAtMillis)
}

func TestRecordSuccessRemovesOrderPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	queue := startQueue(t, ctx)

	order, err := queue.Enqueue(ctx, pgDraft("outlet-1"))
	require.NoError(t, err)

	require.NoError(t, queue.RecordSuccess(ctx, order.ID))

	count, err := queue.PendingCount(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = queue.Order(ctx, order.ID)
	require.ErrorIs(t, err, orderbox.ErrOrderNotFound)

	// Deleting again is a tolerated no-op.
	require.NoError(t, queue.RecordSuccess(ctx, order.ID))
}

func startQueue(t *testing.T, ctx context.Context) *postgres.Queue {
	t.Helper()
	port := nat.Port("5432/tcp")
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16.3",
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "secret",
			"POSTGRES_DB":       "orderbox",
		},
		WaitingFor: wait.ForSQL(port, "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://postgres:secret@%s:%s/orderbox", host, port.Port())
		}).WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/orderbox", host, mappedPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.EnsureSchema(ctx, pool))

	queue, err := postgres.NewQueue(pool)
	require.NoError(t, err)
	return queue
}

func pgDraft(outletID string) orderbox.OrderDraft {
	return orderbox.OrderDraft{
		OutletID:     outletID,
		EmployeeName: "Dana",
		Items:        json.RawMessage(`[{"k":"p1","name":"Apples","qty":2}]`),
	}
}
