package mongodb_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/mongodb"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func startMongo(t *testing.T) (*mongo.Client, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForLog("Waiting for connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	return client, uri
}

func TestMongoStore(t *testing.T) {
	client, _ := startMongo(t)

	// Every subtest gets its own database on the shared client.
	var n atomic.Int64
	factory := func(t *testing.T) store.Store {
		st := mongodb.New(client, fmt.Sprintf("tollgate_%d", n.Add(1)))
		require.NoError(t, st.ApplyMigrations(t.Context()))
		return st
	}

	storetest.Run(t, factory)
}

func TestMongoNewStore(t *testing.T) {
	_, uri := startMongo(t)

	st, err := mongodb.NewStore(t.Context(), uri, "tollgate_connect")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Ping(t.Context()))
	require.NoError(t, st.ApplyMigrations(t.Context()))
	// Index creation is idempotent.
	require.NoError(t, st.ApplyMigrations(t.Context()))
}
