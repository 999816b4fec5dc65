//go:build integration

package integration

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aqasim81/cql-migrate/internal/database"
)

const cassandraImage = "cassandra:4.1"

// cluster is one Cassandra node shared by every test in the package;
// each test gets its own keyspace.
var cluster struct { //nolint:gochecknoglobals // shared container
	once      sync.Once
	container testcontainers.Container
	host      string
	port      int
	err       error
}

func startCassandra() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        cassandraImage,
		ExposedPorts: []string{"9042/tcp"},
		Env: map[string]string{
			"MAX_HEAP_SIZE":        "512M",
			"HEAP_NEWSIZE":         "128M",
			"CASSANDRA_NUM_TOKENS": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9042/tcp").WithStartupTimeout(3*time.Minute),
			wait.ForLog("Starting listening for CQL clients").WithStartupTimeout(3*time.Minute),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cluster.err = err
		return
	}

	cluster.container = container

	host, err := container.Host(ctx)
	if err != nil {
		cluster.err = err
		return
	}

	port, err := container.MappedPort(ctx, "9042/tcp")
	if err != nil {
		cluster.err = err
		return
	}

	cluster.host = host
	cluster.port, cluster.err = strconv.Atoi(port.Port())
}

func stopCassandra() {
	if cluster.container != nil {
		_ = cluster.container.Terminate(context.Background())
	}
}

// SetupKeyspace creates a fresh keyspace on the shared node and returns a
// session bound to it together with the options used to open it.
// The keyspace is dropped and the session closed when the test completes.
func SetupKeyspace(t *testing.T) (*gocql.Session, database.ClusterOptions) {
	t.Helper()

	cluster.once.Do(startCassandra)
	require.NoError(t, cluster.err)

	ctx := context.Background()
	keyspace := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	admin, err := database.NewSession(ctx, database.ClusterOptions{
		Hosts:   []string{cluster.host},
		Port:    cluster.port,
		Timeout: 30 * time.Second,
	})
	require.NoError(t, err)

	defer admin.Close()

	require.NoError(t, admin.Query(fmt.Sprintf(
		`CREATE KEYSPACE %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, keyspace,
	)).WithContext(ctx).Exec())

	opts := database.ClusterOptions{
		Hosts:       []string{cluster.host},
		Port:        cluster.port,
		Keyspace:    keyspace,
		Consistency: "one",
		Timeout:     30 * time.Second,
	}

	session, err := database.NewSession(ctx, opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Query(`DROP KEYSPACE IF EXISTS ` + keyspace).Exec()
		session.Close()
	})

	return session, opts
}

// tableExists reports whether keyspace.table is present in the schema.
func tableExists(t *testing.T, session *gocql.Session, keyspace, table string) bool {
	t.Helper()

	var name string

	err := session.Query(
		`SELECT table_name FROM system_schema.tables WHERE keyspace_name = ? AND table_name = ?`,
		keyspace, table,
	).Scan(&name)
	if err == gocql.ErrNotFound { //nolint:errorlint // sentinel returned unwrapped by gocql
		return false
	}

	require.NoError(t, err)

	return true
}
