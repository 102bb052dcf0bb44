package surrealdb

// Integration tests run against a real SurrealDB server in a container.
// One container serves the whole test binary; isolation comes from giving
// every test its own database inside the ydrx_test namespace, since the
// blob store always writes under the same fixed document key.

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	surreal "github.com/surrealdb/surrealdb.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ydrx/ydrx/internal/common"
)

var (
	containerOnce sync.Once
	containerAddr string
	containerErr  error
)

// surrealAddr starts the shared container on first use and returns its
// WebSocket RPC address.
func surrealAddr(t *testing.T) string {
	t.Helper()

	containerOnce.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "surrealdb/surrealdb:v3.0.0",
				ExposedPorts: []string{"8000/tcp"},
				Cmd:          []string{"start", "--user", "root", "--pass", "root"},
				WaitingFor: wait.ForAll(
					wait.ForListeningPort("8000/tcp"),
					wait.ForLog("Started web server"),
				).WithDeadline(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			containerErr = fmt.Errorf("start SurrealDB container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			containerErr = fmt.Errorf("resolve SurrealDB host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, "8000/tcp")
		if err != nil {
			containerErr = fmt.Errorf("resolve SurrealDB port: %w", err)
			return
		}
		containerAddr = fmt.Sprintf("ws://%s:%s/rpc", host, port.Port())
	})

	if containerErr != nil {
		t.Fatalf("SurrealDB container: %v", containerErr)
	}
	return containerAddr
}

// newTestStore connects to the shared server and returns a Store bound to a
// database of its own. The database name is derived from the test name;
// subtests produce names with "/" which SurrealDB rejects, so it is
// sanitized first.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := surreal.New(surrealAddr(t))
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}
	t.Cleanup(func() {
		db.Close(context.Background())
	})

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": "root",
		"pass": "root",
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, "ydrx_test", dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	store, err := NewStoreWithDB(db, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewStoreWithDB: %v", err)
	}
	return store
}
