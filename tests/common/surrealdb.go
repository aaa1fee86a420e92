package common

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	fvcommon "github.com/bobmcallan/fairval/internal/common"
)

// Container settings for the cache store backend
const (
	SurrealImage     = "surrealdb/surrealdb:v3.0.0"
	SurrealNamespace = "fairval_test"
	SurrealUser      = "root"
	SurrealPassword  = "root"

	surrealPort = "8000/tcp"
)

var (
	surrealOnce   sync.Once
	sharedSurreal *SurrealDB
	surrealErr    error
)

// SurrealDB is the process-wide SurrealDB container backing cache store tests.
type SurrealDB struct {
	container testcontainers.Container
	endpoint  string // ws://host:port
}

// StartSurrealDB returns the shared container, starting it on first use.
// Tests skip under -short or when no container provider is healthy.
func StartSurrealDB(t *testing.T) *SurrealDB {
	t.Helper()

	if testing.Short() {
		t.Skip("cache store container tests skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	surrealOnce.Do(func() {
		sharedSurreal, surrealErr = startSurrealDB(context.Background())
	})
	if surrealErr != nil {
		t.Fatalf("SurrealDB container: %v", surrealErr)
	}
	return sharedSurreal
}

func startSurrealDB(ctx context.Context) (*SurrealDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        SurrealImage,
			ExposedPorts: []string{surrealPort},
			Cmd:          []string{"start", "--user", SurrealUser, "--pass", SurrealPassword},
			WaitingFor: wait.ForHTTP("/health").
				WithPort(surrealPort).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, surrealPort, "ws")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("resolve endpoint: %w", err)
	}
	return &SurrealDB{container: container, endpoint: endpoint}, nil
}

// Address returns the RPC address the cache store dials.
func (s *SurrealDB) Address() string {
	return s.endpoint + "/rpc"
}

// StorageConfig returns a surrealdb backend configuration on a database
// private to t, so tests sharing the container never see each other's
// directory or price records.
func (s *SurrealDB) StorageConfig(t *testing.T) fvcommon.StorageConfig {
	t.Helper()
	return fvcommon.StorageConfig{
		Backend:   "surrealdb",
		Address:   s.Address(),
		Namespace: SurrealNamespace,
		Database:  DatabaseName(t),
		Username:  SurrealUser,
		Password:  SurrealPassword,
	}
}

// Terminate stops the container. Only TestMain should call it.
func (s *SurrealDB) Terminate() {
	if s != nil && s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

// DatabaseName derives a SurrealDB-safe database name from the test name.
func DatabaseName(t *testing.T) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, t.Name())
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("t_%s_%d", name, time.Now().UnixNano()%100000)
}
