package blob

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"talentflow/internal/talentflow"
)

// startRedis runs a throwaway Redis container and returns its address.
// The test is skipped when no container runtime is available.
func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisStore(t *testing.T) {
	addr := startRedis(t)
	n := 0

	testStoreContract(t, func(t *testing.T) talentflow.BlobStore {
		n++
		s := NewRedisStore(addr, "", 0, fmt.Sprintf("tf-test-%d:", n))
		t.Cleanup(func() { s.Close() })
		return s
	})

	t.Run("glob characters in prefix", func(t *testing.T) {
		ctx := context.Background()
		exact := NewRedisStore(addr, "", 0, "tf[1]*:")
		lookalike := NewRedisStore(addr, "", 0, "tf[1]x:")
		t.Cleanup(func() {
			exact.Close()
			lookalike.Close()
		})

		put(t, exact, "a?", "1")
		put(t, lookalike, "b", "2")

		got, err := exact.List(ctx, "")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if want := []string{"a?"}; !slices.Equal(got, want) {
			t.Errorf("List() = %v, want %v", got, want)
		}

		got, err = exact.List(ctx, "a?")
		if err != nil || !slices.Equal(got, []string{"a?"}) {
			t.Errorf("List(%q) = %v, %v", "a?", got, err)
		}
		got, err = exact.List(ctx, "ab")
		if err != nil || len(got) != 0 {
			t.Errorf("List(%q) = %v, %v; want empty", "ab", got, err)
		}
	})
}

func TestScannedKeys(t *testing.T) {
	raw := []string{"tf:b", "tf:a", "tf:b", "tf:c", "tf:a"}
	got := scannedKeys(raw, "tf:")
	if want := []string{"a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("scannedKeys() = %v, want %v", got, want)
	}
	if got := scannedKeys(nil, "tf:"); got == nil || len(got) != 0 {
		t.Errorf("scannedKeys(nil) = %#v, want empty slice", got)
	}
}
