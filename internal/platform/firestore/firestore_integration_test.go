//go:build integration

package firestore_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	pconfig "github.com/madenkorea/api/internal/platform/config"
	pfirestore "github.com/madenkorea/api/internal/platform/firestore"
)

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

type promoDoc struct {
	Code       string `firestore:"code"`
	UsageCount int    `firestore:"usageCount"`
}

func TestProviderAndRepositoryIntegration(t *testing.T) {
	endpoint := startEmulator(t)

	provider := pfirestore.NewProvider(pconfig.FirestoreConfig{
		ProjectID:    "test-project",
		EmulatorHost: endpoint,
	})
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if _, err := provider.Client(ctx); err != nil {
		t.Fatalf("expected firestore client, got error: %v", err)
	}

	repo := pfirestore.NewBaseRepository[promoDoc](provider, "promo_codes")

	t.Run("set and get", func(t *testing.T) {
		if _, err := repo.Set(ctx, "promo-1", promoDoc{Code: "GLOW10", UsageCount: 1}); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		doc, err := repo.Get(ctx, "promo-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if doc.ID != "promo-1" {
			t.Fatalf("expected id promo-1, got %s", doc.ID)
		}
		if doc.Data.Code != "GLOW10" || doc.Data.UsageCount != 1 {
			t.Fatalf("unexpected data: %#v", doc.Data)
		}
		if doc.UpdateTime.IsZero() {
			t.Fatalf("expected update time to be set")
		}
	})

	t.Run("update", func(t *testing.T) {
		if _, err := repo.Update(ctx, "promo-1", []firestore.Update{{Path: "usageCount", Value: 2}}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		doc, err := repo.Get(ctx, "promo-1")
		if err != nil {
			t.Fatalf("get after update failed: %v", err)
		}
		if doc.Data.UsageCount != 2 {
			t.Fatalf("expected usageCount=2, got %d", doc.Data.UsageCount)
		}
	})

	t.Run("query", func(t *testing.T) {
		docs, err := repo.Query(ctx, nil)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected 1 document, got %d", len(docs))
		}
	})

	t.Run("missing document classified as not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		if err == nil {
			t.Fatalf("expected not found error")
		}
		type repoClassifier interface{ IsNotFound() bool }
		var cls repoClassifier
		if !errors.As(err, &cls) {
			t.Fatalf("expected repository error, got %v", err)
		}
		if !cls.IsNotFound() {
			t.Fatalf("expected not found classification")
		}
	})

	t.Run("transaction increments usage", func(t *testing.T) {
		err := provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			ref, err := repo.DocumentRef(ctx, "promo-1")
			if err != nil {
				return err
			}
			snap, err := tx.Get(ref)
			if err != nil {
				return err
			}
			var entity promoDoc
			if err := snap.DataTo(&entity); err != nil {
				return err
			}
			entity.UsageCount++
			return tx.Set(ref, entity)
		})
		if err != nil {
			t.Fatalf("transaction failed: %v", err)
		}

		doc, err := repo.Get(ctx, "promo-1")
		if err != nil {
			t.Fatalf("get after transaction failed: %v", err)
		}
		if doc.Data.UsageCount != 3 {
			t.Fatalf("expected usageCount=3 after txn, got %d", doc.Data.UsageCount)
		}
	})

	t.Run("cancelled context aborts transaction", func(t *testing.T) {
		cancelled, cancelTxn := context.WithCancel(context.Background())
		cancelTxn()
		err := provider.RunTransaction(cancelled, func(context.Context, *firestore.Transaction) error {
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled error, got %v", err)
		}
	})
}

// startEmulator launches the Firestore emulator in docker, registers cleanup,
// and blocks until it accepts connections. Tests skip when docker is absent.
func startEmulator(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}
	infoCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(infoCtx, "docker", "info").Run(); err != nil {
		t.Skip("docker daemon unavailable: " + err.Error())
	}

	port := freePort(t)
	out, err := exec.Command("docker",
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		firestoreEmulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	).CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatalf("docker returned empty container id")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = exec.CommandContext(stopCtx, "docker", "stop", id).Run()
	})

	endpoint := fmt.Sprintf("127.0.0.1:%d", port)
	waitForEndpoint(t, endpoint, 30*time.Second)
	return endpoint
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		lastErr = err
		time.Sleep(250 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for endpoint")
	}
	t.Fatalf("emulator did not become ready: %v", lastErr)
}
