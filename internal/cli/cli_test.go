package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aaronromeo.com/triager/internal/config"
	"aaronromeo.com/triager/internal/pipeline"
	"aaronromeo.com/triager/pkg/mock"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd.SetArgs(args)
	var output bytes.Buffer
	rootCmd.SetOut(&output)
	rootCmd.SetErr(&output)
	err := rootCmd.Execute()
	return output.String(), err
}

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GOOGLE_TOKEN_JSON", "TRIAGER_GOOGLE_TOKEN_FILE", configEnvVar} {
		t.Setenv(name, "")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	clearCredentials(t)

	_, err := execute(t, "run", "--config=")
	if err == nil {
		t.Fatal("expected run to fail without a config path")
	}
	if !strings.Contains(err.Error(), configEnvVar) {
		t.Fatalf("expected config path error, got: %v", err)
	}
}

func TestRunRejectsUnknownBackend(t *testing.T) {
	clearCredentials(t)
	path := writeConfig(t, `
storage:
  backend: "ftp"
`)

	_, err := execute(t, "run", "--config", path)
	if err == nil {
		t.Fatal("expected run to fail with an unknown backend")
	}
	if !strings.Contains(err.Error(), "storage.backend") {
		t.Fatalf("expected storage.backend error, got: %v", err)
	}
}

func TestWatchRequiresGoogleToken(t *testing.T) {
	clearCredentials(t)
	path := writeConfig(t, `
poll:
  interval: "5m"
storage:
  backend: "none"
`)

	_, err := execute(t, "watch", "--config", path)
	if err == nil {
		t.Fatal("expected watch to fail without a google token")
	}
	if !strings.Contains(err.Error(), "GOOGLE_TOKEN_JSON") {
		t.Fatalf("expected missing token error, got: %v", err)
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	clearCredentials(t)
	path := writeConfig(t, `
storage:
  backend: "ftp"
`)
	t.Setenv(configEnvVar, path)

	_, err := execute(t, "run", "--config=")
	if err == nil || !strings.Contains(err.Error(), "storage.backend") {
		t.Fatalf("expected config from %s to be loaded, got: %v", configEnvVar, err)
	}
}

func TestStoreTokenRejectsInvalidToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	_, err := execute(t, "store-token", "--file", path)
	if err == nil {
		t.Fatal("expected store-token to reject an empty token")
	}
}

func TestNewStore(t *testing.T) {
	logger := mock.SetupLogger(t)

	store, err := newStore(context.Background(), config.BackendNone, nil, logger)
	if err != nil || store != nil {
		t.Fatalf("expected no store for backend none, got %v, %v", store, err)
	}

	if _, err := newStore(context.Background(), "ftp", nil, logger); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	t.Setenv("TRIAGER_S3_BUCKET", "")
	if _, err := newStore(context.Background(), config.BackendS3, nil, logger); err == nil {
		t.Fatal("expected error for missing S3 environment")
	}
}

func TestWatchLoopRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycles := 0
	watchLoop(ctx, time.Millisecond, func(context.Context) {
		cycles++
		if cycles == 3 {
			cancel()
		}
	})
	if cycles != 3 {
		t.Fatalf("expected 3 cycles, got %d", cycles)
	}
}

func TestWatchLoopSkipsWhenAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	watchLoop(ctx, time.Millisecond, func(context.Context) {
		t.Fatal("cycle should not run after cancellation")
	})
}

func TestStatusApp(t *testing.T) {
	reports := pipeline.NewReportStore()
	reports.Save(pipeline.Report{RunID: "run-1"})
	app := newStatusApp(reports)

	resp, err := app.Test(httptest.NewRequest("GET", "/status", nil))
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
