//go:build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// buildProcureBinary builds the procure binary once per test.
func buildProcureBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "procure")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build procure: %v\nOutput: %s", err, output)
	}
	return binaryPath
}

// waitForHealthy waits for a health endpoint to return 200.
func waitForHealthy(url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return true
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// writeConfig writes a config using SQLite backends under dir.
func writeConfig(t *testing.T, dir, listen string) string {
	t.Helper()

	catalogPath, err := filepath.Abs(testCatalogPath)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
server:
  listen_address: %q
catalog:
  path: %q
budget:
  backend: sqlite
  sqlite:
    path: %q
audit:
  backend: sqlite
  sqlite:
    path: %q
telemetry:
  logging:
    level: warn
  metrics:
    enabled: true
`, listen, catalogPath, filepath.Join(dir, "ledger.db"), filepath.Join(dir, "audit.db"))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}
	return path
}

func TestServerStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dir := t.TempDir()
	const addr = "127.0.0.1:18090"
	configFile := writeConfig(t, dir, addr)
	binaryPath := buildProcureBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "run", "--config", configFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	base := "http://" + addr
	if !waitForHealthy(base+"/health", 10*time.Second) {
		t.Fatalf("server failed to start\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	resp, err := http.Post(base+"/v1/tools/recommend_purchase", "application/json",
		strings.NewReader(`{"userId":"u004","query":"laptop","requestId":"req-int-1"}`))
	if err != nil {
		t.Fatalf("tool call failed: %v", err)
	}
	var result struct {
		Content struct {
			State    string `json:"state"`
			Selected struct {
				SupplierID string `json:"supplierId"`
			} `json:"selected"`
		} `json:"content"`
		IsError bool `json:"is_error"`
	}
	err = json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
	if result.IsError || result.Content.State != "done" || result.Content.Selected.SupplierID != "S003" {
		t.Errorf("Unexpected tool result %+v", result)
	}

	metrics, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	var body bytes.Buffer
	body.ReadFrom(metrics.Body)
	metrics.Body.Close()
	if !strings.Contains(body.String(), "procurement_engine_tool_calls_total") {
		t.Error("Expected tool call metric to be exported")
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Errorf("failed to send SIGINT: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected shutdown error: %v\nStderr: %s", err, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down within 5 seconds")
	}

	// The committed spend and audit record survive the restart.
	out, err := exec.Command(binaryPath, "budget", "show", "ENG", "--config", configFile, "--format", "csv").CombinedOutput()
	if err != nil {
		t.Fatalf("budget show failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(string(out), ",1296.00,") {
		t.Errorf("Expected ENG spend 1296.00, got:\n%s", out)
	}

	out, err = exec.Command(binaryPath, "audit", "verify", "--config", configFile).CombinedOutput()
	if err != nil {
		t.Fatalf("audit verify failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(string(out), "✓ 1 records verified") {
		t.Errorf("Expected one verified record, got:\n%s", out)
	}
}

func TestDecideExitCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dir := t.TempDir()
	configFile := writeConfig(t, dir, "127.0.0.1:18091")
	binaryPath := buildProcureBinary(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"recommended", []string{"decide", "--user", "u001", "laptop"}, 0},
		{"policy rejection", []string{"decide", "--user", "u002", "laptop"}, 3},
		{"unknown user", []string{"decide", "--user", "u999", "laptop"}, 1},
		{"bad format", []string{"decide", "--user", "u001", "--format", "xml", "laptop"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, append(tt.args, "--config", configFile)...)
			output, err := cmd.CombinedOutput()

			code := 0
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("failed to run procure: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d\nOutput: %s", tt.wantCode, code, output)
			}
		})
	}
}

func TestCommandVersionOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	output, err := exec.Command(buildProcureBinary(t), "version").CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !bytes.Contains(output, []byte("Procure")) {
		t.Errorf("expected 'Procure' in version output, got: %s", output)
	}
}
