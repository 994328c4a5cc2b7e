//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// composeArgs builds a docker compose invocation, honoring E2E_COMPOSE_FILE
// when the stack was started from a non-default file.
func composeArgs(sub ...string) []string {
	args := []string{"compose"}
	if f := getenv("E2E_COMPOSE_FILE", ""); f != "" {
		args = append(args, "-f", f)
	}
	return append(args, sub...)
}

// restartService bounces the compose service named by E2E_SERVICE and
// waits until it answers /readyz again.
func restartService(t *testing.T, ctx context.Context) {
	t.Helper()

	svc := getenv("E2E_SERVICE", "receipts")
	cmd := exec.CommandContext(ctx, "docker", composeArgs("restart", svc)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart %s: %v\n%s", svc, err, out)
	}

	waitReady(t, ctx, baseURL+"/readyz")
}
