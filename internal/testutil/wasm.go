package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

var (
	guestOnce sync.Once
	guestWasm []byte
	guestErr  error
	guestOut  string
)

// GuestWasm builds cmd/guest as a wasip1 reactor once per test binary and
// returns the module bytes. It skips the test in -short mode or when no Go
// toolchain is on PATH.
func GuestWasm(t testing.TB) []byte {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping wasm build in short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not found")
	}

	guestOnce.Do(func() {
		guestWasm, guestOut, guestErr = buildGuest(goBin)
	})
	if guestErr != nil {
		t.Fatalf("building guest: %v\n%s", guestErr, guestOut)
	}
	return guestWasm
}

func buildGuest(goBin string) ([]byte, string, error) {
	dir, err := os.MkdirTemp("", "handoff-guest")
	if err != nil {
		return nil, "", err
	}
	defer os.RemoveAll(dir) //nolint:errcheck // best effort cleanup
	out := filepath.Join(dir, "handoff.wasm")

	cmd := exec.Command(goBin, "build", "-buildmode=c-shared", "-o", out, "./cmd/guest") //nolint:gosec // G204: fixed arguments
	cmd.Dir = moduleRoot()
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, string(output), err
	}

	wasm, err := os.ReadFile(out) //nolint:gosec // G304: path built above
	return wasm, string(output), err
}

// moduleRoot is two directories above this file.
func moduleRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}
