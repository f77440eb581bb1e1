package logging

import (
	"os"
	"testing"
)

// unsetEnv removes key for the duration of the test.
// t.Setenv must be called first so the original value is restored.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetenv %s: %v", key, err)
	}
}
