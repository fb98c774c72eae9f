package telemetry

import (
	"os"
	"sync"
)

// DefaultDir is where events.jsonl lands when no directory is configured.
const DefaultDir = ".agent"

var (
	mu          sync.RWMutex
	enabled     bool
	artifactDir string
)

// Configure sets startup values from config. The AGT_OBSERVE_JSON and
// AGT_ARTIFACTS_DIR environment variables still win when set.
func Configure(observe bool, dir string) {
	mu.Lock()
	defer mu.Unlock()
	enabled = observe
	artifactDir = dir
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	if v, ok := os.LookupEnv("AGT_OBSERVE_JSON"); ok && v != "" {
		return v == "1"
	}
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Dir returns the directory holding events.jsonl.
func Dir() string {
	if v := os.Getenv("AGT_ARTIFACTS_DIR"); v != "" {
		return v
	}
	mu.RLock()
	defer mu.RUnlock()
	if artifactDir != "" {
		return artifactDir
	}
	return DefaultDir
}
