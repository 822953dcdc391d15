// Package testsupport provides builders for configs, stores, and fabricated
// carver output trees used across test suites.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"carvelens/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.FilesDir = filepath.Join(base, "files")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Database.Path = filepath.Join(base, "db", "carvelens.db")
	cfgVal.Extraction.Workers = 2
	cfgVal.Extraction.BatchSize = 4
	cfgVal.Extraction.ToolTimeout = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCopyImages toggles image collection on the test config.
func WithCopyImages(copy bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Images.Copy = copy
	}
}

// WithKeepDatabase toggles session retention on the test config.
func WithKeepDatabase(keep bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Database.KeepAfterRun = keep
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, exiftool is stubbed. The stubs
// exit nonzero without output, so batch extraction fails wholesale.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"exiftool"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 1\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
