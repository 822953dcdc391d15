package config

import (
	"errors"
	"fmt"

	"carvelens/internal/services"
)

// Validate ensures the configuration is usable. Failures carry the
// configuration error marker so callers can classify them.
func (c *Config) Validate() error {
	for _, check := range []func() error{c.validatePaths, c.validateExtraction, c.validateReport} {
		if err := check(); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "validate", err.Error(), nil)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Images.Copy && c.Paths.FilesDir == "" {
		return errors.New("paths.files_dir must be set when images.copy is true")
	}
	if c.Database.Path == "" {
		return errors.New("database.path must be set")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	return ensurePositiveMap(map[string]int{
		"extraction.batch_size":   c.Extraction.BatchSize,
		"extraction.workers":      c.Extraction.Workers,
		"extraction.tool_timeout": c.Extraction.ToolTimeout,
	})
}

func (c *Config) validateReport() error {
	switch c.Report.Format {
	case "json":
		return nil
	default:
		return fmt.Errorf("report.format: unsupported value %q (only \"json\" is implemented)", c.Report.Format)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
