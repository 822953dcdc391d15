package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeReport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FilesDir) == "" {
		c.Paths.FilesDir = defaultFilesDir
	}
	if c.Paths.FilesDir, err = expandPath(c.Paths.FilesDir); err != nil {
		return fmt.Errorf("paths.files_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	c.Extraction.ExifToolBinary = strings.TrimSpace(c.Extraction.ExifToolBinary)
	if c.Extraction.BatchSize <= 0 {
		c.Extraction.BatchSize = defaultBatchSize
	}
	if c.Extraction.Workers <= 0 {
		c.Extraction.Workers = defaultWorkers
	}
	if c.Extraction.ToolTimeout <= 0 {
		c.Extraction.ToolTimeout = defaultToolTimeout
	}
}

func (c *Config) normalizeReport() {
	c.Report.Format = strings.ToLower(strings.TrimSpace(c.Report.Format))
	if c.Report.Format == "" {
		c.Report.Format = defaultReportFormat
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
