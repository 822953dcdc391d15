package config

const (
	defaultOutputDir    = "~/.local/share/carvelens/output"
	defaultFilesDir     = "~/.local/share/carvelens/files"
	defaultLogDir       = "~/.local/share/carvelens/logs"
	defaultDatabasePath = "~/.local/share/carvelens/carvelens.db"
	defaultBatchSize    = 500
	defaultWorkers      = 4
	defaultToolTimeout  = 120
	defaultReportFormat = "json"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			FilesDir:  defaultFilesDir,
			LogDir:    defaultLogDir,
		},
		Extraction: Extraction{
			BatchSize:   defaultBatchSize,
			Workers:     defaultWorkers,
			ToolTimeout: defaultToolTimeout,
		},
		Report: Report{
			Format: defaultReportFormat,
		},
		Database: Database{
			Path:         defaultDatabasePath,
			KeepAfterRun: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
