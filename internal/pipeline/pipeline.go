// Package pipeline orchestrates one processing run over a carver output
// directory: manifest parse, metadata extraction, persistence, image
// collection, duplicate detection, and report generation.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"carvelens/internal/config"
	"carvelens/internal/dedup"
	"carvelens/internal/extraction"
	"carvelens/internal/images"
	"carvelens/internal/logging"
	"carvelens/internal/manifest"
	"carvelens/internal/report"
	"carvelens/internal/services"
	"carvelens/internal/store"
)

// lockFileName guards against concurrent runs sharing one session database.
const lockFileName = "carvelens.lock"

// commitChunkSize bounds how many file records go into one insert
// transaction.
const commitChunkSize = 200

// ErrAlreadyRunning reports that another run holds the pipeline lock.
var ErrAlreadyRunning = errors.New("another carvelens run is already active")

// Outcome summarizes a finished run.
type Outcome struct {
	SessionID         string
	ReportPath        string
	FileCount         int
	DuplicateGroups   int
	FailedExtractions int
	ImagesCopied      int
	Elapsed           time.Duration
}

// Runner executes the processing pipeline for carver output directories.
type Runner struct {
	cfg         *config.Config
	store       store.Port
	coordinator *extraction.Coordinator
	logger      *slog.Logger
}

// NewRunner wires a pipeline over a persistence port and extraction
// providers. The logger may be nil.
func NewRunner(cfg *config.Config, port store.Port, primary, fallback extraction.Provider, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	coordinator := extraction.NewCoordinator(
		primary,
		fallback,
		cfg.Extraction.BatchSize,
		cfg.Extraction.Workers,
		logger,
	)
	return &Runner{
		cfg:         cfg,
		store:       port,
		coordinator: coordinator,
		logger:      logger.With(slog.String(logging.FieldComponent, "pipeline")),
	}
}

// Run processes one carver output directory end to end and returns the run
// outcome. A manifest that fails to parse aborts before any session exists;
// failures after session creation mark the session failed and surface the
// cause.
func (r *Runner) Run(ctx context.Context, outputDir string) (*Outcome, error) {
	started := time.Now()

	lock := flock.New(filepath.Join(r.cfg.Paths.LogDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	defer func() { _ = lock.Unlock() }()

	man, err := manifest.ParseFile(outputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse", outputDir, err)
	}

	session, err := r.store.CreateSession(ctx, man.Summary, store.ConfigSnapshot{
		ReportFormat: r.cfg.Report.Format,
		CopyImages:   r.cfg.Images.Copy,
		KeepDatabase: r.cfg.Database.KeepAfterRun,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	ctx = services.WithSessionID(ctx, session.ID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("session started",
		slog.String("image", man.Summary.ImageName),
		slog.Int("manifest_records", len(man.Records)))

	outcome, err := r.process(ctx, logger, outputDir, session, man)
	if err != nil {
		r.failSession(ctx, logger, session.ID, err)
		return nil, err
	}

	outcome.Elapsed = time.Since(started)
	logger.Info("session completed",
		slog.Int("files", outcome.FileCount),
		slog.Int("duplicate_groups", outcome.DuplicateGroups),
		slog.Int("failed_extractions", outcome.FailedExtractions),
		slog.Duration("elapsed", outcome.Elapsed))
	return outcome, nil
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, outputDir string, session *store.Session, man *manifest.Manifest) (*Outcome, error) {
	results, err := r.coordinator.Run(services.WithStage(ctx, "extraction"), outputDir, man.Records)
	if err != nil {
		return nil, err
	}

	records, err := r.commitRecords(ctx, session.ID, results)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{SessionID: session.ID, FileCount: len(records)}
	for _, result := range results {
		if result.Method == extraction.MethodFailed {
			outcome.FailedExtractions++
		}
	}

	if r.cfg.Images.Copy {
		outcome.ImagesCopied = r.collectImages(ctx, logger, outputDir, man.Summary.ImageName, records)
	}

	groups := dedup.Detect(records)
	for _, group := range groups {
		if _, err := r.store.AddDuplicateGroup(ctx, session.ID, group.Hash, group.FileIDs()); err != nil {
			return nil, fmt.Errorf("persist duplicate group: %w", err)
		}
	}
	outcome.DuplicateGroups = len(groups)

	if err := r.store.MarkSessionCompleted(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	model, err := report.NewAssembler(r.store).Assemble(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}
	reportPath, err := report.WriteJSONFile(outputDir, model)
	if err != nil {
		return nil, err
	}
	outcome.ReportPath = reportPath

	if !r.cfg.Database.KeepAfterRun {
		if err := r.store.DropSession(ctx, session.ID); err != nil {
			logger.Warn("drop session after run", slog.Any("error", err))
		}
	}
	return outcome, nil
}

// commitRecords persists extraction results in bounded transactions. A
// failure reports how many records had already committed; duplicate
// detection never ran for a partially committed session.
func (r *Runner) commitRecords(ctx context.Context, sessionID string, results []extraction.Result) ([]*store.FileRecord, error) {
	records := make([]*store.FileRecord, len(results))
	for i, result := range results {
		record, err := toFileRecord(sessionID, result)
		if err != nil {
			return nil, err
		}
		records[i] = record
	}

	committed := 0
	for start := 0; start < len(records); start += commitChunkSize {
		end := min(start+commitChunkSize, len(records))
		if err := r.store.AddFileRecords(ctx, records[start:end]); err != nil {
			return nil, fmt.Errorf("persist file records (%d of %d committed): %w", committed, len(records), err)
		}
		committed = end
	}
	return records, nil
}

func (r *Runner) collectImages(ctx context.Context, logger *slog.Logger, outputDir, imageName string, records []*store.FileRecord) int {
	copier := images.NewCopier(r.cfg.Paths.FilesDir, imageName, r.logger)
	copied := 0
	for _, record := range records {
		dest, err := copier.Copy(outputDir, record)
		if err != nil {
			logger.Warn("image copy failed",
				slog.String("name", record.Name),
				slog.Any("error", err))
			continue
		}
		if dest == "" {
			continue
		}
		if err := r.store.SetCopiedPath(ctx, record.ID, dest); err != nil {
			logger.Warn("record copied path", slog.Any("error", err))
			continue
		}
		record.CopiedPath = dest
		copied++
	}
	return copied
}

func (r *Runner) failSession(ctx context.Context, logger *slog.Logger, sessionID string, cause error) {
	logger.Error("session failed", slog.Any("error", cause))
	if err := r.store.MarkSessionFailed(context.WithoutCancel(ctx), sessionID, cause.Error()); err != nil {
		logger.Error("mark session failed", slog.Any("error", err))
	}
}

func toFileRecord(sessionID string, result extraction.Result) (*store.FileRecord, error) {
	record := &store.FileRecord{
		SessionID:    sessionID,
		Seq:          result.Record.Seq,
		Name:         result.Record.Name,
		Type:         result.Record.Type,
		RelPath:      result.Record.RelPath,
		Offset:       result.Record.Offset,
		ReportedSize: result.Record.Size,
		Comment:      result.Record.Comment,
		MeasuredSize: result.Size,
		Hash:         result.Hash,
		HashError:    result.HashErr,
		Method:       string(result.Method),
		ExtractError: result.ExtractErr,
	}
	if len(result.Payload) > 0 {
		payload, err := json.Marshal(result.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata for seq %d: %w", result.Record.Seq, err)
		}
		record.MetadataJSON = string(payload)
	}
	return record, nil
}
