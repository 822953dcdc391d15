package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"carvelens/internal/manifest"
)

const sessionColumns = "id, status, image_name, image_size_bytes, output_dir, invocation, carver_version, scan_start, scan_end, reported_file_total, config_json, error_message, created_at, updated_at"

const fileColumns = "id, session_id, seq, name, file_type, rel_path, byte_offset, reported_size, measured_size, hash, hash_error, method, metadata_json, extract_error, copied_path, comment, created_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id            string
		statusStr     string
		imageName     sql.NullString
		imageSize     sql.NullInt64
		outputDir     sql.NullString
		invocation    sql.NullString
		carverVersion sql.NullString
		scanStartRaw  sql.NullString
		scanEndRaw    sql.NullString
		fileTotal     sql.NullInt64
		configJSON    sql.NullString
		errorMessage  sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&imageName,
		&imageSize,
		&outputDir,
		&invocation,
		&carverVersion,
		&scanStartRaw,
		&scanEndRaw,
		&fileTotal,
		&configJSON,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:     id,
		Status: Status(statusStr),
		Summary: manifest.Summary{
			ImageName:         imageName.String,
			ImageSizeBytes:    imageSize.Int64,
			OutputDir:         outputDir.String,
			Invocation:        invocation.String,
			CarverVersion:     carverVersion.String,
			ReportedFileTotal: int(fileTotal.Int64),
		},
		ErrorMessage: errorMessage.String,
	}

	if configJSON.Valid && configJSON.String != "" {
		if err := json.Unmarshal([]byte(configJSON.String), &session.Snapshot); err != nil {
			return nil, err
		}
	}
	if start, err := parseTimeString(scanStartRaw.String); err == nil {
		session.Summary.ScanStart = start
	}
	if end, err := parseTimeString(scanEndRaw.String); err == nil {
		session.Summary.ScanEnd = end
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	return session, nil
}

func scanFileRecord(scanner interface{ Scan(dest ...any) error }) (*FileRecord, error) {
	var (
		id           int64
		sessionID    string
		seq          int64
		name         string
		fileType     string
		relPath      string
		byteOffset   int64
		reportedSize int64
		measuredSize sql.NullInt64
		hash         sql.NullString
		hashError    sql.NullString
		method       string
		metadataJSON sql.NullString
		extractError sql.NullString
		copiedPath   sql.NullString
		comment      sql.NullString
		createdRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&seq,
		&name,
		&fileType,
		&relPath,
		&byteOffset,
		&reportedSize,
		&measuredSize,
		&hash,
		&hashError,
		&method,
		&metadataJSON,
		&extractError,
		&copiedPath,
		&comment,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	record := &FileRecord{
		ID:           id,
		SessionID:    sessionID,
		Seq:          int(seq),
		Name:         name,
		Type:         fileType,
		RelPath:      relPath,
		Offset:       byteOffset,
		ReportedSize: reportedSize,
		MeasuredSize: measuredSize.Int64,
		Hash:         hash.String,
		HashError:    hashError.String,
		Method:       method,
		MetadataJSON: metadataJSON.String,
		ExtractError: extractError.String,
		CopiedPath:   copiedPath.String,
		Comment:      comment.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
