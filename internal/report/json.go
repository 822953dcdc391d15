package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReportFileName is the report file written into the carver output
// directory.
const ReportFileName = "carvelens-report.json"

// WriteJSON serializes a report model as indented JSON.
func WriteJSON(w io.Writer, model *Model) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteJSONFile writes the report next to the carver output it describes and
// returns the file path.
func WriteJSONFile(dir string, model *Model) (string, error) {
	path := filepath.Join(dir, ReportFileName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if err := WriteJSON(file, model); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	return path, nil
}
