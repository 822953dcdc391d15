package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AuditFileName is the manifest file name the carving tool writes into its
// output directory.
const AuditFileName = "audit.txt"

// CarveRecord is one row of the carver's audit table describing a single
// recovered file.
type CarveRecord struct {
	// Seq is the carver-assigned sequence number, the order of appearance
	// in the manifest and the stable sort key for presentation.
	Seq int
	// Name is the carved file name as written by the carver.
	Name string
	// Type is the file type token inferred from the carved file name.
	Type string
	// RelPath is the path of the carved file relative to the carver output
	// directory. Carvers lay files out in one subdirectory per type.
	RelPath string
	// Offset is the byte offset in the source image as reported by the carver.
	Offset int64
	// Size is the carver-reported size parsed to bytes. The humanized token
	// the carver printed is retained in RawSize.
	Size    int64
	RawSize string
	// Comment is the carver's free-form note for this file, often empty.
	Comment string
}

// Summary holds the run-level metadata the carver records around the table.
type Summary struct {
	ImageName         string
	ImageSizeBytes    int64
	OutputDir         string
	Invocation        string
	CarverVersion     string
	ScanStart         time.Time
	ScanEnd           time.Time
	ReportedFileTotal int
}

// Manifest is the parsed form of an audit file.
type Manifest struct {
	Summary Summary
	Records []CarveRecord
}

// FormatError reports a malformed manifest line. It is fatal for the whole
// run: extraction never starts on a manifest that fails to parse.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("manifest line %d: %s", e.Line, e.Reason)
}

// Header patterns, matching the carving tool's own audit output.
var (
	imageNameRe     = regexp.MustCompile(`File:\s+(.+)`)
	imageSizeRe     = regexp.MustCompile(`Length:\s+\d+\s*\w+\s*\((\d+)\s*bytes\)`)
	outputDirRe     = regexp.MustCompile(`Output directory:\s+(.+)`)
	invocationRe    = regexp.MustCompile(`Invocation:\s+(.+)`)
	carverVersionRe = regexp.MustCompile(`Foremost version\s+([\d.]+)\s+by`)
	scanStartRe     = regexp.MustCompile(`Start:\s+(.+)`)
	scanEndRe       = regexp.MustCompile(`Finish:\s+(.+)`)
	fileTotalRe     = regexp.MustCompile(`(\d+)\s+FILES EXTRACTED`)

	columnSplitRe = regexp.MustCompile(`\s{2,}|\t+`)
	rowStartRe    = regexp.MustCompile(`^\d+:`)
)

var scanTimeLayouts = []string{
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan 2 15:04:05 2006",
}

// ParseFile parses the audit manifest inside a carver output directory.
func ParseFile(dir string) (*Manifest, error) {
	file, err := os.Open(path.Join(dir, AuditFileName))
	if err != nil {
		return nil, fmt.Errorf("open audit manifest: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads manifest text and produces the ordered carve records plus the
// run summary. It is a pure function of its input: records are emitted in
// manifest order, duplicate sequence numbers and out-of-order offsets are
// preserved as-is, blank lines and banner lines are skipped.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	inTable := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Table boundaries. The header banner starts the table, the
		// Finish line ends it (and doubles as a summary field).
		if strings.HasPrefix(line, "Num") && strings.Contains(line, "Comment") {
			inTable = true
			continue
		}
		if strings.HasPrefix(line, "Finish:") {
			inTable = false
		}

		if inTable {
			record, ok, err := parseRow(line, lineNo)
			if err != nil {
				return nil, err
			}
			if ok {
				m.Records = append(m.Records, record)
			}
			continue
		}

		parseSummaryLine(line, &m.Summary)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return m, nil
}

func parseSummaryLine(line string, s *Summary) {
	if match := imageSizeRe.FindStringSubmatch(line); match != nil {
		if bytes, err := strconv.ParseInt(match[1], 10, 64); err == nil {
			s.ImageSizeBytes = bytes
		}
		return
	}
	if match := outputDirRe.FindStringSubmatch(line); match != nil {
		s.OutputDir = strings.TrimSpace(match[1])
		return
	}
	if match := invocationRe.FindStringSubmatch(line); match != nil {
		s.Invocation = strings.TrimSpace(match[1])
		return
	}
	if match := carverVersionRe.FindStringSubmatch(line); match != nil {
		s.CarverVersion = match[1]
		return
	}
	if match := scanStartRe.FindStringSubmatch(line); match != nil {
		if ts, err := parseScanTime(match[1]); err == nil {
			s.ScanStart = ts
		}
		return
	}
	if match := scanEndRe.FindStringSubmatch(line); match != nil {
		if ts, err := parseScanTime(match[1]); err == nil {
			s.ScanEnd = ts
		}
		return
	}
	if match := fileTotalRe.FindStringSubmatch(line); match != nil {
		if total, err := strconv.Atoi(match[1]); err == nil {
			s.ReportedFileTotal = total
		}
		return
	}
	// Image name last: its pattern is a prefix of other "File ..." lines.
	if match := imageNameRe.FindStringSubmatch(line); match != nil {
		s.ImageName = strings.TrimSpace(match[1])
	}
}

// parseRow parses one audit table line. Lines inside the table that do not
// begin with a sequence marker (continuation banners, per-type footers) map
// to no record.
func parseRow(line string, lineNo int) (CarveRecord, bool, error) {
	columns := columnSplitRe.Split(line, -1)
	if len(columns) == 0 || !rowStartRe.MatchString(strings.TrimSpace(columns[0])) {
		return CarveRecord{}, false, nil
	}

	if len(columns) < 4 {
		return CarveRecord{}, false, &FormatError{Line: lineNo, Reason: "audit row is missing fields"}
	}

	seqToken := strings.TrimSuffix(strings.TrimSpace(columns[0]), ":")
	seq, err := strconv.Atoi(seqToken)
	if err != nil {
		return CarveRecord{}, false, &FormatError{Line: lineNo, Reason: fmt.Sprintf("unparsable sequence number %q", seqToken)}
	}

	name := strings.TrimSpace(columns[1])
	if name == "" {
		return CarveRecord{}, false, &FormatError{Line: lineNo, Reason: "audit row has empty file name"}
	}

	rawSize := strings.TrimSpace(columns[2])
	size, err := parseHumanSize(rawSize)
	if err != nil {
		return CarveRecord{}, false, &FormatError{Line: lineNo, Reason: fmt.Sprintf("unparsable size %q", rawSize)}
	}

	offsetToken := strings.TrimSpace(columns[3])
	offset, err := strconv.ParseInt(offsetToken, 10, 64)
	if err != nil || offset < 0 {
		return CarveRecord{}, false, &FormatError{Line: lineNo, Reason: fmt.Sprintf("unparsable offset %q", offsetToken)}
	}

	fileType := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if fileType == "" {
		return CarveRecord{}, false, &FormatError{Line: lineNo, Reason: fmt.Sprintf("unknown file type token in %q", name)}
	}

	record := CarveRecord{
		Seq:     seq,
		Name:    name,
		Type:    fileType,
		RelPath: path.Join(fileType, name),
		Offset:  offset,
		Size:    size,
		RawSize: rawSize,
	}
	if len(columns) > 4 {
		record.Comment = strings.TrimSpace(columns[4])
	}
	return record, true, nil
}

var sizeUnits = map[string]int64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// parseHumanSize converts the carver's humanized size token ("52 KB",
// "714 B") back into bytes.
func parseHumanSize(value string) (int64, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("malformed size %q", value)
	}

	unit := "B"
	if len(fields) == 2 {
		unit = strings.ToUpper(fields[1])
	}
	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unknown size unit %q", unit)
	}

	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || amount < 0 {
		return 0, fmt.Errorf("malformed size %q", value)
	}
	return int64(amount * float64(multiplier)), nil
}

func parseScanTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	var lastErr error
	for _, layout := range scanTimeLayouts {
		ts, err := time.Parse(layout, trimmed)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
