package manifest

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleAudit = `Foremost version 1.5.7 by Jesse Kornblum, Kris Kendall, and Nick Mikus
Audit File

Foremost started at Fri Nov 29 16:24:35 2024
Invocation: foremost -i example.dd -o /root/output
Output directory: /root/output
Configuration file: /etc/foremost.conf
------------------------------------------------------------------
File: example.dd
Start: Fri Nov 29 16:24:35 2024
Length: 5 GB (5762727936 bytes)

Num	 Name (bs=512)	       Size	 File Offset	 Comment

0:	00000000.jpg 	       52 KB 	          0
1:	00000104.jpg 	       2 MB 	      53248
2:	00004200.png 	       714 B 	    2150400 	 (1280 x 720)
Finish: Fri Nov 29 16:25:57 2024

3 FILES EXTRACTED

jpg:= 2
png:= 1
------------------------------------------------------------------

Foremost finished at Fri Nov 29 16:25:57 2024
`

func TestParseSampleManifest(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleAudit))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(m.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(m.Records))
	}

	first := m.Records[0]
	if first.Seq != 0 || first.Name != "00000000.jpg" || first.Type != "jpg" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.RelPath != "jpg/00000000.jpg" {
		t.Fatalf("rel path = %q", first.RelPath)
	}
	if first.Size != 52*1024 || first.RawSize != "52 KB" {
		t.Fatalf("size = %d raw %q", first.Size, first.RawSize)
	}
	if first.Offset != 0 {
		t.Fatalf("offset = %d", first.Offset)
	}

	third := m.Records[2]
	if third.Offset != 2150400 || third.Size != 714 {
		t.Fatalf("unexpected third record: %+v", third)
	}
	if third.Comment != "(1280 x 720)" {
		t.Fatalf("comment = %q", third.Comment)
	}

	s := m.Summary
	if s.ImageName != "example.dd" {
		t.Fatalf("image name = %q", s.ImageName)
	}
	if s.ImageSizeBytes != 5762727936 {
		t.Fatalf("image size = %d", s.ImageSizeBytes)
	}
	if s.CarverVersion != "1.5.7" {
		t.Fatalf("carver version = %q", s.CarverVersion)
	}
	if s.OutputDir != "/root/output" {
		t.Fatalf("output dir = %q", s.OutputDir)
	}
	if s.ReportedFileTotal != 3 {
		t.Fatalf("file total = %d", s.ReportedFileTotal)
	}
	wantStart := time.Date(2024, time.November, 29, 16, 24, 35, 0, time.UTC)
	if !s.ScanStart.Equal(wantStart) {
		t.Fatalf("scan start = %v", s.ScanStart)
	}
	if !s.ScanEnd.After(s.ScanStart) {
		t.Fatalf("scan end %v not after start %v", s.ScanEnd, s.ScanStart)
	}
}

func TestParsePreservesOrderAndDuplicateSeq(t *testing.T) {
	audit := `Num	 Name (bs=512)	       Size	 File Offset	 Comment
5:	a.jpg 	       1 KB 	        900
5:	b.jpg 	       1 KB 	        100
2:	c.png 	       1 KB 	        500
Finish: Fri Nov 29 16:25:57 2024
`
	m, err := Parse(strings.NewReader(audit))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := make([]string, 0, len(m.Records))
	for _, rec := range m.Records {
		got = append(got, rec.Name)
	}
	want := []string{"a.jpg", "b.jpg", "c.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if m.Records[0].Seq != 5 || m.Records[1].Seq != 5 {
		t.Fatal("duplicate sequence numbers must be preserved")
	}
}

func TestParseRejectsUnparsableOffset(t *testing.T) {
	audit := `Num	 Name (bs=512)	       Size	 File Offset	 Comment
0:	a.jpg 	       1 KB 	        junk
Finish: Fri Nov 29 16:25:57 2024
`
	_, err := Parse(strings.NewReader(audit))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if formatErr.Line != 2 {
		t.Fatalf("line = %d, want 2", formatErr.Line)
	}
	if !strings.Contains(formatErr.Reason, "offset") {
		t.Fatalf("reason = %q", formatErr.Reason)
	}
}

func TestParseRejectsUnknownSizeUnit(t *testing.T) {
	audit := `Num	 Name (bs=512)	       Size	 File Offset	 Comment
0:	a.jpg 	       3 parsecs 	        0
Finish: Fri Nov 29 16:25:57 2024
`
	_, err := Parse(strings.NewReader(audit))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestParseRejectsMissingTypeToken(t *testing.T) {
	audit := `Num	 Name (bs=512)	       Size	 File Offset	 Comment
0:	noextension 	       1 KB 	        0
Finish: Fri Nov 29 16:25:57 2024
`
	_, err := Parse(strings.NewReader(audit))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !strings.Contains(formatErr.Reason, "file type") {
		t.Fatalf("reason = %q", formatErr.Reason)
	}
}

func TestParseRejectsShortRow(t *testing.T) {
	audit := `Num	 Name (bs=512)	       Size	 File Offset	 Comment
0:	a.jpg
Finish: Fri Nov 29 16:25:57 2024
`
	_, err := Parse(strings.NewReader(audit))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !strings.Contains(formatErr.Reason, "missing fields") {
		t.Fatalf("reason = %q", formatErr.Reason)
	}
}

func TestParseSkipsBannersInsideTable(t *testing.T) {
	audit := `Num	 Name (bs=512)	       Size	 File Offset	 Comment
0:	a.jpg 	       1 KB 	        0
------------------------------------------------------------------
1:	b.jpg 	       1 KB 	        1024
Finish: Fri Nov 29 16:25:57 2024
`
	m, err := Parse(strings.NewReader(audit))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(m.Records))
	}
}

func TestParseEmptyManifest(t *testing.T) {
	m, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Records) != 0 {
		t.Fatalf("records = %d, want 0", len(m.Records))
	}
}

func TestParseHumanSizeUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"714 B", 714},
		{"52 KB", 52 * 1024},
		{"2 MB", 2 * 1024 * 1024},
		{"1 GB", 1 << 30},
		{"100", 100},
	}
	for _, tc := range cases {
		got, err := parseHumanSize(tc.in)
		if err != nil {
			t.Fatalf("parseHumanSize(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseHumanSize(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
