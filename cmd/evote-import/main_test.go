package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/abrezinsky/evote/internal/legacy"
)

func TestPrintReport(t *testing.T) {
	report := &legacy.Report{
		Collections: []legacy.Counts{
			{Collection: "users", Read: 3, Imported: 2, Skipped: 1},
			{Collection: "votes", Read: 2, Imported: 1, Failed: 1},
		},
		Errors: []legacy.DocumentError{
			{Collection: "votes", Document: "65f0a1b2c3d4e5f600000032", Err: errors.New("voter age 16 is below 18"), Message: "voter age 16 is below 18"},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "COLLECTION") {
		t.Errorf("expected header first, got %q", lines[0])
	}
	if fields := strings.Fields(lines[3]); strings.Join(fields, " ") != "total 5 3 1 1" {
		t.Errorf("unexpected totals line %q", lines[3])
	}
	if !strings.Contains(lines[4], "below 18") {
		t.Errorf("expected the failed document to be listed, got %q", lines[4])
	}
}

func TestPrintReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
