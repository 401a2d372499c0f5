package commands

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/litejet-protocol/litejet-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.ljlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestExportJSONL(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-1", Direction: log.DirectionOut, Category: log.CategoryLine, Line: "^A005"},
		{Timestamp: ts, ConnectionID: "conn-1", Direction: log.DirectionIn, Category: log.CategoryLine, Line: "^K00599"},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "conn-1") {
		t.Errorf("expected connection ID in output, got: %s", lines[0])
	}
	if !strings.Contains(lines[0], "^A005") {
		t.Errorf("expected wire line in output, got: %s", lines[0])
	}
}

func TestExportCSV(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-1", Direction: log.DirectionOut, Category: log.CategoryLine, Line: "^A005"},
		{Timestamp: ts, ConnectionID: "conn-1", Category: log.CategoryState, URL: "socket://127.0.0.1:2025",
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityConnection, NewState: "UP"}},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "timestamp" || records[0][5] != "line" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][5] != "^A005" || records[1][2] != "OUT" {
		t.Errorf("unexpected line row: %v", records[1])
	}
	if records[2][2] != "" {
		t.Errorf("expected blank direction for state row, got: %v", records[2])
	}
	if !strings.Contains(records[2][6], "CONNECTION ->UP") {
		t.Errorf("expected state detail, got: %v", records[2])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, []log.Event{
		{Timestamp: time.Now(), ConnectionID: "conn-1", Category: log.CategoryLine, Line: "^G"},
	})

	err := RunExport(path, "xml", "")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("unexpected error: %v", err)
	}
}
