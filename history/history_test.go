package history

import (
	"path/filepath"
	"testing"
)

func TestAppendAndRecent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "history.db"), "test-password", 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	r := Record{
		Kind:        KindEncode,
		InputPath:   "in.bin",
		OutputPath:  "out.mkv",
		ChunkCount:  4,
		PacketCount: 6,
		Timestamp:   1700000000,
	}
	if err := db.Append(r); err != nil {
		t.Fatalf("append: %v", err)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	recent, err := db.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].InputPath != "in.bin" {
		t.Fatalf("unexpected recent records: %+v", recent)
	}
}

func TestRecentFlagsTamperedRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	db, err := Open(path, "test-password", 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := db.Append(Record{Kind: KindEncode, InputPath: "a.bin", Timestamp: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := db.db.Exec(`update runs set output_path = ? where input_path = ?`, "tampered.mkv", "a.bin"); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	recent, err := db.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	db.Close()

	if len(recent) != 1 || !recent[0].Tampered {
		t.Fatalf("expected tampered row to be flagged, got %+v", recent)
	}
}

func TestAppendGeneratesIDWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "history.db"), "test-password", 1000)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Append(Record{Kind: KindDecode, Timestamp: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	recent, err := db.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID == "" {
		t.Fatalf("expected generated id, got %+v", recent)
	}
}
