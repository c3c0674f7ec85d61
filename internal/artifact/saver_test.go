package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

func TestSave_WritesFile(t *testing.T) {
	dir := t.TempDir()
	saver := NewSaver(dir, nil)

	path, err := saver.Save("shipments-2026-08-31.csv", "text/csv", []byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := filepath.Join(dir, "shipments-2026-08-31.csv"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	saver := NewSaver(dir, nil)

	if _, err := saver.Save("f.csv", "text/csv", []byte("x")); err != nil {
		t.Fatalf("Save into missing directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "f.csv")); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestSave_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	saver := NewSaver(dir, nil)

	if _, err := saver.Save("f.csv", "text/csv", []byte("old content that is longer")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	path, err := saver.Save("f.csv", "text/csv", []byte("new"))
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content after overwrite = %q, want %q", data, "new")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.csv", "report.csv"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"absolute path", "/etc/passwd", "passwd"},
		{"windows separators", `a\b\report.csv`, "a_b_report.csv"},
		{"reserved characters", `a:b*c?d"e<f>g|h.csv`, "a_b_c_d_e_f_g_h.csv"},
		{"control characters", "bad\x00name\x1f.csv", "bad_name_.csv"},
		{"empty", "", "export.dat"},
		{"whitespace only", "   ", "export.dat"},
		{"dot", ".", "export.dat"},
		{"dot dot", "..", "export.dat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarshalCSV(t *testing.T) {
	rows := []domain.Record{
		{"id": float64(101), "carrier": "FastFreight", "weight_kg": 12.5},
		{"id": float64(102), "carrier": "OceanLine", "notes": "fragile"},
	}

	data, err := MarshalCSV(rows)
	if err != nil {
		t.Fatalf("MarshalCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), data)
	}
	// Columns are the sorted union of keys across all rows
	if lines[0] != "carrier,id,notes,weight_kg" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "FastFreight,101,,12.5" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "OceanLine,102,fragile," {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestMarshalCSV_Empty(t *testing.T) {
	data, err := MarshalCSV(nil)
	if err != nil {
		t.Fatalf("MarshalCSV: %v", err)
	}
	if string(data) != "\n" {
		t.Errorf("empty rows produced %q", data)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"whole float", float64(42), "42"},
		{"negative whole float", float64(-7), "-7"},
		{"fractional float", 3.25, "3.25"},
		{"bool", true, "true"},
		{"int", 9, "9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellString(tt.in); got != tt.want {
				t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSaveCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	saver := NewSaver(dir, nil)

	path, err := saver.SaveCSV("returns.csv", []domain.Record{{"rma": "RMA-1"}})
	if err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "rma\nRMA-1\n"
	if string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{int64(3) * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
