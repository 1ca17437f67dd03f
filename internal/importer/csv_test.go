package importer

import (
	"errors"
	"testing"
)

// ============================================================================
// Parse Tests
// ============================================================================

func TestParse_Basic(t *testing.T) {
	data := []byte("First Name,Last Name\nJane,Doe\nBob,Hall\n")

	file, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(file.Headers) != 2 || file.Headers[0] != "First Name" || file.Headers[1] != "Last Name" {
		t.Errorf("Headers = %v, want [First Name, Last Name]", file.Headers)
	}
	if len(file.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(file.Rows))
	}
	if file.Rows[0]["First Name"] != "Jane" || file.Rows[1]["Last Name"] != "Hall" {
		t.Errorf("rows = %v", file.Rows)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	for _, data := range [][]byte{nil, []byte(""), []byte("\n\n")} {
		if _, err := Parse(data); !errors.Is(err, ErrEmptyFile) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyFile", data, err)
		}
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	_, err := Parse([]byte("First Name,Last Name\n"))
	if !errors.Is(err, ErrNoDataRows) {
		t.Errorf("Parse() error = %v, want ErrNoDataRows", err)
	}
}

func TestParse_SkipsBlankRows(t *testing.T) {
	data := []byte("First Name,Last Name\nJane,Doe\n,\n  ,  \nBob,Hall\n")

	file, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(file.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2 (blank rows skipped)", len(file.Rows))
	}
}

func TestParse_StripsBOM(t *testing.T) {
	data := []byte("\xef\xbb\xbfFirst Name,Last Name\nJane,Doe\n")

	file, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if file.Headers[0] != "First Name" {
		t.Errorf("Headers[0] = %q, want %q", file.Headers[0], "First Name")
	}
}

func TestParse_RaggedRows(t *testing.T) {
	// Short rows leave trailing fields absent rather than failing the parse.
	data := []byte("First Name,Last Name,Email\nJane,Doe\n")

	file, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := file.Rows[0]["Email"]; ok {
		t.Errorf("short row should not carry the Email key, got %v", file.Rows[0])
	}
}

// ============================================================================
// Cell Cleanup Tests
// ============================================================================

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"  padded  ", "padded"},
		{`="excel formula"`, "excel formula"},
		{"=SUM(A1)", "SUM(A1)"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsEmptyRow(t *testing.T) {
	tests := []struct {
		row  []string
		want bool
	}{
		{[]string{}, true},
		{[]string{"", ""}, true},
		{[]string{"  ", "\t"}, true},
		{[]string{"", "x"}, false},
	}

	for _, tt := range tests {
		if got := isEmptyRow(tt.row); got != tt.want {
			t.Errorf("isEmptyRow(%v) = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestSanitizeUTF8(t *testing.T) {
	valid := []byte("héllo")
	if got := sanitizeUTF8(valid); string(got) != "héllo" {
		t.Errorf("sanitizeUTF8(valid) = %q, want unchanged", got)
	}

	// Lone 0xFF is invalid UTF-8 and becomes the replacement character
	invalid := []byte{'a', 0xFF, 'b'}
	got := string(sanitizeUTF8(invalid))
	if got != "a�b" {
		t.Errorf("sanitizeUTF8(invalid) = %q, want %q", got, "a�b")
	}
}
