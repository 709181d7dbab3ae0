package core

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// Decode Tests
// ============================================================================

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		want     string
		wantName string
	}{
		{
			name:     "plain utf-8",
			input:    []byte("PlotKey\nP1\n"),
			want:     "PlotKey\nP1\n",
			wantName: EncodingUTF8,
		},
		{
			name:     "utf-8 BOM stripped",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, "PlotKey\n"...),
			want:     "PlotKey\n",
			wantName: EncodingUTF8,
		},
		{
			name:     "windows-1252 accent",
			input:    []byte("Observer\nJos\xe9\n"),
			want:     "Observer\nJosé\n",
			wantName: EncodingWindows1252,
		},
		{
			name:     "utf-16 little endian with BOM",
			input:    []byte{0xFF, 0xFE, 'A', 0, ',', 0, 'B', 0},
			want:     "A,B",
			wantName: EncodingUTF16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, name, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
			if name != tt.wantName {
				t.Errorf("Decode() encoding = %q, want %q", name, tt.wantName)
			}
		})
	}
}

// ============================================================================
// Parse Tests
// ============================================================================

func TestParse_TypesAndNulls(t *testing.T) {
	tbl, warnings, err := Parse([]byte(
		"PlotKey,Count,Cover,Notes,FormDate\n" +
			"1408281313363477,3,2.5,NA,01/02/23 00:00:00\n" +
			"1408281313363478,N/A,null,ok,\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Parse() warnings = %v, want none", warnings)
	}

	wantTypes := []ColumnType{TypeInt, TypeInt, TypeFloat, TypeText, TypeText}
	for i, want := range wantTypes {
		if got := tbl.Columns[i].Type; got != want {
			t.Errorf("column %s type = %v, want %v", tbl.Columns[i].Name, got, want)
		}
	}

	if diff := cmp.Diff([]string{"3", "<nil>"}, columnStrings(tbl, "Count")); diff != "" {
		t.Errorf("Count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"<nil>", "ok"}, columnStrings(tbl, "Notes")); diff != "" {
		t.Errorf("Notes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"01/02/23 00:00:00", "<nil>"}, columnStrings(tbl, "FormDate")); diff != "" {
		t.Errorf("FormDate mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RaggedRows(t *testing.T) {
	tbl, warnings, err := Parse([]byte("A,B,C\n1,2\n4,5,6,7\n\n8,9,10\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.Len())
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %d, want 2: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0].Message, "padded") || warnings[0].Line != 2 {
		t.Errorf("warnings[0] = %+v, want padded on line 2", warnings[0])
	}
	if !strings.Contains(warnings[1].Message, "truncated") {
		t.Errorf("warnings[1] = %+v, want truncated", warnings[1])
	}
	if diff := cmp.Diff([]string{"<nil>", "6", "10"}, columnStrings(tbl, "C")); diff != "" {
		t.Errorf("C mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Headers(t *testing.T) {
	tbl := mustParse(t, "\n Key ,Key,,\"Date\"\n1,2,3,4\n")

	want := []string{"Key", "Key_duplicated_1", "column_3", "Date"}
	if diff := cmp.Diff(want, tbl.ColumnNames()); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", " , \n"} {
		_, _, err := Parse([]byte(input))
		if !errors.Is(err, ErrLoad) {
			t.Errorf("Parse(%q) error = %v, want ErrLoad", input, err)
		}
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	tbl := mustParse(t, "PlotKey,FormDate\n")
	if tbl.Len() != 0 {
		t.Errorf("rows = %d, want 0", tbl.Len())
	}
	if len(tbl.Columns) != 2 {
		t.Errorf("columns = %d, want 2", len(tbl.Columns))
	}
}

func TestLoadFile(t *testing.T) {
	fsys := fstest.MapFS{
		"ok.csv":  {Data: []byte("A\n1\n")},
		"big.csv": {Data: []byte("A\n1234567890\n")},
	}

	tbl, _, err := LoadFile(fsys, "ok.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile(ok) error = %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("LoadFile(ok) rows = %d, want 1", tbl.Len())
	}

	_, _, err = LoadFile(fsys, "big.csv", LoadOptions{MaxBytes: 5})
	if !errors.Is(err, ErrLoad) || !strings.Contains(err.Error(), "file too large") {
		t.Errorf("LoadFile(big) error = %v, want file too large", err)
	}

	_, _, err = LoadFile(fsys, "missing.csv", LoadOptions{})
	if !errors.Is(err, ErrLoad) {
		t.Errorf("LoadFile(missing) error = %v, want ErrLoad", err)
	}
	if Code(err) != "LOAD001" {
		t.Errorf("Code() = %q, want LOAD001", Code(err))
	}
}
