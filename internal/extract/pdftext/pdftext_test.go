package pdftext

import (
	"bytes"
	"errors"
	"testing"
)

func TestExtract_Empty(t *testing.T) {
	e := New(10 << 20)
	if _, err := e.Extract(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Extract(nil) error = %v, want ErrEmpty", err)
	}
	if _, err := e.Extract([]byte{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("Extract(empty) error = %v, want ErrEmpty", err)
	}
}

func TestExtract_TooLarge(t *testing.T) {
	e := New(16)
	data := bytes.Repeat([]byte("x"), 17)
	if _, err := e.Extract(data); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Extract(oversized) error = %v, want ErrTooLarge", err)
	}
}

func TestExtract_NotPDF(t *testing.T) {
	e := New(10 << 20)
	if _, err := e.Extract([]byte("this is definitely not a pdf document")); !errors.Is(err, ErrNotPDF) {
		t.Errorf("Extract(garbage) error = %v, want ErrNotPDF", err)
	}
}

func TestExtract_SizeCheckRunsBeforeParsing(t *testing.T) {
	// An oversized buffer that also is not a PDF must fail on size, proving
	// the ceiling is enforced before the parser sees any bytes.
	e := New(8)
	if _, err := e.Extract([]byte("not a pdf and too long")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses runs", "NHS   Number:\t\t485  777", "NHS Number: 485 777"},
		{"trims", "  Haemoglobin 14.2  ", "Haemoglobin 14.2"},
		{"decodes percent escapes", "Creatinine%20%28serum%29 88", "Creatinine (serum) 88"},
		{"keeps undecodable tokens", "100%done", "100%done"},
		{"empty", "   \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePage(tt.in); got != tt.want {
				t.Errorf("normalizePage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeGlyphs(t *testing.T) {
	if got := decodeGlyphs("%C2%B5mol%2FL"); got != "µmol/L" {
		t.Errorf("decodeGlyphs(µmol escape) = %q", got)
	}
	if got := decodeGlyphs("plain"); got != "plain" {
		t.Errorf("decodeGlyphs(plain) = %q", got)
	}
}
