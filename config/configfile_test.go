package config

import (
	"strings"
	"testing"
)

func TestParseFileValid(t *testing.T) {
	fc, err := ParseFile(strings.NewReader("n_bits 16\nk 4\nalpha 2\nn_nodes 10\n"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if fc.B != 16 || fc.K != 4 || fc.Alpha != 2 || fc.NNodes != 10 {
		t.Fatalf("unexpected config: %+v", fc)
	}
}

func TestParseFileIgnoresBlankLines(t *testing.T) {
	fc, err := ParseFile(strings.NewReader("n_bits 8\n\nk 2\nalpha 1\n\nn_nodes 4\n"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if fc.B != 8 || fc.NNodes != 4 {
		t.Fatalf("unexpected config: %+v", fc)
	}
}

func TestParseFileRejectsMalformedLine(t *testing.T) {
	_, err := ParseFile(strings.NewReader("n_bits sixteen\n"))
	if err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestParseFileRejectsUnknownKey(t *testing.T) {
	_, err := ParseFile(strings.NewReader("n_bits 16\nk 4\nalpha 2\nn_nodes 10\nmystery 1\n"))
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestParseFileRejectsMissingField(t *testing.T) {
	_, err := ParseFile(strings.NewReader("n_bits 16\nk 4\n"))
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
}

func TestParseFileRejectsInvalidConfig(t *testing.T) {
	_, err := ParseFile(strings.NewReader("n_bits 0\nk 4\nalpha 2\nn_nodes 10\n"))
	if err == nil {
		t.Fatalf("expected validation error to propagate")
	}
}
