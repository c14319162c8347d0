package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		filename string
		want     InputKind
	}{
		{"resume.pdf", KindDocument},
		{"Resume.DOCX", KindDocument},
		{"job.txt", KindText},
		{"notes.md", KindText},
		{"resume.doc", KindUnknown},
		{"README", KindUnknown},
	}
	for _, tt := range tests {
		if got := DetectKind(tt.filename); got != tt.want {
			t.Errorf("DetectKind(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "job.txt")
	if err := os.WriteFile(full, []byte("Go"), 0600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, nil, 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"regular file", full, false},
		{"empty name", "", true},
		{"missing", filepath.Join(dir, "missing.txt"), true},
		{"directory", dir, true},
		{"empty file", empty, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInputFile(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "dir", "out.json")
	if err := ValidateOutputFile(out); err != nil {
		t.Fatalf("ValidateOutputFile failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(out)); err != nil {
		t.Errorf("directory was not created: %v", err)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{10 << 20, "10.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
