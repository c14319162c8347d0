package common

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDocx(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateAndReadFiles(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "job.txt")
	if err := os.WriteFile(textFile, []byte("Senior Go engineer"), 0600); err != nil {
		t.Fatal(err)
	}
	docxFile := filepath.Join(dir, "resume.docx")
	writeDocx(t, docxFile, "Python and Kubernetes")

	tests := []struct {
		name        string
		files       []string
		maxFileSize int64
		want        []string
		expectError string
	}{
		{
			name:  "text and document",
			files: []string{docxFile, textFile},
			want:  []string{"Python and Kubernetes", "Senior Go engineer"},
		},
		{
			name:        "missing file",
			files:       []string{filepath.Join(dir, "nope.txt")},
			expectError: "INVALID_INPUT_FILE",
		},
		{
			name:        "directory",
			files:       []string{dir},
			expectError: "INVALID_INPUT_FILE",
		},
		{
			name:        "over size limit",
			files:       []string{textFile},
			maxFileSize: 4,
			expectError: "too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := NewFileProcessor(nil, tt.maxFileSize)
			got, err := fp.ValidateAndReadFiles(tt.files...)

			if tt.expectError != "" {
				if err == nil {
					t.Fatalf("Expected error containing %q but got none", tt.expectError)
				}
				if !strings.Contains(err.Error(), tt.expectError) {
					t.Errorf("Expected error containing %q, got %q", tt.expectError, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d contents, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if strings.TrimSpace(got[i]) != tt.want[i] {
					t.Errorf("content[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "score.json")
	fp := NewFileProcessor(nil, 0)

	if err := fp.WriteFile(out, "{}"); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("unexpected content %q", data)
	}
}
