package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"skillsnap/internal/extract"
)

// InputKind says how an input file is turned into text
type InputKind int

const (
	// KindUnknown files are read as text with a warning
	KindUnknown InputKind = iota
	// KindText files are read as-is
	KindText
	// KindDocument files (PDF, DOCX) go through text extraction
	KindDocument
)

var textExtensions = []string{".txt", ".md", ".markdown", ".text"}

// DetectKind classifies filename by its extension
func DetectKind(filename string) InputKind {
	if extract.IsSupported(filename) {
		return KindDocument
	}
	if slices.Contains(textExtensions, strings.ToLower(filepath.Ext(filename))) {
		return KindText
	}
	return KindUnknown
}

// ValidateInputFile checks that filename is a readable, non-empty regular file
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return file.Close()
}

// ValidateOutputFile makes sure the parent directory of an output path exists
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
