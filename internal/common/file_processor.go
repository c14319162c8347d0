package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"skillsnap/internal/errors"
	"skillsnap/internal/extract"
	"skillsnap/internal/utils"
)

// FileProcessor reads command inputs. PDF and DOCX files go through text extraction; anything
// else is read as plain text.
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. A non-positive maxFileSize disables
// the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	if fp.maxFileSize > 0 {
		if info, err := file.Stat(); err == nil && info.Size() > fp.maxFileSize {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("File %s is too large (%s, limit %s)", filename,
					utils.FormatFileSize(info.Size()), utils.FormatFileSize(fp.maxFileSize)), nil)
		}
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// ReadText returns the text of a file, extracting it from documents
func (fp *FileProcessor) ReadText(filename string) (string, error) {
	data, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}

	switch utils.DetectKind(filename) {
	case utils.KindDocument:
		fp.logger.Debug("Extracting document text",
			"filename", filename,
			"size", utils.FormatFileSize(int64(len(data))))
		return extract.TextWithLimit(filepath.Base(filename), data, extract.BodyLimit(fp.maxFileSize))
	case utils.KindUnknown:
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}
	return string(data), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads the text of multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		content, err := fp.ReadText(filename)
		if err != nil {
			return nil, err
		}

		contents[i] = content
	}

	return contents, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
