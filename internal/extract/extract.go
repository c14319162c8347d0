// Package extract turns uploaded resume documents into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	stderrors "errors"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"

	"skillsnap/internal/errors"
)

// SupportedExtensions lists the document types Text accepts.
var SupportedExtensions = []string{".pdf", ".docx"}

const docxBody = "word/document.xml"

// DefaultMaxBodySize caps the decompressed size of a document body when no limit is given.
const DefaultMaxBodySize int64 = 50 * 1024 * 1024

// BodyLimit returns the decompressed body limit for documents accepted up to maxFileSize bytes.
// A non-positive maxFileSize returns 0, which selects DefaultMaxBodySize.
func BodyLimit(maxFileSize int64) int64 {
	const expansion = 8
	if maxFileSize <= 0 {
		return 0
	}
	return maxFileSize * expansion
}

// ErrBodyTooLarge is returned when a document body inflates past the configured limit.
var ErrBodyTooLarge = stderrors.New("document body exceeds size limit")

var (
	xmlTags        = regexp.MustCompile(`<[^>]+>`)
	inlineSpace    = regexp.MustCompile(`[ \t\r\f\v]+`)
	repeatedBreaks = regexp.MustCompile(`\n\s*\n+`)
)

// IsSupported reports whether filename has an extension Text can read.
func IsSupported(filename string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(filename)))
}

// Text extracts plain text from a PDF or DOCX document with DefaultMaxBodySize as the body limit.
func Text(filename string, data []byte) (string, error) {
	return TextWithLimit(filename, data, DefaultMaxBodySize)
}

// TextWithLimit extracts plain text from a PDF or DOCX document. A DOCX body that decompresses
// to more than maxBody bytes is rejected; a non-positive maxBody selects DefaultMaxBodySize.
// Unsupported extensions and unreadable, oversized or empty documents are validation errors.
func TextWithLimit(filename string, data []byte, maxBody int64) (string, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		text, err = fromPDF(data)
	case ".docx":
		text, err = fromDOCX(data, maxBody)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			"unsupported file format: only pdf and docx are allowed", nil).WithContext("filename", filename)
	}
	if stderrors.Is(err, ErrBodyTooLarge) {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed,
			"document is too large to extract", err).
			WithContext("filename", filename).
			WithContext("limit_bytes", maxBody)
	}
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed,
			"failed to parse "+strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")+" file", err).
			WithContext("filename", filename)
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed,
			"document contains no extractable text", nil).WithContext("filename", filename)
	}
	return text, nil
}

func fromPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fromDOCX(data []byte, maxBody int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		if f.UncompressedSize64 > uint64(maxBody) {
			return "", ErrBodyTooLarge
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = rc.Close() }()

		// the header size is not trusted
		body, err := io.ReadAll(io.LimitReader(rc, maxBody+1))
		if err != nil {
			return "", err
		}
		if int64(len(body)) > maxBody {
			return "", ErrBodyTooLarge
		}
		xml := string(body)
		xml = strings.ReplaceAll(xml, "</w:p>", "\n")
		xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
		xml = strings.ReplaceAll(xml, "<w:br/>", "\n")
		return html.UnescapeString(xmlTags.ReplaceAllString(xml, "")), nil
	}
	return "", fmt.Errorf("no %s found in docx", docxBody)
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = inlineSpace.ReplaceAllString(s, " ")
	s = repeatedBreaks.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
