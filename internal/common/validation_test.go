package common

import (
	"slices"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: configured},
		{name: "text", format: "text", supportedFormats: configured},
		{name: "markdown", format: "markdown", supportedFormats: configured},
		{
			name:             "unknown format",
			format:           "xml",
			supportedFormats: configured,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive",
			format:           "JSON",
			supportedFormats: configured,
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:             "empty format",
			format:           "",
			supportedFormats: configured,
			expectedError:    "unsupported output format ''. Supported formats: [json text markdown]",
		},
		{
			name:             "configured but not renderable",
			format:           "yaml",
			supportedFormats: []string{"json", "yaml"},
			expectedError:    "unsupported output format 'yaml'. Supported formats: [json]",
		},
		{name: "no configuration allows registry formats", format: "markdown", supportedFormats: nil},
		{
			name:             "no configuration still rejects unknown",
			format:           "xml",
			supportedFormats: nil,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json markdown text]",
		},
		{
			name:             "restricted to json",
			format:           "text",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format 'text'. Supported formats: [json]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)

			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error %q but got none", tt.expectedError)
			}
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	tests := []struct {
		name             string
		supportedFormats []string
		expected         []string
	}{
		{name: "configured order kept", supportedFormats: []string{"markdown", "json"}, expected: []string{"markdown", "json"}},
		{name: "unrenderable dropped", supportedFormats: []string{"xml", "yaml", "csv"}, expected: []string{}},
		{name: "defaults to registry", supportedFormats: nil, expected: []string{"json", "markdown", "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetSupportedFormats(tt.supportedFormats)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	for b.Loop() {
		_ = ValidateOutputFormat("json", supportedFormats)
	}
}
