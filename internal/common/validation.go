package common

import (
	"fmt"
	"slices"

	"skillsnap/internal/formatters"
)

// ValidateOutputFormat checks format against the formats the command may emit
func ValidateOutputFormat(format string, supportedFormats []string) error {
	allowed := GetSupportedFormats(supportedFormats)
	if slices.Contains(allowed, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, allowed)
}

// GetSupportedFormats returns the configured formats the formatter registry can render. With no
// configured formats every registered format is allowed.
func GetSupportedFormats(supportedFormats []string) []string {
	renderable := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		slices.Sort(renderable)
		return renderable
	}

	allowed := make([]string, 0, len(supportedFormats))
	for _, format := range supportedFormats {
		if slices.Contains(renderable, format) {
			allowed = append(allowed, format)
		}
	}
	return allowed
}
