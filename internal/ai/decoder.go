package ai

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// FieldError is one schema violation at a field path of a provider response
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OutputError reports every schema violation of one provider response.
type OutputError struct {
	Operation string
	Errors    []FieldError
}

func (e *OutputError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s output failed validation:", e.Operation)
	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, fe.Field, fe.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

var outputSchemas = sync.OnceValues(func() (map[string]*gojsonschema.Schema, error) {
	schemas := make(map[string]*gojsonschema.Schema, len(config.Operations))
	for _, op := range config.Operations {
		raw, err := schemaFS.ReadFile("schemas/" + op + ".json")
		if err != nil {
			return nil, err
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", op, err)
		}
		schemas[op] = schema
	}
	return schemas, nil
})

// decodeOutput validates a provider response against the operation's schema and decodes it into Out.
// Malformed JSON and schema violations are provider errors; violations carry an *OutputError.
func decodeOutput[Out any](operation, text string) (*Out, error) {
	schemas, err := outputSchemas()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeProviderOutput, "failed to load output schemas", err)
	}
	schema, ok := schemas[operation]
	if !ok {
		return nil, errors.NewInternalError(errors.ErrCodeProviderOutput, "no output schema for operation", nil).
			WithContext("operation", operation)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderOutput, "provider returned malformed JSON", err).
			WithContext("operation", operation)
	}

	if !result.Valid() {
		outErr := &OutputError{Operation: operation}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			outErr.Errors = append(outErr.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return nil, errors.NewProviderError(errors.ErrCodeProviderOutput, "provider output does not match schema", outErr).
			WithContext("operation", operation).
			WithContext("fields", outErr.Errors)
	}

	var out Out
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderOutput, "failed to decode provider output", err).
			WithContext("operation", operation)
	}
	return &out, nil
}
