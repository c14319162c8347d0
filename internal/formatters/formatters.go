package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"skillsnap/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "SkillsReport", &SkillsTextFormatter{})
	registry.RegisterFormatter("markdown", "SkillsReport", &SkillsMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.AnalysisResult:
		return "AnalysisResult"
	case *types.SkillsReport:
		return "SkillsReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for scoring results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected *AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS ANALYSIS ===\n\n")
	fmt.Fprintf(&output, "Mode: %s\n", modeLabel(result.Mode))
	fmt.Fprintf(&output, "ATS Score: %.1f/100\n", result.ATSScore)
	fmt.Fprintf(&output, "Experience Match: %s\n", result.ExperienceMatch)
	if result.SkillScore != nil {
		fmt.Fprintf(&output, "Skill Score: %.1f\n", *result.SkillScore)
	}
	if result.SemanticScore != nil {
		fmt.Fprintf(&output, "Semantic Score: %.1f\n", *result.SemanticScore)
	}
	output.WriteString("\n")

	writeTextList(&output, "Matched Skills", result.MatchedSkills)
	writeTextList(&output, "Missing Skills", result.MissingSkills)

	if len(result.Suggestions) > 0 {
		output.WriteString("=== SUGGESTIONS ===\n")
		for i, suggestion := range result.Suggestions {
			fmt.Fprintf(&output, "%d. %s\n", i+1, suggestion)
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for scoring results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected *AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Analysis\n\n")
	fmt.Fprintf(&output, "**Mode:** %s\n\n", modeLabel(result.Mode))
	fmt.Fprintf(&output, "**ATS Score:** %.1f/100\n\n", result.ATSScore)
	fmt.Fprintf(&output, "**Experience Match:** %s\n\n", result.ExperienceMatch)
	if result.SkillScore != nil || result.SemanticScore != nil {
		output.WriteString("| Component | Score |\n|---|---|\n")
		if result.SkillScore != nil {
			fmt.Fprintf(&output, "| Skill overlap | %.1f |\n", *result.SkillScore)
		}
		if result.SemanticScore != nil {
			fmt.Fprintf(&output, "| Semantic similarity | %.1f |\n", *result.SemanticScore)
		}
		output.WriteString("\n")
	}

	writeMarkdownList(&output, "Matched Skills", result.MatchedSkills)
	writeMarkdownList(&output, "Missing Skills", result.MissingSkills)

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for i, suggestion := range result.Suggestions {
			fmt.Fprintf(&output, "%d. %s\n", i+1, suggestion)
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// SkillsTextFormatter handles text formatting for skill extraction
type SkillsTextFormatter struct{}

func (stf *SkillsTextFormatter) Format(data any) (string, error) {
	report, ok := data.(*types.SkillsReport)
	if !ok {
		return "", fmt.Errorf("expected *SkillsReport, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== SKILLS (%d) ===\n", len(report.Skills))
	for _, skill := range report.Skills {
		fmt.Fprintf(&output, "- %s\n", skill)
	}
	fmt.Fprintf(&output, "\nVocabulary: %s\n", report.VocabularyVersion)
	return output.String(), nil
}

func (stf *SkillsTextFormatter) SupportedType() string {
	return "SkillsReport"
}

// SkillsMarkdownFormatter handles markdown formatting for skill extraction
type SkillsMarkdownFormatter struct{}

func (smf *SkillsMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(*types.SkillsReport)
	if !ok {
		return "", fmt.Errorf("expected *SkillsReport, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Skills (%d)\n\n", len(report.Skills))
	for _, skill := range report.Skills {
		fmt.Fprintf(&output, "- `%s`\n", skill)
	}
	fmt.Fprintf(&output, "\n_Vocabulary version: %s_\n", report.VocabularyVersion)
	return output.String(), nil
}

func (smf *SkillsMarkdownFormatter) SupportedType() string {
	return "SkillsReport"
}

func modeLabel(mode string) string {
	if mode == types.ModeComparative {
		return "Comparative (against job description)"
	}
	return "General audit"
}

func writeTextList(output *strings.Builder, title string, items []string) {
	fmt.Fprintf(output, "%s (%d):\n", title, len(items))
	if len(items) == 0 {
		output.WriteString("  (none)\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	fmt.Fprintf(output, "## %s\n\n", title)
	if len(items) == 0 {
		output.WriteString("_None_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
