package formatters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsnap/internal/types"
)

func comparativeResult() *types.AnalysisResult {
	skill, semantic := 50.0, 60.0
	return &types.AnalysisResult{
		ATSScore:        55.0,
		MatchedSkills:   []string{"python"},
		MissingSkills:   []string{"sql"},
		ExperienceMatch: types.ExperienceModerate,
		Suggestions:     []string{"Consider acquiring: sql", "Optimize keywords for better ATS match."},
		SkillScore:      &skill,
		SemanticScore:   &semantic,
		Mode:            types.ModeComparative,
	}
}

func TestFormatAnalysis(t *testing.T) {
	registry := NewFormatterRegistry()

	text, err := registry.Format(comparativeResult(), "text")
	require.NoError(t, err)
	assert.Contains(t, text, "ATS Score: 55.0/100")
	assert.Contains(t, text, "Missing Skills (1):\n- sql")
	assert.Contains(t, text, "2. Optimize keywords for better ATS match.")

	md, err := registry.Format(comparativeResult(), "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "**ATS Score:** 55.0/100")
	assert.Contains(t, md, "| Skill overlap | 50.0 |")

	raw, err := registry.Format(comparativeResult(), "json")
	require.NoError(t, err)
	var decoded types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, 55.0, decoded.ATSScore)
}

func TestFormatGeneralAudit(t *testing.T) {
	result := &types.AnalysisResult{
		ATSScore:        85,
		MatchedSkills:   []string{"go"},
		ExperienceMatch: types.ExperienceStrong,
		Suggestions:     []string{"a", "b", "c"},
		Mode:            types.ModeGeneralAudit,
	}

	text, err := NewFormatterRegistry().Format(result, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Mode: General audit")
	assert.Contains(t, text, "Missing Skills (0):\n  (none)")
	assert.NotContains(t, text, "Semantic Score")
}

func TestFormatSkills(t *testing.T) {
	report := &types.SkillsReport{Skills: []string{"docker", "go"}, VocabularyVersion: "v1"}
	registry := NewFormatterRegistry()

	text, err := registry.Format(report, "text")
	require.NoError(t, err)
	assert.Equal(t, "=== SKILLS (2) ===\n- docker\n- go\n\nVocabulary: v1\n", text)

	md, err := registry.Format(report, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "- `docker`")
}

func TestFormatFallsBackToJSON(t *testing.T) {
	registry := NewFormatterRegistry()

	_, err := registry.Format(map[string]int{"a": 1}, "text")
	require.Error(t, err)

	out, err := registry.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)

	_, err = registry.Format(comparativeResult(), "xml")
	assert.Error(t, err)
}
