package ai

import "google.golang.org/genai"

// The genai response schemas steer generation. The JSON Schemas under schemas/ are what the
// decoder enforces, so the two must describe the same fields.

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}

// buildSuggestionsSchema creates the schema for general-audit suggestions
func buildSuggestionsSchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suggestions": stringArray(),
		},
		Required: []string{"suggestions"},
	})
}

// buildOptimizeSchema creates the schema for optimization requests
func buildOptimizeSchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"optimized_summary": {Type: genai.TypeString},
			"optimized_skills":  stringArray(),
			"optimized_experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"original":  {Type: genai.TypeString},
						"optimized": {Type: genai.TypeString},
						"reason":    {Type: genai.TypeString},
					},
					Required: []string{"original", "optimized", "reason"},
				},
			},
			"ats_improvement_score": {Type: genai.TypeNumber},
			"changes_explanation":   {Type: genai.TypeString},
		},
		Required: []string{"optimized_summary", "optimized_skills", "optimized_experience", "ats_improvement_score", "changes_explanation"},
	})
}

// buildCompareSchema creates the schema for narrative version comparisons
func buildCompareSchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"key_changes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"section":     {Type: genai.TypeString},
						"change_type": {Type: genai.TypeString, Enum: []string{"added", "removed", "modified"}},
						"description": {Type: genai.TypeString},
						"impact":      {Type: genai.TypeString, Enum: []string{"positive", "negative", "neutral"}},
					},
					Required: []string{"section", "change_type", "description", "impact"},
				},
			},
			"improvements":   stringArray(),
			"regressions":    stringArray(),
			"recommendation": {Type: genai.TypeString},
		},
		Required: []string{"key_changes", "improvements", "regressions", "recommendation"},
	})
}

// buildQualitySchema creates the schema for quality audits
func buildQualitySchema() *genai.GenerateContentConfig {
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"confidence_score":   {Type: genai.TypeNumber},
			"authenticity_score": {Type: genai.TypeNumber},
			"issues": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type": {Type: genai.TypeString, Enum: []string{
							"weak_language", "buzzwords", "vague_claim", "unrealistic", "inconsistency",
						}},
						"severity": {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
						"location": {Type: genai.TypeString},
						"issue":    {Type: genai.TypeString},
						"example":  {Type: genai.TypeString},
					},
					Required: []string{"type", "severity", "issue"},
				},
			},
			"suggestions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"issue_type": {Type: genai.TypeString},
						"current":    {Type: genai.TypeString},
						"suggested":  {Type: genai.TypeString},
						"reason":     {Type: genai.TypeString},
					},
					Required: []string{"issue_type", "current", "suggested", "reason"},
				},
			},
			"risk_level":         {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
			"overall_assessment": {Type: genai.TypeString},
		},
		Required: []string{"confidence_score", "authenticity_score", "issues", "suggestions", "risk_level", "overall_assessment"},
	})
}

func levelEnum(levels ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Enum: levels}
}

// buildExplainSchema creates the schema for score explanations
func buildExplainSchema() *genai.GenerateContentConfig {
	factor := &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"factor":   {Type: genai.TypeString},
				"impact":   levelEnum("high", "medium", "low"),
				"evidence": {Type: genai.TypeString},
			},
			Required: []string{"factor", "impact", "evidence"},
		},
	}
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"reasoning":        {Type: genai.TypeString},
			"positive_factors": factor,
			"negative_factors": factor,
			"improvement_actions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"action":          {Type: genai.TypeString},
						"expected_impact": {Type: genai.TypeString},
						"priority":        levelEnum("high", "medium", "low"),
					},
					Required: []string{"action", "expected_impact", "priority"},
				},
			},
			"score_breakdown": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"skills_match":         {Type: genai.TypeNumber},
					"experience_relevance": {Type: genai.TypeNumber},
					"keyword_optimization": {Type: genai.TypeNumber},
					"formatting_quality":   {Type: genai.TypeNumber},
				},
				Required: []string{"skills_match", "experience_relevance", "keyword_optimization", "formatting_quality"},
			},
		},
		Required: []string{"reasoning", "positive_factors", "negative_factors", "improvement_actions", "score_breakdown"},
	})
}

// buildInterviewSchema creates the schema for interview preparation
func buildInterviewSchema() *genai.GenerateContentConfig {
	questions := &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question":   {Type: genai.TypeString},
				"focus_area": {Type: genai.TypeString},
				"difficulty": levelEnum("easy", "medium", "hard"),
			},
			Required: []string{"question", "focus_area", "difficulty"},
		},
	}
	return jsonConfig(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"technical":          questions,
			"behavioral":         questions,
			"situational":        questions,
			"overall_difficulty": levelEnum("easy", "medium", "hard"),
			"preparation_tips":   stringArray(),
		},
		Required: []string{"technical", "behavioral", "situational", "overall_difficulty", "preparation_tips"},
	})
}
