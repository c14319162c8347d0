package config

// Provider operation names. They key per-operation configuration, loaded prompts and circuit breakers.
const (
	OperationFeedback  = "feedback"
	OperationOptimize  = "optimize"
	OperationCompare   = "compare"
	OperationQuality   = "quality"
	OperationExplain   = "explain"
	OperationInterview = "interview"
)

// Operations lists every provider operation in a stable order.
var Operations = []string{
	OperationFeedback, OperationOptimize, OperationCompare, OperationQuality, OperationExplain, OperationInterview,
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// mergePromptSet fills the empty prompts of dst from src.
func mergePromptSet(dst *PromptSet, src PromptSet) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.Suggest, src.Suggest)
	fill(&dst.SuggestFile, src.SuggestFile)
	fill(&dst.Optimize, src.Optimize)
	fill(&dst.OptimizeFile, src.OptimizeFile)
	fill(&dst.Compare, src.Compare)
	fill(&dst.CompareFile, src.CompareFile)
	fill(&dst.Quality, src.Quality)
	fill(&dst.QualityFile, src.QualityFile)
	fill(&dst.Explain, src.Explain)
	fill(&dst.ExplainFile, src.ExplainFile)
	fill(&dst.Interview, src.Interview)
	fill(&dst.InterviewFile, src.InterviewFile)
}

func (c *Config) operationConfig(op OperationAIConfig) OperationAIConfig {
	c.applyOperationDefaults(&op)
	mergePromptSet(&op.CustomPrompts.SystemPrompts, c.AI.CustomPrompts.SystemPrompts)
	mergePromptSet(&op.CustomPrompts.UserPrompts, c.AI.CustomPrompts.UserPrompts)
	return op
}

// GetFeedbackConfig returns the AI configuration for general-audit suggestions with fallback to global config
func (c *Config) GetFeedbackConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Feedback)
}

// GetOptimizeConfig returns the AI configuration for resume optimization with fallback to global config
func (c *Config) GetOptimizeConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Optimize)
}

// GetCompareConfig returns the AI configuration for narrative version comparison with fallback to global config
func (c *Config) GetCompareConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Compare)
}

// GetQualityConfig returns the AI configuration for quality checks with fallback to global config
func (c *Config) GetQualityConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Quality)
}

// GetExplainConfig returns the AI configuration for score explanations with fallback to global config
func (c *Config) GetExplainConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Explain)
}

// GetInterviewConfig returns the AI configuration for interview preparation with fallback to global config
func (c *Config) GetInterviewConfig() OperationAIConfig {
	return c.operationConfig(c.AI.Interview)
}

// GetOperationConfig returns the resolved configuration of a named operation.
func (c *Config) GetOperationConfig(operation string) OperationAIConfig {
	switch operation {
	case OperationFeedback:
		return c.GetFeedbackConfig()
	case OperationOptimize:
		return c.GetOptimizeConfig()
	case OperationCompare:
		return c.GetCompareConfig()
	case OperationQuality:
		return c.GetQualityConfig()
	case OperationExplain:
		return c.GetExplainConfig()
	case OperationInterview:
		return c.GetInterviewConfig()
	default:
		return c.operationConfig(OperationAIConfig{})
	}
}
