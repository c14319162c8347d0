package config

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedPromptSet
	UserPrompts   LoadedPromptSet
}

// LoadedPromptSet holds file-loaded prompt text per provider operation.
type LoadedPromptSet struct {
	Suggest   string
	Optimize  string
	Compare   string
	Quality   string
	Explain   string
	Interview string
}

// Get returns the prompt for operation, or "" if none was loaded.
func (s LoadedPromptSet) Get(operation string) string {
	switch operation {
	case OperationFeedback:
		return s.Suggest
	case OperationOptimize:
		return s.Optimize
	case OperationCompare:
		return s.Compare
	case OperationQuality:
		return s.Quality
	case OperationExplain:
		return s.Explain
	case OperationInterview:
		return s.Interview
	}
	return ""
}

func (s *LoadedPromptSet) set(operation, content string) {
	switch operation {
	case OperationFeedback:
		s.Suggest = content
	case OperationOptimize:
		s.Optimize = content
	case OperationCompare:
		s.Compare = content
	case OperationQuality:
		s.Quality = content
	case OperationExplain:
		s.Explain = content
	case OperationInterview:
		s.Interview = content
	}
}

func (s LoadedPromptSet) count() int {
	n := 0
	for _, p := range []string{s.Suggest, s.Optimize, s.Compare, s.Quality, s.Explain, s.Interview} {
		if p != "" {
			n++
		}
	}
	return n
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global     LoadedPrompts
	Operations map[string]LoadedPrompts
}

// GetPromptsForOperation returns the prompts loaded for an operation, falling back per prompt to the
// global prompt files.
func (c *Config) GetPromptsForOperation(operation string) LoadedPrompts {
	result := c.prompts.Operations[operation]
	if result.SystemPrompts.Get(operation) == "" {
		result.SystemPrompts.set(operation, c.prompts.Global.SystemPrompts.Get(operation))
	}
	if result.UserPrompts.Get(operation) == "" {
		result.UserPrompts.set(operation, c.prompts.Global.UserPrompts.Get(operation))
	}
	return result
}
