package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// File returns the prompt file configured for operation.
func (s PromptSet) File(operation string) string {
	switch operation {
	case OperationFeedback:
		return s.SuggestFile
	case OperationOptimize:
		return s.OptimizeFile
	case OperationCompare:
		return s.CompareFile
	case OperationQuality:
		return s.QualityFile
	case OperationExplain:
		return s.ExplainFile
	case OperationInterview:
		return s.InterviewFile
	}
	return ""
}

// Inline returns the inline prompt configured for operation.
func (s PromptSet) Inline(operation string) string {
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

func (c *Config) operationPrompts(operation string) PromptConfig {
	switch operation {
	case OperationFeedback:
		return c.AI.Feedback.CustomPrompts
	case OperationOptimize:
		return c.AI.Optimize.CustomPrompts
	case OperationCompare:
		return c.AI.Compare.CustomPrompts
	case OperationQuality:
		return c.AI.Quality.CustomPrompts
	case OperationExplain:
		return c.AI.Explain.CustomPrompts
	case OperationInterview:
		return c.AI.Interview.CustomPrompts
	}
	return PromptConfig{}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	c.prompts = AllLoadedPrompts{Operations: make(map[string]LoadedPrompts, len(Operations))}

	for _, op := range Operations {
		if err := loadPromptConfig(c.AI.CustomPrompts, op, &c.prompts.Global); err != nil {
			return fmt.Errorf("failed to load global %s prompts: %w", op, err)
		}

		var loaded LoadedPrompts
		if err := loadPromptConfig(c.operationPrompts(op), op, &loaded); err != nil {
			return fmt.Errorf("failed to load %s prompts: %w", op, err)
		}
		c.prompts.Operations[op] = loaded
	}

	c.logPromptLoadingSummary()
	return nil
}

func loadPromptConfig(cfg PromptConfig, operation string, target *LoadedPrompts) error {
	if path := cfg.SystemPrompts.File(operation); path != "" {
		content, err := loadPromptFromFile(path, "system", operation)
		if err != nil {
			return err
		}
		target.SystemPrompts.set(operation, content)
	}
	if path := cfg.UserPrompts.File(operation); path != "" {
		content, err := loadPromptFromFile(path, "user", operation)
		if err != nil {
			return err
		}
		target.UserPrompts.set(operation, content)
	}
	return nil
}

// loadPromptFromFile reads a prompt file, rejecting missing and empty files
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles validates that prompt files exist before loading, reporting all missing files at once
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	for _, op := range Operations {
		validateFile(c.AI.CustomPrompts.SystemPrompts.File(op), "system", op)
		validateFile(c.AI.CustomPrompts.UserPrompts.File(op), "user", op)

		opPrompts := c.operationPrompts(op)
		validateFile(opPrompts.SystemPrompts.File(op), op+" system", op)
		validateFile(opPrompts.UserPrompts.File(op), op+" user", op)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

func (c *Config) logPromptLoadingSummary() {
	count := c.prompts.Global.SystemPrompts.count() + c.prompts.Global.UserPrompts.count()
	for _, op := range Operations {
		loaded := c.prompts.Operations[op]
		count += loaded.SystemPrompts.count() + loaded.UserPrompts.count()
	}

	if count == 0 {
		log.Println("[CONFIG] No custom prompt files loaded - using configured or built-in prompts")
		return
	}
	log.Printf("[CONFIG] Total custom prompts loaded from files: %d", count)
}
