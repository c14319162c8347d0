package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"
	"skillsnap/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const defaultModelCheckTimeout = 10 * time.Second

// operation holds the resolved configuration and collaborators of one provider operation.
type operation struct {
	name    string
	config  config.OperationAIConfig
	prompts config.LoadedPrompts
	models  contentGenerator
	breaker *CircuitBreaker[*genai.GenerateContentResponse]
}

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	operations        map[string]*operation
	models            contentGenerator
	model             string
	modelBreaker      *CircuitBreaker[*genai.Model]
	modelCheckTimeout time.Duration
	observer          Observer
	logger            *errors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// Option configures a GeminiProvider
type Option func(*GeminiProvider)

// WithObserver reports every provider call to o.
func WithObserver(o Observer) Option {
	return func(g *GeminiProvider) {
		if o != nil {
			g.observer = o
		}
	}
}

// NewGeminiProvider creates a Gemini provider with one client and circuit breaker per operation
func NewGeminiProvider(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts ...Option) (*GeminiProvider, error) {
	clients := make(map[string]contentGenerator)
	generators := make(map[string]contentGenerator, len(config.Operations))
	for _, op := range config.Operations {
		opCfg := cfg.GetOperationConfig(op)
		// operations sharing an API key share a client
		if _, ok := clients[opCfg.APIKey]; !ok {
			client, err := newGeminiClient(ctx, opCfg.APIKey)
			if err != nil {
				return nil, err
			}
			clients[opCfg.APIKey] = client.Models
		}
		generators[op] = clients[opCfg.APIKey]
	}

	return newGeminiProvider(cfg, generators, logger, opts...), nil
}

func newGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderFailed, "Failed to create Gemini client", err)
	}
	return client, nil
}

func newGeminiProvider(cfg *config.Config, generators map[string]contentGenerator, logger *errors.Logger, opts ...Option) *GeminiProvider {
	g := &GeminiProvider{
		operations:        make(map[string]*operation, len(config.Operations)),
		model:             cfg.AI.Model,
		modelCheckTimeout: cfg.Observability.HealthCheck.AIModelCheckTimeout,
		observer:          nopObserver{},
		logger:            logger,
	}
	if g.modelCheckTimeout <= 0 {
		g.modelCheckTimeout = defaultModelCheckTimeout
	}

	for _, name := range config.Operations {
		opCfg := cfg.GetOperationConfig(name)
		logger.Debug("Initializing AI operation",
			"provider", opCfg.Provider,
			"operation_type", name,
			"model", opCfg.Model,
			"temperature", *opCfg.Temperature,
			"timeout", *opCfg.Timeout,
			"max_retries", *opCfg.MaxRetries,
			"use_system_prompts", *opCfg.UseSystemPrompts)

		g.operations[name] = &operation{
			name:    name,
			config:  opCfg,
			prompts: cfg.GetPromptsForOperation(name),
			models:  generators[name],
			breaker: NewCircuitBreaker[*genai.GenerateContentResponse](name, opCfg.CircuitBreaker, logger),
		}
	}

	feedback := g.operations[config.OperationFeedback]
	g.models = feedback.models
	if g.model == "" {
		g.model = feedback.config.Model
	}
	g.modelBreaker = NewCircuitBreaker[*genai.Model]("Model", modelCheckBreaker(feedback.config.CircuitBreaker), logger)

	for _, opt := range opts {
		opt(g)
	}
	return g
}

// renderPrompts returns the system prompt and the rendered user prompt of the operation
func (op *operation) renderPrompts(values map[string]string) (string, string) {
	systemPrompt := resolvePrompt(
		op.prompts.SystemPrompts.Get(op.name),
		op.config.CustomPrompts.SystemPrompts.Inline(op.name),
		DefaultSystemPrompts[op.name],
	)
	userPrompt := resolvePrompt(
		op.prompts.UserPrompts.Get(op.name),
		op.config.CustomPrompts.UserPrompts.Inline(op.name),
		DefaultUserPrompts[op.name],
	)
	return systemPrompt, renderPrompt(userPrompt, values)
}

// executeOperation is a generic helper to run AI operations with common tracing, circuit breaker, and parsing logic.
func executeOperation[Out any](
	ctx context.Context,
	g *GeminiProvider,
	operationName string,
	values map[string]string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (*Out, error) {
	op, ok := g.operations[operationName]
	if !ok || op.models == nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderDisabled, "operation is not configured", nil).
			WithContext("operation", operationName)
	}

	tracer := otel.Tracer("skillsnap.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", op.config.Model),
		attribute.Float64("ai.temperature", float64(*op.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	systemPrompt, userPrompt := op.renderPrompts(values)
	if *op.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if *op.config.Temperature > 0 {
		genaiConfig.Temperature = op.config.Temperature
	}

	callCtx, cancel := context.WithTimeout(ctx, *op.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := op.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return withRetry(callCtx, g.logger, operationName, *op.config.MaxRetries, func() (*genai.GenerateContentResponse, error) {
			return op.models.GenerateContent(callCtx, op.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	var (
		output *Out
		usage  *TokenUsage
	)
	if err != nil {
		err = providerCallError(operationName, err)
	} else {
		usage = extractTokenUsage(result)
		output, err = decodeOutput[Out](operationName, result.Text())
	}

	g.observer.ObserveProviderCall(ctx, CallRecord{
		Operation: operationName,
		Model:     op.config.Model,
		Duration:  time.Since(start),
		Usage:     usage,
		Err:       err,
	})

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, nil
}

func providerCallError(operationName string, err error) error {
	switch {
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewProviderError(errors.ErrCodeProviderFailed, "circuit breaker is open for "+operationName, err).
			WithContext("operation", operationName)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewProviderError(errors.ErrCodeNetworkTimeout, "provider timed out for "+operationName, err).
			WithContext("operation", operationName)
	default:
		return errors.NewProviderError(errors.ErrCodeProviderFailed, "Failed to generate content for "+operationName, err).
			WithContext("operation", operationName)
	}
}

// SuggestImprovements implements Provider for general-audit feedback
func (g *GeminiProvider) SuggestImprovements(ctx context.Context, input *types.SuggestionsInput) (*types.SuggestionsOutput, error) {
	return executeOperation[types.SuggestionsOutput](ctx, g, config.OperationFeedback,
		map[string]string{
			PlaceholderResume:         input.ResumeText,
			PlaceholderJobDescription: input.JobDescription,
			PlaceholderMissingSkills:  strings.Join(input.MissingSkills, ", "),
		},
		buildSuggestionsSchema(),
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)
}

// OptimizeResume implements Provider for resume optimization
func (g *GeminiProvider) OptimizeResume(ctx context.Context, input *types.OptimizeResumeInput) (*types.OptimizeResumeOutput, error) {
	return executeOperation[types.OptimizeResumeOutput](ctx, g, config.OperationOptimize,
		map[string]string{
			PlaceholderResume:         input.ResumeText,
			PlaceholderJobDescription: input.JobDescription,
			PlaceholderCompany:        companyContext(input.CompanyName),
		},
		buildOptimizeSchema(),
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
}

// CompareVersions implements Provider for narrative version comparison
func (g *GeminiProvider) CompareVersions(ctx context.Context, input *types.CompareVersionsInput) (*types.ComparisonNarrative, error) {
	return executeOperation[types.ComparisonNarrative](ctx, g, config.OperationCompare,
		map[string]string{
			PlaceholderPreviousText:  input.PreviousText,
			PlaceholderCurrentText:   input.CurrentText,
			PlaceholderPreviousScore: formatScore(input.PreviousScore),
			PlaceholderCurrentScore:  formatScore(input.CurrentScore),
		},
		buildCompareSchema(),
		attribute.Float64("input.previous_score", input.PreviousScore),
		attribute.Float64("input.current_score", input.CurrentScore),
	)
}

// CheckQuality implements Provider for the confidence and authenticity audit
func (g *GeminiProvider) CheckQuality(ctx context.Context, input *types.QualityCheckInput) (*types.QualityReport, error) {
	return executeOperation[types.QualityReport](ctx, g, config.OperationQuality,
		map[string]string{PlaceholderResume: input.ResumeText},
		buildQualitySchema(),
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)
}

// ExplainScore implements Provider for explaining a stored analysis
func (g *GeminiProvider) ExplainScore(ctx context.Context, input *types.ExplainScoreInput) (*types.ScoreExplanation, error) {
	return executeOperation[types.ScoreExplanation](ctx, g, config.OperationExplain,
		map[string]string{
			PlaceholderResume:         input.ResumeText,
			PlaceholderJobDescription: input.JobDescription,
			PlaceholderATSScore:       formatScore(input.ATSScore),
			PlaceholderMatchedSkills:  strings.Join(input.MatchedSkills, ", "),
			PlaceholderMissingSkills:  strings.Join(input.MissingSkills, ", "),
		},
		buildExplainSchema(),
		attribute.Float64("input.ats_score", input.ATSScore),
		attribute.Int("input.missing_skills", len(input.MissingSkills)),
	)
}

// GenerateInterviewQuestions implements Provider for interview preparation
func (g *GeminiProvider) GenerateInterviewQuestions(ctx context.Context, input *types.InterviewQuestionsInput) (*types.InterviewPrep, error) {
	return executeOperation[types.InterviewPrep](ctx, g, config.OperationInterview,
		map[string]string{
			PlaceholderResume:         input.ResumeText,
			PlaceholderJobDescription: input.JobDescription,
			PlaceholderMissingSkills:  strings.Join(input.MissingSkills, ", "),
		},
		buildInterviewSchema(),
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("input.missing_skills", len(input.MissingSkills)),
	)
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.models.Get(checkCtx, g.model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.model,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics per operation
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(g.operations)+2)
	healthy := g.modelBreaker.IsHealthy()
	for name, op := range g.operations {
		stats[name] = op.breaker.GetStats()
		healthy = healthy && op.breaker.IsHealthy()
	}
	stats["model_operations"] = g.modelBreaker.GetStats()
	stats["overall_healthy"] = healthy
	return stats
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// genai clients hold no resources in single-shot usage
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
