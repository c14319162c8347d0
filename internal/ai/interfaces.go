package ai

import (
	"context"
	"time"

	"skillsnap/internal/types"

	"google.golang.org/genai"
)

// Provider is the generative analysis provider. The local engine never writes prose; everything
// narrative comes through here.
type Provider interface {
	SuggestImprovements(ctx context.Context, input *types.SuggestionsInput) (*types.SuggestionsOutput, error)
	OptimizeResume(ctx context.Context, input *types.OptimizeResumeInput) (*types.OptimizeResumeOutput, error)
	CompareVersions(ctx context.Context, input *types.CompareVersionsInput) (*types.ComparisonNarrative, error)
	CheckQuality(ctx context.Context, input *types.QualityCheckInput) (*types.QualityReport, error)
	ExplainScore(ctx context.Context, input *types.ExplainScoreInput) (*types.ScoreExplanation, error)
	GenerateInterviewQuestions(ctx context.Context, input *types.InterviewQuestionsInput) (*types.InterviewPrep, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Observer receives one record per provider call. The observability package implements it.
type Observer interface {
	ObserveProviderCall(ctx context.Context, call CallRecord)
}

// CallRecord describes a finished provider call
type CallRecord struct {
	Operation string
	Model     string
	Duration  time.Duration
	Usage     *TokenUsage
	Err       error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// contentGenerator is the subset of *genai.Models the provider and embedder use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type nopObserver struct{}

func (nopObserver) ObserveProviderCall(context.Context, CallRecord) {}
