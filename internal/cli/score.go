package cli

import (
	"context"
	"fmt"

	"skillsnap/internal/common"
	"skillsnap/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a resume, optionally against a job description",
	Long: `Score a resume the way an ATS would.

With a job description the resume is scored comparatively: skills found in both
are matched, skills only in the job are missing, and the final score blends skill
overlap with semantic similarity. Without one (or with a description shorter than
the configured minimum) a general audit is run instead.

Semantic similarity comes from the configured embedder. The default hashing
embedder is an offline bag of hashed words and word pairs, so it only rewards
shared wording; set nlp.embedder to gemini for semantic sentence embeddings.

PDF and DOCX files are converted to text; any other file is read as plain text.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareOutput(cmd, &scoreConfig)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig

func init() {
	addOutputFlags(scoreCmd, &scoreConfig)
}

type scoreInput struct {
	ResumeText     string
	JobDescription string
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	rt, err := openLocal(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	createInput := func(contents []string) (scoreInput, error) {
		input := scoreInput{ResumeText: contents[0]}
		if len(contents) > 1 {
			input.JobDescription = contents[1]
		}
		return input, nil
	}

	logDetails := func(input scoreInput, cfg common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	scoreOperation := func(ctx context.Context, input scoreInput) (*types.AnalysisResult, error) {
		return rt.Service.Score(ctx, input.ResumeText, input.JobDescription)
	}

	if err := common.RunCommand(cmd.Context(), logger, scoreConfig, args, createInput, scoreOperation, logDetails); err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
