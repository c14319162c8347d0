package cli

import (
	"context"
	"fmt"

	"skillsnap/internal/common"
	"skillsnap/internal/types"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit [resume-file]",
	Short: "Run a general audit of a resume",
	Long: `Run a general audit of a resume without a job description.

The audit reports the skills found and three improvement suggestions. When a
generative provider is configured it writes the suggestions; otherwise, or when
the provider fails, a fixed rule set is used.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareOutput(cmd, &auditConfig)
	},
	RunE: runAudit,
}

var auditConfig common.CommandConfig

func init() {
	addOutputFlags(auditCmd, &auditConfig)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	rt, err := openLocal(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	createInput := func(contents []string) (string, error) {
		return contents[0], nil
	}

	logDetails := func(resumeText string, cfg common.CommandConfig) {
		logger.Info("Starting general audit",
			"resume_chars", len(resumeText),
			"provider_enabled", rt.Provider != nil,
			"output_format", cfg.OutputFormat)
	}

	auditOperation := func(ctx context.Context, resumeText string) (*types.AnalysisResult, error) {
		return rt.Service.Score(ctx, resumeText, "")
	}

	if err := common.RunCommand(cmd.Context(), logger, auditConfig, args, createInput, auditOperation, logDetails); err != nil {
		return fmt.Errorf("failed to audit resume: %w", err)
	}
	return nil
}
