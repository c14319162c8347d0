package cli

import (
	"context"
	"fmt"

	"skillsnap/internal/common"
	"skillsnap/internal/types"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills [file]",
	Short: "List the vocabulary skills mentioned in a resume or job description",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareOutput(cmd, &skillsConfig)
	},
	RunE: runSkills,
}

var skillsConfig common.CommandConfig

func init() {
	addOutputFlags(skillsCmd, &skillsConfig)
}

func runSkills(cmd *cobra.Command, args []string) error {
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
	logDetails := func(text string, cfg common.CommandConfig) {
		logger.Debug("Extracting skills", "chars", len(text))
	}
	skillsOperation := func(ctx context.Context, text string) (*types.SkillsReport, error) {
		return rt.Service.Skills(ctx, text)
	}

	if err := common.RunCommand(cmd.Context(), logger, skillsConfig, args, createInput, skillsOperation, logDetails); err != nil {
		return fmt.Errorf("failed to extract skills: %w", err)
	}
	return nil
}
