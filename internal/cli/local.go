package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"skillsnap/internal/common"
	"skillsnap/internal/config"
	"skillsnap/internal/errors"
	"skillsnap/internal/resume"
)

// openLocal builds a runtime for one-shot commands and waits for the models. Nothing is
// persisted, so the store is always the in-memory one.
func openLocal(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*resume.Runtime, error) {
	local := *cfg
	local.Store = config.StoreConfig{Driver: "memory"}

	rt, err := resume.Open(ctx, &local, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	if _, err := rt.LoadModels(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// prepareOutput applies the configured default format and file size limit, then validates the format
func prepareOutput(cmd *cobra.Command, cmdConfig *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if cmdConfig.OutputFormat == "" {
		cmdConfig.OutputFormat = cfg.App.DefaultFormat
	}
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize
	return common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats)
}
