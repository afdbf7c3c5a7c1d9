package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single triage cycle over the inbox",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, err := newSession(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer s.shutdown(context.Background()) //nolint:errcheck

		report, runErr := s.pipeline.Run(ctx)
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return runErr
	},
}

func init() {
	addCommonFlags(runCmd)
}
