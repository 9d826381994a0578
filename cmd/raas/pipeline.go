package main

import (
	"encoding/json"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-raas/internal/pipeline"
)

const (
	outcomeFlag = "outcome"
	modeFlag    = "mode"
	resumeFlag  = "resume"
)

func newPipelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Agent pipeline operations",
	}
	flags := map[string]cobraflags.Flag{
		outcomeFlag: &cobraflags.StringFlag{
			Name:  outcomeFlag,
			Value: "",
			Usage: "Outcome id to run the agent pipeline for (required)",
		},
		modeFlag: &cobraflags.StringFlag{
			Name:  modeFlag,
			Value: "",
			Usage: "Override PIPELINE_MODE (simulated or live)",
		},
	}
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the agent pipeline for one outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return pipelineRunCommand(cmd, flags)
		},
	}
	cobraflags.RegisterMap(run, flags)
	run.Flags().Bool(resumeFlag, false, "Reuse completed stages from an earlier run")
	cmd.AddCommand(run)
	return cmd
}

func pipelineRunCommand(cmd *cobra.Command, flags map[string]cobraflags.Flag) error {
	raw := flags[outcomeFlag].GetString()
	if raw == "" {
		return fmt.Errorf("--%s is required", outcomeFlag)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid outcome id %q: %w", raw, err)
	}
	resume, err := cmd.Flags().GetBool(resumeFlag)
	if err != nil {
		return err
	}

	a, err := newApp(flags[modeFlag].GetString())
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.runner(cmd.Context())
	if err != nil {
		return err
	}
	report, runErr := runner.Run(cmd.Context(), id, pipeline.RunOptions{Resume: resume})
	if report != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	return runErr
}
