package main

import (
	"errors"
	"fmt"

	"talent-match/internal/app"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errRegenerateTarget = errors.New("exactly one of --job or --all is required")

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Rebuild the shortlist of one job or of every open job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobFlag, _ := cmd.Flags().GetString("job")
		all, _ := cmd.Flags().GetBool("all")
		if (jobFlag == "") == !all {
			return errRegenerateTarget
		}

		var jobID uuid.UUID
		if jobFlag != "" {
			id, err := uuid.Parse(jobFlag)
			if err != nil {
				return fmt.Errorf("invalid --job: %w", err)
			}
			jobID = id
		}

		return withContainer(cmd.Context(), func(c *app.Container) error {
			if all {
				sum, err := c.Matching.RegenerateOpenJobs(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "jobs=%d succeeded=%d failed=%d\n", sum.Jobs, sum.Succeeded, sum.Failed)
				if sum.Failed > 0 {
					return fmt.Errorf("%d job(s) failed to regenerate", sum.Failed)
				}
				return nil
			}

			sl, err := c.Matching.RegenerateShortlist(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			c.Logger.Info("shortlist regenerated",
				zap.String("job_id", jobID.String()),
				zap.Int("entries", len(sl.Entries)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "job=%s entries=%d\n", jobID, len(sl.Entries))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(regenerateCmd)
	regenerateCmd.Flags().String("job", "", "job id to regenerate")
	regenerateCmd.Flags().Bool("all", false, "regenerate every open job")
	regenerateCmd.Flags().Int("workers", 0, "parallel jobs when --all is set (default from config)")
	_ = v.BindPFlag("scheduler.workers", regenerateCmd.Flags().Lookup("workers"))
}
