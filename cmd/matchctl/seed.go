package main

import (
	"talent-match/internal/app"
	"talent-match/internal/database/seeder"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo jobs and candidates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return withContainer(cmd.Context(), func(c *app.Container) error {
			if migrate {
				if _, err := c.Migrate(cmd.Context()); err != nil {
					return err
				}
			}
			r := seeder.Runner{Seeders: seeder.Defaults(), Logger: c.Logger}
			return r.Run(cmd.Context(), c.DB)
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Bool("migrate", false, "apply migrations before seeding")
}
