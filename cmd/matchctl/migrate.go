package main

import (
	"talent-match/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(c *app.Container) error {
			applied, err := c.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			c.Logger.Info("migrations applied", zap.Int64s("versions", applied))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("dir", "", "read migrations from this directory instead of the embedded set")
	_ = v.BindPFlag("app.migrations_dir", migrateCmd.Flags().Lookup("dir"))
}
