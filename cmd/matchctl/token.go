package main

import (
	"errors"
	"fmt"
	"time"

	"talent-match/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errNoSecret = errors.New("jwt.access_secret is not configured")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a recruiter access token for the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWT.AccessSecret == "" {
			return errNoSecret
		}

		recruiter, _ := cmd.Flags().GetString("recruiter")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		id := uuid.New()
		if recruiter != "" {
			if id, err = uuid.Parse(recruiter); err != nil {
				return fmt.Errorf("invalid --recruiter: %w", err)
			}
		}

		tok, err := jwt.NewHMACService(cfg.JWT.AccessSecret).IssueToken(id, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("recruiter", "", "recruiter id to embed (random when empty)")
	tokenCmd.Flags().Duration("ttl", 12*time.Hour, "token lifetime")
}
