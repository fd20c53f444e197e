package main

import (
	"context"
	"fmt"

	"talent-match/internal/app"
	"talent-match/internal/config"
	"talent-match/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const appName = "matchctl"

var (
	// Used for flags.
	cfgFile string

	v = viper.New()

	rootCmd = &cobra.Command{
		Use:          appName,
		Short:        "matchctl runs maintenance tasks for the talent matching service",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is configs/config.yaml or $CONFIG_FILE)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	// The CLI never serves HTTP, so these only satisfy validation.
	v.SetDefault("app.name", appName)
	v.SetDefault("app.http_port", "0")
}

func loadConfig() (config.Config, *zap.Logger, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	format := "console"
	if v.GetBool("json") {
		format = "json"
	}
	return cfg, logger.New(cfg.Logging.Level, format).Named(appName), nil
}

// withContainer loads config, connects every dependency and hands the
// container to fn. The container is closed afterwards.
func withContainer(ctx context.Context, fn func(*app.Container) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	c, err := app.NewContainer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("close container", zap.Error(err))
		}
	}()
	return fn(c)
}
