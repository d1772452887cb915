// Package main is the entry point for the bet tracker bot.
package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bet-tracker-bot/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bettracker",
	Short: "Telegram bot that tracks betting picks and reports performance",
	Long: `Records betting picks posted to a Telegram group, settles them and
reports per-user and group profit, ROI and hit rate over daily, weekly,
monthly and lifetime windows.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config", "directory containing config.yaml")

	rootCmd.AddCommand(serveCmd, migrateCmd, reportCmd)
}

// loadConfig reads the configuration and applies the logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(&cfg.Log)
	return cfg, nil
}

func setupLogging(cfg *config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
