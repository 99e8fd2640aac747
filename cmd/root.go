// Package cmd holds the brickshelf command line.
package cmd

import (
	"fmt"

	"brickshelf/internal/config"
	"brickshelf/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	ConfigFile string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to a YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error) - overrides LOG_LEVEL")
}

var rootCmd = &cobra.Command{
	Use:   "brickshelf",
	Short: "brickshelf serves a catalog of building-brick sets and their users",
	Long:  `brickshelf keeps user accounts with a bounded login history and a relational catalog of themes and sets, exposed over HTTP.`,
	Example: `brickshelf --config config.yml
  brickshelf migrate -c config.yml
  brickshelf import catalog.json --log-level debug`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         startServer,
}

// loadConfig reads the config named by --config and applies --log-level.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootCmdPersistentFlags.LogLevel != "" {
		cfg.LogLevel = rootCmdPersistentFlags.LogLevel
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

func Execute() error {
	return rootCmd.Execute()
}
