package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "eventdesk server - event management admin console backend",
		Long: `eventdesk serves the admin console API for managing events.

Administrators sign in with email and password and receive a bearer token.
With it they create, edit, publish and cancel events and manage each event's
ordered content blocks. Published events are readable without authentication.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (optional, environment variables take precedence)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	serve := newServeCommand()
	// Running the binary without a subcommand starts the server.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newAdminCommand())
	root.AddCommand(newHealthcheckCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the root command. It is called once by main.main.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the dotenv file, then the optional YAML file and the
// environment, then applies the logging flags.
func loadConfig() (config.Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// loadEnvFile never overrides variables already set in the process
// environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
