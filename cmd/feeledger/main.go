package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // Asia/Kolkata on hosts without a zoneinfo database

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/config"
)

var (
	cfgFile string
	envFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "feeledger",
		Short: "School admission and fee ledger",
		Long: `feeledger keeps student admissions and fee payments in a Google spreadsheet
(or a local SQLite file) and serves them over a small JSON API.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/feeledger/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("store", "", "value store driver (sheets, sqlite)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))

	// Add commands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(countersCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	v := viper.GetViper()
	config.SetDefaults(v)

	// Set up config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		v.AddConfigPath(fmt.Sprintf("%s/.config/feeledger", home))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	if err := config.BindEnv(v); err != nil {
		return err
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if _, err := common.SetupLogger(v.GetString("logging.level"), v.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("feeledger version", "version", version)
		},
	}
}
