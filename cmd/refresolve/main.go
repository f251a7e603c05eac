// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the refresolve CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// verbose routes per-candidate detail and retry notices to stderr.
var verbose bool

// rootCmd is the base command for the refresolve CLI.
var rootCmd = &cobra.Command{
	Use:   "refresolve",
	Short: "Resolve bibliography references to verified source URLs",
	Long: `refresolve parses bibliography records, searches the web for candidate
URLs, validates them by fetching their content, and records a Primary,
Secondary and Tertiary URL for every reference.

Records live in a plain-text file, one reference per line. Finalizing a
reference is always an explicit, confirmed step.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 && verbose {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		httputil.Configure(retryConfig())
		if verbose {
			httputil.RetryLog = os.Stderr
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./refresolve.yaml or ~/.config/refresolve/refresolve.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory holding API key files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print candidate tables and retry notices")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("refresolve")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "refresolve"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("REFRESOLVE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
