package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclay/scribe/agent"
)

var (
	version = "0.1.0"
	cfgFile string
	model   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scribe",
		Short: "Agent that reviews and builds web projects through an LLM",
		Long: `Scribe points a language model at a project directory and lets it
work through a task by listing, reading, and writing files. In review
mode every proposed change is staged for your approval before it
touches disk; in build mode changes and shell commands apply
immediately.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/scribe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use (default is the provider's default)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "review <path> <task>",
		Short: "Propose changes to a project, gated behind per-file approval",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, agent.ModeReview, args[0], args[1])
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "build <path> <task>",
		Short: "Build or modify a project with immediate writes and shell access",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, agent.ModeBuild, args[0], args[1])
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scribe version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// validateTaskArgs rejects bad input before any core machinery is
// built.
func validateTaskArgs(path, task, apiKey string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("project path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path %s is not a directory", path)
	}
	if strings.TrimSpace(task) == "" {
		return fmt.Errorf("task description is empty")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key configured: set SCRIBE_API_KEY or add api_key to the config file")
	}
	return nil
}
