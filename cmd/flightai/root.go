package main

import (
	"fmt"
	"os"

	"github.com/chris/flightai/config"
	"github.com/chris/flightai/internal/logger"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "flightai",
	Short: "FlightAI LLM demos",
	Long:  `A streaming chatbot, a website brochure generator and the FlightAI airline assistant.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("provider") {
			cfg.LLMProvider, _ = cmd.Flags().GetString("provider")
		}
		if cmd.Flags().Changed("model") {
			cfg.LLMModel, _ = cmd.Flags().GetString("model")
		}
		logger.Setup(cfg.LogLevel)
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider (openai, ollama, anthropic, gemini)")
	rootCmd.PersistentFlags().String("model", "", "model name")
}
