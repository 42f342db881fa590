// cmd/symptom-session/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool
	userAge    int
	userGender string

	rootCmd = &cobra.Command{
		Use:   "symptom-session",
		Short: "Interactive symptom checker backed by the inference service",
		Long: `symptom-session collects symptoms, suggests completions while you type,
and submits them to the inference service for ranked disease predictions.`,
		SilenceUsage: true,
	}

	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Start an interactive symptom session",
		Args:  cobra.NoArgs,
		RunE:  runSessionCommand,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [symptom...]",
		Short: "Analyze a list of symptoms once and print the predictions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyzeCommand,
	}

	suggestCmd = &cobra.Command{
		Use:   "suggest [prefix]",
		Short: "Print autocomplete suggestions for a prefix",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuggestCommand,
	}

	doctorsCmd = &cobra.Command{
		Use:   "doctors [disease]",
		Short: "List recommended doctors for a disease",
		Args:  cobra.ExactArgs(1),
		RunE:  runDoctorsCommand,
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check the inference service health",
		Args:  cobra.NoArgs,
		RunE:  runHealthCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (defaults to configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the classified result as JSON")
	analyzeCmd.Flags().IntVar(&userAge, "age", 0, "patient age (1-120)")
	analyzeCmd.Flags().StringVar(&userGender, "gender", "", "patient gender (male, female, other)")
	doctorsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the doctor records as JSON")
	healthCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the service status as JSON")

	rootCmd.AddCommand(sessionCmd, analyzeCmd, suggestCmd, doctorsCmd, healthCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
