package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/inspect-labs/inspectflow/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inspectflow",
	Short: "inspectflow machine-vision inspection CLI",
	Long:  "inspectflow — runs declarative machine-vision inspection solutions.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			level = slog.LevelError
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress all output except errors")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("inspectflow version %s\n", version))

	rootCmd.AddCommand(cli.NewRunCmd())
	rootCmd.AddCommand(cli.NewValidateCmd())
	rootCmd.AddCommand(cli.NewToolsCmd())
}
