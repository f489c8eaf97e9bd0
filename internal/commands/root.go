// Package commands implements the alarmd command-line interface.
package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/alarmd/internal/config"
)

// Options holds the persistent flags shared by every subcommand.
type Options struct {
	ConfigDir string
	LogLevel  string
}

// NewRootCmd creates the alarmd root command with its subcommands attached.
func NewRootCmd(version string) *cobra.Command {
	opts := &Options{}
	root := &cobra.Command{
		Use:   "alarmd",
		Short: "Alarm instance lifecycle service",
		Long: `alarmd owns every scheduled occurrence of an alarm: it persists instances,
advances them through LOW_NOTIFICATION, HIGH_NOTIFICATION, FIRED, SNOOZED,
MISSED and DISMISSED, and keeps exactly one wake registered per live instance.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigDir, "config", ".", "directory containing "+config.FileName)
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(NewServeCmd(opts))
	return root
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: config.ParseLogLevel(level),
	}))
}
