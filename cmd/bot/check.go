package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"remindbot/internal/config"
)

func newCheckCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and list reminder profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewManager(*cfgPath).Parse()
			if err != nil {
				return fmt.Errorf("load %s: %w", *cfgPath, err)
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return writeCheck(cmd.OutOrStdout(), cfg)
		},
	}
}

func writeCheck(w io.Writer, cfg *config.Config) error {
	fmt.Fprintf(w, "chat_id:   %d\n", cfg.Telegram.ChatID)
	fmt.Fprintf(w, "provider:  %s (batch %d)\n", cfg.Random.ProviderName(), cfg.Random.Batch())
	fmt.Fprintf(w, "storage:   %s\n", cfg.Storage.DriverName())
	fmt.Fprintf(w, "hide_text: %t\n\n", cfg.HideText)

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tINTERVAL (MIN)\tMESSAGES")
	for _, r := range cfg.Reminders {
		fmt.Fprintf(tw, "%s\t%d-%d\t%s\n", r.Name, r.Interval[0], r.Interval[1], strings.Join(r.Messages, "; "))
	}
	return tw.Flush()
}
