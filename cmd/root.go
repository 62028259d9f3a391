// Package cmd contains the pagedesk CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/pagedesk/internal/build"
	"github.com/shaharia-lab/pagedesk/internal/config"
)

// Execute loads the configuration, builds the command tree and runs it.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:     "pagedesk",
		Short:   "Content moderation and notification service",
		Long:    "Pagedesk manages page revisions through a moderation workflow and notifies moderators and submitters by email.",
		Version: build.String(),
	}

	rootCmd.AddCommand(NewServeCmd(cfg))
	rootCmd.AddCommand(NewNotifyCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
