package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for imgmirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgmirror",
		Short: "Mirror hosted media images into a static site",
		Long: `imgmirror rewrites the HTML pages of a static site so that images served
from a hosted media CDN are downloaded into the site itself.

Every <img> whose src starts with the media host prefix is fetched into
assets/images/<page>/<file> and its src is rewritten to that local path.
Pages are rewritten in place.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
