package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/bagger"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bagger",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bagger version %s\n", strings.TrimSpace(bagger.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
