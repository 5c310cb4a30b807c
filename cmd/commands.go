package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fxops/tradeshell/core/shell"
)

// commandsCmd lists the shell's fixed vocabulary.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Show the allowed command vocabulary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		for _, info := range shell.Commands() {
			marker := "shell-only"
			if info.Pipeline {
				marker = "pipeline"
			}
			fmt.Fprintf(w, "%-10s%-12s%s\n", info.Name, marker, info.Summary)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
