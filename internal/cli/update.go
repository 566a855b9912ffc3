package cli

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <project_path>",
	Short: "Incrementally reindex a project (equivalent to index without --force)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return indexProject(args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
