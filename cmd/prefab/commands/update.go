package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/prefab/internal/app"
)

func (c *CLI) newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [documents...]",
		Short: "Merge template changes into every instance of the documents",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			jobs, _ := cmd.Flags().GetInt("jobs")
			return c.app.Update(cmd.Context(), app.UpdateOptions{
				Config:    configFlag(cmd),
				Documents: args,
				DryRun:    dryRun,
				Jobs:      jobs,
			})
		},
	}
	cmd.Flags().BoolP("dry-run", "n", false, "Report what would change without saving documents")
	cmd.Flags().IntP("jobs", "j", 0, "Number of documents updated at once (default: number of CPUs)")
	return cmd
}
