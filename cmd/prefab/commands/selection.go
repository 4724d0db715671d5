package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/prefab/internal/app"
)

func (c *CLI) newRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <document> <object>...",
		Short: "Discard overrides and re-instantiate instances from their templates",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Revert(cmd.Context(), app.SelectionOptions{
				Config:   configFlag(cmd),
				Document: args[0],
				Objects:  args[1:],
			})
		},
	}
}

func (c *CLI) newUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <document> <object>...",
		Short: "Detach instances from their templates, keeping their content",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Unlink(cmd.Context(), app.SelectionOptions{
				Config:   configFlag(cmd),
				Document: args[0],
				Objects:  args[1:],
			})
		},
	}
}
