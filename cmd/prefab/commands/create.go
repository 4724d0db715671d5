package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/prefab/internal/app"
)

func (c *CLI) newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <document> <object> <template-path>",
		Short: "Save an object as a new template and link it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := c.app.Create(cmd.Context(), app.CreateOptions{
				Config:   configFlag(cmd),
				Document: args[0],
				Object:   args[1],
				Path:     args[2],
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), template)
			return nil
		},
	}
}

func (c *CLI) newReplaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace <document> <object> <template>",
		Short: "Replace an object with a new instance of a template",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetString("seed")
			created, err := c.app.Replace(cmd.Context(), app.ReplaceOptions{
				Config:   configFlag(cmd),
				Document: args[0],
				Object:   args[1],
				Template: args[2],
				Seed:     seed,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), created)
			return nil
		},
	}
	cmd.Flags().StringP("seed", "s", "", "Seed for the new instance (default: random)")
	return cmd
}
