package commands

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.trai.ch/prefab/internal/app"
	"go.trai.ch/prefab/internal/ui/style"
)

func (c *CLI) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <document>",
		Short: "List the instances of a document and whether they are up to date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := c.app.Show(cmd.Context(), app.ShowOptions{
				Config:   configFlag(cmd),
				Document: args[0],
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				_, _ = fmt.Fprintln(out, "no prefab instances")
				return nil
			}
			_, _ = fmt.Fprintln(out, renderInstances(infos))
			return nil
		},
	}
}

func renderInstances(infos []app.InstanceInfo) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(style.Border).
		Headers("OBJECT", "TEMPLATE", "SEED", "STATE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return style.Header
			}
			return style.Cell
		})
	for _, info := range infos {
		template := info.Template.String()
		if info.TemplatePath != "" {
			template = filepath.Base(info.TemplatePath)
		}
		t.Row(info.Object.String(), template, info.Seed.String(), style.State(string(info.State)))
	}
	return t.Render()
}
