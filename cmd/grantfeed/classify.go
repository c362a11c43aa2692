package main

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/pevans/grantfeed/classify"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classify <text>",
		Short:   "Show the category and amount tier of a listing text",
		Example: `  grantfeed classify "Community arts fund, awards up to $25,000"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			result := classify.Classify(strings.Join(args, " "))
			style := classify.StyleFor(result.Category)

			label := lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(style.Color)).
				Render(style.Icon + " " + style.Label)

			out := c.OutOrStdout()
			lipgloss.Fprintln(out, label)
			fmt.Fprintf(out, "category: %s\n", result.Category)
			fmt.Fprintf(out, "tier:     %s\n", result.Tier)
			if result.HasAmount {
				fmt.Fprintf(out, "amount:   %.0f\n", result.Amount)
			}
			return nil
		},
	}
}
