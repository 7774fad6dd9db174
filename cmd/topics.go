package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/dialogue"
	"github.com/abhisek/skillforge/internal/ui/theme"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List quiz topics and negotiation personas",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, theme.Title.Render("Quiz topics"))
		fmt.Fprintf(out, "  %-22s  %s\n", catalog.AllTopics, "a random topic for every question")
		for _, t := range catalog.Default().Topics() {
			fmt.Fprintf(out, "  %-22s  %s\n", t.ID, t.Title)
			if len(t.KeyConcepts) > 0 {
				fmt.Fprintf(out, "  %-22s  %s\n", "", theme.Hint.Render(strings.Join(t.KeyConcepts, ", ")))
			}
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Title.Render("Negotiation personas"))
		for _, p := range dialogue.Personas() {
			fmt.Fprintf(out, "  %-12s  %s\n", p.ID, p.Name)
			fmt.Fprintf(out, "  %-12s  %s\n", "", theme.Hint.Render(p.Profile))
		}
	},
}
