package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillforge/internal/dialogue"
	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/outcome"
	"github.com/abhisek/skillforge/internal/ui/components"
	"github.com/abhisek/skillforge/internal/ui/theme"
)

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Practice a sales negotiation against an AI counterpart",
	Long: `Pitch a product to a simulated customer persona until you close, walk
away, or run out of time. Type /end to finish and get scored.`,
	RunE: runNegotiate,
}

func init() {
	negotiateCmd.Flags().StringP("mode", "m", string(dialogue.Standard), "short (5m), standard (10m) or extended (15m)")
	negotiateCmd.Flags().StringP("persona", "p", "", "Persona ID (see 'skillforge topics'); random when empty")
	negotiateCmd.Flags().String("product", "", "What you are selling")
	_ = negotiateCmd.MarkFlagRequired("product")
}

func runNegotiate(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	personaID, _ := cmd.Flags().GetString("persona")
	product, _ := cmd.Flags().GetString("product")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	eval := outcome.New(a.gateway, a.log)
	c := dialogue.New(a.gateway, eval, a.ledger, dialogue.WithLogger(a.log))

	err = c.Start(ctx, dialogue.StartRequest{
		Mode:      dialogue.Mode(mode),
		PersonaID: personaID,
		Product:   product,
		User:      a.cfg.User,
	})
	if err != nil {
		return err
	}

	s := c.Snapshot()
	fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("Negotiating with %s", s.Persona.Name)))
	fmt.Fprintln(out, theme.Hint.Render(s.Persona.Profile))
	fmt.Fprintln(out, components.TimeBar{Remaining: s.TimeRemainingSeconds, Total: s.Mode.Duration(), Width: 30}.View())
	for _, m := range s.Transcript {
		printMessage(out, s.Persona, m)
	}

	res, err := converse(ctx, out, c, readLines(cmd.InOrStdin()))
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

// converse relays lines to the counterpart until the session resolves.
func converse(ctx context.Context, out io.Writer, c *dialogue.Controller, input <-chan string) (outcome.Result, error) {
	poll := time.NewTicker(250 * time.Millisecond)
	defer poll.Stop()
	fmt.Fprint(out, "> ")
	for {
		select {
		case <-ctx.Done():
			return outcome.Result{}, ctx.Err()
		case line, ok := <-input:
			text := strings.TrimSpace(line)
			if !ok || text == "/end" || c.Snapshot().Phase != dialogue.PhaseActive {
				return finish(ctx, out, c)
			}
			if text == "" {
				fmt.Fprint(out, "> ")
				continue
			}
			turn, err := c.Send(ctx, text)
			if lostToTimer(err) {
				return finish(ctx, out, c)
			}
			if err != nil {
				return outcome.Result{}, err
			}
			s := c.Snapshot()
			printMessage(out, s.Persona, turn.Reply)
			if turn.Fallback {
				fmt.Fprintln(out, theme.Warning.Render("(connection trouble, the reply was improvised)"))
			}
			if turn.Result != nil {
				return *turn.Result, nil
			}
			fmt.Fprintln(out, components.TimeBar{Remaining: s.TimeRemainingSeconds, Total: s.Mode.Duration(), Width: 30}.View())
			fmt.Fprint(out, "> ")
		case <-poll.C:
			if res, ok := c.Result(); ok {
				fmt.Fprintln(out, theme.Warning.Render("\nTime's up!"))
				return res, nil
			}
		}
	}
}

// finish returns the session result, evaluating it first if needed.
func finish(ctx context.Context, out io.Writer, c *dialogue.Controller) (outcome.Result, error) {
	if res, ok := c.Result(); ok {
		return res, nil
	}
	fmt.Fprintln(out, theme.Subtitle.Render("Evaluating your negotiation..."))
	return c.End(ctx)
}

func printMessage(out io.Writer, p dialogue.Persona, m generation.Message) {
	if m.Author == generation.Operator {
		fmt.Fprintf(out, "%s %s\n", theme.Operator.Render("You:"), m.Text)
		return
	}
	fmt.Fprintf(out, "%s %s\n", theme.Counterpart.Render(p.Name+":"), m.Text)
}

func printResult(out io.Writer, res outcome.Result) {
	fmt.Fprintln(out)
	if res.Won {
		fmt.Fprintln(out, theme.Correct.Render("Deal closed!"))
	} else {
		fmt.Fprintln(out, theme.Incorrect.Render("No deal this time."))
	}
	fmt.Fprintf(out, "Score:   %d / 100\n", res.Score)
	fmt.Fprintf(out, "Reward:  %s\n", theme.XP.Render(fmt.Sprintf("+%d XP", res.RewardPoints)))
	fmt.Fprintln(out, theme.Card.Render(res.Feedback))
	if len(res.Strengths) > 0 {
		fmt.Fprintln(out, theme.Subtitle.Render("Strengths"))
		for _, s := range res.Strengths {
			fmt.Fprintf(out, "  + %s\n", s)
		}
	}
	if len(res.Improvements) > 0 {
		fmt.Fprintln(out, theme.Subtitle.Render("To improve"))
		for _, s := range res.Improvements {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
}
