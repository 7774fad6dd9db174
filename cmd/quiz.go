package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/fsm"
	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/quiz"
	"github.com/abhisek/skillforge/internal/ui/components"
	"github.com/abhisek/skillforge/internal/ui/theme"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take an adaptive quiz",
	Long: `Answer generated questions whose difficulty follows your accuracy.

In timed mode each question has 30 seconds; the clock pauses while the next
question is being generated. Type q to finish early.`,
	RunE: runQuiz,
}

func init() {
	quizCmd.Flags().StringP("topic", "t", catalog.AllTopics, "Topic ID, or \"all\" for a random topic per question")
	quizCmd.Flags().StringP("mode", "m", string(quiz.Practice), "practice or timed")
	quizCmd.Flags().IntP("questions", "n", 5, "Number of questions")
	quizCmd.Flags().Int("max-advance-retries", 3, "Retries of a failed next-question request before giving up")
}

func runQuiz(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	mode, _ := cmd.Flags().GetString("mode")
	total, _ := cmd.Flags().GetInt("questions")
	retries, _ := cmd.Flags().GetInt("max-advance-retries")
	if total < 1 {
		return fmt.Errorf("--questions must be at least 1")
	}

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
	c := quiz.New(a.gateway, a.catalog, a.ledger, quiz.WithLogger(a.log))

	fmt.Fprintln(out, theme.Subtitle.Render("Generating your first question..."))
	if err := c.Start(ctx, quiz.StartRequest{TopicFilter: topic, Mode: quiz.Mode(mode), User: a.cfg.User}); err != nil {
		return err
	}

	input := readLines(cmd.InOrStdin())
	for {
		s := c.Snapshot()
		printQuestion(out, s, total)

		quit, err := collectAnswer(ctx, out, c, input)
		if err != nil {
			return err
		}
		if quit {
			break
		}
		printAnswerFeedback(out, c.Snapshot())

		if c.Snapshot().QuestionsAnswered >= total {
			break
		}
		if err := advance(ctx, out, c, retries); err != nil {
			return err
		}
	}

	done, err := c.End(ctx)
	if err != nil {
		return err
	}
	printCompletion(out, c.Snapshot(), done)
	return nil
}

// collectAnswer waits for a typed answer or for the countdown to submit
// on its own. It reports true when the learner asked to quit.
func collectAnswer(ctx context.Context, out io.Writer, c *quiz.Controller, input <-chan string) (bool, error) {
	poll := time.NewTicker(250 * time.Millisecond)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case line, ok := <-input:
			if !ok || strings.EqualFold(strings.TrimSpace(line), "q") {
				return true, nil
			}
			if c.Snapshot().Phase != quiz.PhaseActive {
				return false, nil
			}
			err := c.StageAnswer(resolveChoice(c.Snapshot().Question, line))
			if err == nil {
				err = c.SubmitAnswer(ctx)
			}
			if lostToTimer(err) {
				fmt.Fprintln(out, theme.Warning.Render("\nTime's up!"))
				return false, nil
			}
			return false, err
		case <-poll.C:
			s := c.Snapshot()
			if s.Phase != quiz.PhaseActive {
				fmt.Fprintln(out, theme.Warning.Render("\nTime's up!"))
				return false, nil
			}
		}
	}
}

// lostToTimer reports whether err comes from a phase guard, which happens
// when the countdown submitted between reading the phase and answering.
func lostToTimer(err error) bool {
	var iv *fsm.InvariantViolation
	return errors.As(err, &iv)
}

// advance requests the next question, retrying while the controller keeps
// the session in feedback.
func advance(ctx context.Context, out io.Writer, c *quiz.Controller, retries int) error {
	for attempt := 0; ; attempt++ {
		fmt.Fprintln(out, theme.Subtitle.Render("Generating the next question..."))
		if err := c.Advance(ctx); err != nil {
			return err
		}
		s := c.Snapshot()
		if s.Phase == quiz.PhaseActive {
			return nil
		}
		fmt.Fprintln(out, theme.Warning.Render("Question generation failed: "+s.LastError.Error()))
		if attempt >= retries {
			return fmt.Errorf("giving up after %d failed attempts: %w", attempt+1, s.LastError)
		}
	}
}

// options lists what the learner picks from: the choices of a multiple
// choice question, True and False for a true/false one, nothing otherwise.
func options(q *generation.Question) []string {
	if q == nil {
		return nil
	}
	if q.Kind == generation.TrueFalse {
		return []string{"True", "False"}
	}
	return q.Choices
}

// resolveChoice maps "2" to the second option of a choice question.
func resolveChoice(q *generation.Question, line string) string {
	line = strings.TrimSpace(line)
	opts := options(q)
	if len(opts) == 0 {
		return line
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1]
	}
	for _, ch := range opts {
		if strings.EqualFold(ch, line) {
			return ch
		}
	}
	return line
}

func printQuestion(out io.Writer, s quiz.Session, total int) {
	q := s.Question
	header := fmt.Sprintf("Question %d of %d  ·  %s  ·  %s", s.QuestionsAnswered+1, total, q.Topic, s.Difficulty)
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Title.Render(header))
	if s.Mode == quiz.Timed {
		fmt.Fprintln(out, components.TimeBar{Remaining: s.TimeRemainingSeconds, Total: quiz.QuestionSeconds, Width: 30}.View())
	}
	fmt.Fprintln(out, theme.Card.Render(q.Prompt))
	for i, ch := range options(q) {
		fmt.Fprintf(out, "  %d) %s\n", i+1, ch)
	}
	fmt.Fprint(out, "> ")
}

func printAnswerFeedback(out io.Writer, s quiz.Session) {
	q := s.Question
	if s.LastCorrect {
		fmt.Fprintf(out, "%s %s\n", theme.Correct.Render("Correct!"), theme.XP.Render(fmt.Sprintf("+%d XP", s.LastXP)))
	} else {
		fmt.Fprintf(out, "%s The answer was %q.\n", theme.Incorrect.Render("Not quite."), q.CorrectAnswer)
	}
	if q.Explanation != "" {
		fmt.Fprintln(out, theme.Hint.Render(q.Explanation))
	}
}

func printCompletion(out io.Writer, s quiz.Session, done quiz.Completion) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Title.Render("Quiz complete"))
	fmt.Fprintf(out, "Score:       %d / %d (%.0f%%)\n", s.CorrectCount, s.QuestionsAnswered, done.AccuracyPercent)
	fmt.Fprintf(out, "Difficulty:  %s\n", done.Difficulty)
	fmt.Fprintf(out, "Time:        %s\n", components.Clock(s.AccumulatedTimeSeconds))
	fmt.Fprintf(out, "Completion:  %s\n", theme.XP.Render(fmt.Sprintf("+%d XP", done.XP)))
	fmt.Fprintf(out, "Total:       %s\n", theme.XP.Render(fmt.Sprintf("%d XP", s.TotalXP)))
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Card.Render(done.Feedback))
}
