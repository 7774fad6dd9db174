package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/difficulty"
	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/llm"
	"github.com/abhisek/skillforge/internal/logger"
	"github.com/abhisek/skillforge/internal/ui/theme"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a topic (no database)",
	Long: `Generate and answer questions at a fixed difficulty.

This is a stateless developer tool: no database, no XP and no ladder.
Useful for checking question quality against a provider.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("topic", "t", catalog.AllTopics, "Topic ID or \"all\"")
	previewCmd.Flags().String("level", "easy", "Difficulty: easy, medium, hard or expert")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
}

func runPreview(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	levelVal, _ := cmd.Flags().GetString("level")
	count, _ := cmd.Flags().GetInt("count")

	level, err := difficulty.ParseLevel(strings.ToLower(levelVal))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, nil, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	cat := catalog.Default()
	if !cat.Contains(topic) {
		return fmt.Errorf("unknown topic %q", topic)
	}
	gw := generation.New(provider, cat, generation.Config{Timeout: cfg.GenerationTimeout}, generation.WithLogger(log))

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprintf(out, "Topic: %s  ·  Level: %s\nGenerating %d questions...\n\n", topic, level, count)

	var correct int
	var prior []string
	for i := 1; i <= count; i++ {
		q, err := gw.RequestQuestion(ctx, topic, level, generation.Avoiding(prior))
		if err != nil {
			fmt.Fprintf(out, "Question %d: generation failed: %v\n\n", i, err)
			continue
		}
		prior = append(prior, q.Prompt)

		fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("Question %d/%d  ·  %s  ·  %s", i, count, q.Topic, q.Kind)))
		fmt.Fprintln(out, q.Prompt)
		for j, ch := range options(q) {
			fmt.Fprintf(out, "  %d) %s\n", j+1, ch)
		}

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprintln(out, "(skipped)")
			fmt.Fprintln(out)
			continue
		}
		if q.Check(resolveChoice(q, answer)) {
			correct++
			fmt.Fprintln(out, theme.Correct.Render("Correct!"))
		} else {
			fmt.Fprintf(out, "%s Answer: %s\n", theme.Incorrect.Render("Wrong."), q.CorrectAnswer)
		}
		if q.Explanation != "" {
			fmt.Fprintf(out, "Explanation: %s\n", q.Explanation)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Summary: %d/%d correct\n", correct, count)
	return nil
}
