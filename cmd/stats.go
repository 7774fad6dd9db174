package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillforge/internal/catalog"
	"github.com/abhisek/skillforge/internal/leaderboard"
	"github.com/abhisek/skillforge/internal/report"
	"github.com/abhisek/skillforge/internal/store"
	"github.com/abhisek/skillforge/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show XP, recent quizzes and leaderboards",
	RunE:  runStats,
}

var statsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sessions, leaderboard and LLM usage to a spreadsheet",
	RunE:  runStatsExport,
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 10, "Rows per section")
	statsCmd.Flags().StringP("topic", "t", "", "Leaderboard topic, or \"all\" for mixed runs; every board when empty")

	statsExportCmd.Flags().String("xlsx", "", "Output workbook path")
	statsExportCmd.Flags().Int("limit", 1000, "Maximum sessions and leaderboard rows")
	_ = statsExportCmd.MarkFlagRequired("xlsx")

	statsCmd.AddCommand(statsExportCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	topicFlag, _ := cmd.Flags().GetString("topic")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	ledger := s.Ledger()

	xp, err := ledger.TotalXP(ctx, cfg.User)
	if err != nil {
		return fmt.Errorf("total xp: %w", err)
	}
	answered, correct, err := ledger.AttemptCounts(ctx, cfg.User)
	if err != nil {
		return fmt.Errorf("attempt counts: %w", err)
	}
	fmt.Fprintln(out, theme.Title.Render("Progress for "+cfg.User))
	fmt.Fprintf(out, "XP:        %s\n", theme.XP.Render(fmt.Sprintf("%d", xp)))
	fmt.Fprintf(out, "Answered:  %d (%d correct)\n", answered, correct)

	sessions, err := ledger.QueryAnalytics(ctx, store.QueryOpts{Limit: limit})
	if err != nil {
		return fmt.Errorf("query sessions: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Subtitle.Render("Recent quizzes"))
	if len(sessions) == 0 {
		fmt.Fprintln(out, "  none yet")
	}
	for _, r := range sessions {
		fmt.Fprintf(out, "  %-16s  %-10s  %-22s  %2d/%-2d  %5.1f%%  %-6s  %4ds\n",
			r.At.Local().Format("2006-01-02 15:04"), truncate(r.User, 10), truncate(r.Topic, 22),
			r.CorrectAnswers, r.QuestionsAnswered, r.AccuracyPercent, r.Difficulty, r.TimeTakenSeconds)
	}

	topics := []string{topicFlag}
	if topicFlag == "" {
		topics = boardTopics()
	}
	for _, topic := range topics {
		entries, err := ledger.TopLeaderboard(ctx, topic, limit)
		if err != nil {
			return fmt.Errorf("leaderboard %s: %w", topic, err)
		}
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Subtitle.Render("Leaderboard · "+topic))
		for i, e := range entries {
			fmt.Fprintf(out, "  %2d. %-16s  %5.1f%%  %4ds\n", i+1, truncate(e.User, 16), e.AccuracyPercent, e.TimeTakenSeconds)
		}
	}

	if cfg.RedisURL != "" {
		if err := printSharedBoards(ctx, out, cfg.RedisURL, topics, limit); err != nil {
			fmt.Fprintln(out, theme.Warning.Render("shared leaderboard unavailable: "+err.Error()))
		}
	}
	return nil
}

// boardTopics lists every leaderboard: one per catalog topic, then the
// board for runs that mixed topics.
func boardTopics() []string {
	var ids []string
	for _, t := range catalog.Default().Topics() {
		ids = append(ids, t.ID)
	}
	return append(ids, catalog.AllTopics)
}

// printSharedBoards shows the Redis-backed standings shared across
// machines.
func printSharedBoards(ctx context.Context, out io.Writer, url string, topics []string, limit int) error {
	client, err := leaderboard.Connect(url)
	if err != nil {
		return err
	}
	defer client.Close()
	board := leaderboard.New(client, "")

	xp, err := board.TopXP(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Subtitle.Render("Shared XP ranking"))
	for _, s := range xp {
		fmt.Fprintf(out, "  %2d. %-16s  %6d XP\n", s.Rank, truncate(s.User, 16), s.XP)
	}
	for _, topic := range topics {
		standings, err := board.Top(ctx, topic, limit)
		if err != nil {
			return err
		}
		if len(standings) == 0 {
			continue
		}
		fmt.Fprintln(out, theme.Subtitle.Render("Shared leaderboard · "+topic))
		for _, s := range standings {
			fmt.Fprintf(out, "  %2d. %-16s  %5.1f%%  %4ds\n", s.Rank, truncate(s.User, 16), s.AccuracyPercent, s.TimeTakenSeconds)
		}
	}
	return nil
}

func runStatsExport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("xlsx")
	limit, _ := cmd.Flags().GetInt("limit")
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return fmt.Errorf("export path %q must end in .xlsx", path)
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	var d report.Data
	if d.Sessions, err = s.Ledger().QueryAnalytics(ctx, store.QueryOpts{Limit: limit}); err != nil {
		return fmt.Errorf("query sessions: %w", err)
	}
	for _, topic := range boardTopics() {
		entries, err := s.Ledger().TopLeaderboard(ctx, topic, limit)
		if err != nil {
			return fmt.Errorf("leaderboard %s: %w", topic, err)
		}
		d.Leaderboard = append(d.Leaderboard, entries...)
	}
	if d.Usage, err = s.EventRepo().LLMUsageByPurpose(ctx); err != nil {
		return fmt.Errorf("query usage: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(f, d); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sessions and %d leaderboard rows to %s\n", len(d.Sessions), len(d.Leaderboard), path)
	return nil
}
