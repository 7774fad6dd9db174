// Package report exports progress data to spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/skillforge/internal/reward"
	"github.com/abhisek/skillforge/internal/store"
)

// Sheet names, in workbook order.
const (
	SheetSessions    = "Sessions"
	SheetLeaderboard = "Leaderboard"
	SheetUsage       = "LLM Usage"
)

// Data is everything a workbook contains.
type Data struct {
	Sessions    []store.AnalyticsRecord
	Leaderboard []reward.LeaderboardEntry
	Usage       []store.UsageStats
}

var (
	sessionHeader     = []any{"Time", "Session", "User", "Topic", "Answered", "Correct", "Accuracy %", "Seconds", "Difficulty"}
	leaderboardHeader = []any{"Rank", "User", "Topic", "Accuracy %", "Seconds", "Answered", "Difficulty", "Time"}
	usageHeader       = []any{"Purpose", "Calls", "Input tokens", "Output tokens", "Avg ms"}
)

// WriteXLSX renders d as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with a single "Sheet1".
	if err := f.SetSheetName("Sheet1", SheetSessions); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetLeaderboard, SheetUsage} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	rows := make([][]any, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		rows = append(rows, []any{
			s.At.UTC().Format("2006-01-02 15:04:05"), s.SessionID, s.User, s.Topic,
			s.QuestionsAnswered, s.CorrectAnswers, s.AccuracyPercent, s.TimeTakenSeconds, s.Difficulty.String(),
		})
	}
	if err := writeTable(f, SheetSessions, sessionHeader, rows); err != nil {
		return err
	}

	rows = rows[:0]
	for i, e := range d.Leaderboard {
		rows = append(rows, []any{
			i + 1, e.User, e.Topic, e.AccuracyPercent, e.TimeTakenSeconds, e.QuestionsAnswered,
			e.Difficulty.String(), e.At.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	if err := writeTable(f, SheetLeaderboard, leaderboardHeader, rows); err != nil {
		return err
	}

	rows = rows[:0]
	for _, u := range d.Usage {
		rows = append(rows, []any{u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs})
	}
	if err := writeTable(f, SheetUsage, usageHeader, rows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any) error {
	for i, row := range append([][]any{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
