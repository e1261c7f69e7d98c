// Package report exports a student's progress as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/exam-tutor/internal/progress"
)

// Sheet names, in workbook order.
const (
	SheetSummary  = "Summary"
	SheetTopics   = "Topics"
	SheetSessions = "Sessions"
	SheetQuizzes  = "Quizzes"
)

const timeLayout = "2006-01-02 15:04"

// Write renders p as an xlsx workbook to w.
func Write(w io.Writer, studentID string, p *progress.StudentProgress) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetTopics, SheetSessions, SheetQuizzes} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summaryRows(studentID, p)},
		{SheetTopics, topicRows(p)},
		{SheetSessions, sessionRows(p)},
		{SheetQuizzes, quizRows(p)},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", "E", 22)
}

func summaryRows(studentID string, p *progress.StudentProgress) [][]any {
	accuracy := "N/A"
	if a := p.Accuracy(); a != nil {
		accuracy = fmt.Sprintf("%.1f%%", *a)
	}
	return [][]any{
		{"Field", "Value"},
		{"Student", studentID},
		{"Questions Answered", p.QuestionsAnswered},
		{"Correct Answers", p.CorrectAnswers},
		{"Accuracy", accuracy},
		{"Topics Covered", len(p.TopicsCovered)},
		{"Sessions Completed", len(p.SessionsCompleted)},
		{"Current Domain", p.CurrentDomain},
		{"Current Topic", p.CurrentTopic},
		{"Weak Areas", strings.Join(p.WeakAreas, ", ")},
		{"Strong Areas", strings.Join(p.StrongAreas, ", ")},
		{"Updated At", formatTime(p.UpdatedAt)},
	}
}

func topicRows(p *progress.StudentProgress) [][]any {
	rows := [][]any{{"Topic"}}
	for _, key := range p.TopicsCovered.Keys() {
		rows = append(rows, []any{key})
	}
	return rows
}

func sessionRows(p *progress.StudentProgress) [][]any {
	rows := [][]any{{"Session", "Started", "Ended", "Minutes", "Previous Session"}}
	for _, s := range p.SessionsCompleted {
		ended, minutes := "", ""
		if s.EndedAt != nil {
			ended = formatTime(*s.EndedAt)
			minutes = fmt.Sprintf("%.0f", s.EndedAt.Sub(s.StartedAt).Minutes())
		}
		rows = append(rows, []any{s.ID, formatTime(s.StartedAt), ended, minutes, s.PreviousSessionID})
	}
	return rows
}

func quizRows(p *progress.StudentProgress) [][]any {
	rows := [][]any{{"Taken", "Domain", "Correct", "Total", "Score"}}
	for _, q := range p.QuizHistory {
		rows = append(rows, []any{formatTime(q.Timestamp), q.Domain, q.Correct, q.Total, fmt.Sprintf("%.0f%%", q.Score)})
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
