package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/exam-tutor/internal/progress"
	"github.com/p-n-ai/exam-tutor/internal/report"
)

func TestWrite(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(40 * time.Minute)

	p := progress.New()
	p.QuestionsAnswered = 4
	p.CorrectAnswers = 3
	p.TopicsCovered.Add("domain_2_malware")
	p.SessionsCompleted = []progress.SessionRecord{{ID: "s-1", StartedAt: start, EndedAt: &end}}
	p.QuizHistory = []progress.QuizResult{{Timestamp: end, Domain: "domain_1", Correct: 1, Total: 3, Score: 100.0 / 3}}
	p.WeakAreas = []string{"domain_1"}

	var buf bytes.Buffer
	if err := report.Write(&buf, "alice", p); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	want := []string{report.SheetSummary, report.SheetTopics, report.SheetSessions, report.SheetQuizzes}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}

	cells := []struct {
		sheet, cell, want string
	}{
		{report.SheetSummary, "B2", "alice"},
		{report.SheetSummary, "B3", "4"},
		{report.SheetSummary, "B5", "75.0%"},
		{report.SheetSummary, "B10", "domain_1"},
		{report.SheetTopics, "A2", "domain_2_malware"},
		{report.SheetSessions, "A2", "s-1"},
		{report.SheetSessions, "D2", "40"},
		{report.SheetQuizzes, "E2", "33%"},
	}
	for _, c := range cells {
		v, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s) error = %v", c.sheet, c.cell, err)
		}
		if v != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, v, c.want)
		}
	}
}

func TestWrite_EmptyProgress(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Write(&buf, "new-student", progress.New()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(report.SheetSummary, "B5"); v != "N/A" {
		t.Errorf("Accuracy = %q, want N/A", v)
	}
}
