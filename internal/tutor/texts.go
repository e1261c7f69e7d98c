package tutor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/progress"
)

// Exam facts quoted by ExamOverview.
const (
	examCode         = "SY0-701"
	examQuestions    = 90
	examMinutes      = 90
	examPassingScore = 750
)

// ExamOverview describes the exam format and the weight of each domain.
func (c *Conversation) ExamOverview() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CompTIA Security+ (%s) Exam:\n\n", examCode)
	fmt.Fprintf(&b, "• %d questions (multiple choice and performance-based)\n", examQuestions)
	fmt.Fprintf(&b, "• %d minutes duration\n", examMinutes)
	fmt.Fprintf(&b, "• Passing Score: %d (scale 100-900)\n\n", examPassingScore)
	b.WriteString("Domains:\n")
	for _, d := range c.catalog.Domains() {
		fmt.Fprintf(&b, "• %s - %s\n", d.Name, d.WeightLabel())
	}
	return b.String()
}

// StudyTips returns general exam advice. The high-weight domains are read
// from the catalog.
func (c *Conversation) StudyTips() string {
	domains := c.catalog.Domains()
	sort.SliceStable(domains, func(i, j int) bool { return domains[i].Weight > domains[j].Weight })

	focus := "high-weight domains"
	if len(domains) >= 2 {
		focus = fmt.Sprintf("high-weight domains (%s and %s)", domains[0].WeightLabel(), domains[1].WeightLabel())
	}

	tips := []string{
		"Understand concepts, don't just memorize",
		"Use acronyms (CIA, AAA, etc.)",
		"Practice hands-on labs",
		"Focus on " + focus,
		"Read questions carefully on exam day",
		"Watch for key words: BEST, MOST, FIRST",
		"Performance-based questions come first",
		"Flag difficult questions and return later",
	}

	var b strings.Builder
	b.WriteString("🎓 Security+ Study Tips:\n\n")
	for i, tip := range tips {
		fmt.Fprintf(&b, "%d. %s\n", i+1, tip)
	}
	return b.String()
}

// ListDomains lists every domain with its exam weight.
func (c *Conversation) ListDomains() string {
	var b strings.Builder
	b.WriteString("Security+ Domains:\n\n")
	for _, d := range c.catalog.Domains() {
		fmt.Fprintf(&b, "• %s: %s (%s)\n", d.ID, d.Name, d.WeightLabel())
	}
	return b.String()
}

// ListQuizDomains lists the domains that have practice questions.
func (c *Conversation) ListQuizDomains() string {
	var b strings.Builder
	b.WriteString("Available Quiz Domains:\n\n")
	for _, qd := range c.catalog.QuizDomains() {
		fmt.Fprintf(&b, "• %s: %s (%d questions)\n", qd.ID, qd.Name, qd.Count)
	}
	b.WriteString("\nUse quiz_domain(domain, num_questions) to start a domain-specific quiz!")
	return b.String()
}

// Progress renders the progress snapshot.
func (c *Conversation) Progress() string {
	snap := c.tracker.Snapshot()

	var b strings.Builder
	b.WriteString("📈 Your Progress:\n\n")
	fmt.Fprintf(&b, "Questions Answered: %d\n", snap.QuestionsAnswered)
	fmt.Fprintf(&b, "Correct: %d\n", snap.CorrectAnswers)
	fmt.Fprintf(&b, "Accuracy: %s\n", snap.AccuracyLabel())
	fmt.Fprintf(&b, "\nTopics Covered: %d\n", snap.TopicsCovered)
	writeAreas(&b, snap)
	return b.String()
}

// SessionHistory renders completed sessions, most recent first.
func (c *Conversation) SessionHistory() string {
	snap := c.tracker.Snapshot()
	if snap.SessionsCompleted == 0 {
		return "This is your first session! Let's get started."
	}

	var b strings.Builder
	b.WriteString("📚 Your Learning History:\n\n")
	fmt.Fprintf(&b, "Total Sessions: %d\n", snap.SessionsCompleted)
	fmt.Fprintf(&b, "Topics Covered: %d\n", snap.TopicsCovered)
	fmt.Fprintf(&b, "Questions Answered: %d\n", snap.QuestionsAnswered)
	if snap.Accuracy != nil {
		fmt.Fprintf(&b, "Overall Accuracy: %s\n", snap.AccuracyLabel())
	}
	writeAreas(&b, snap)

	b.WriteString("\nRecent Sessions:\n")
	for _, s := range snap.RecentSessions {
		fmt.Fprintf(&b, "• Session on %s\n", s.StartedAt.Format("2006-01-02"))
	}
	return b.String()
}

func writeAreas(b *strings.Builder, snap progress.Snapshot) {
	if len(snap.WeakAreas) > 0 {
		fmt.Fprintf(b, "\nAreas to Review: %s\n", strings.Join(snap.WeakAreas, ", "))
	}
	if len(snap.StrongAreas) > 0 {
		fmt.Fprintf(b, "Strong Areas: %s\n", strings.Join(snap.StrongAreas, ", "))
	}
}

func topicListText(d knowledge.Domain, topics []knowledge.TopicSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n", d.Name, d.WeightLabel())
	for _, t := range topics {
		fmt.Fprintf(&b, "• %s: %s\n", t.ID, t.Description)
	}
	return b.String()
}
