// Package progress tracks what a student has studied and persists it.
package progress

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
)

// SessionRecord is one tutoring session.
type SessionRecord struct {
	ID                string     `json:"session_id"`
	StartedAt         time.Time  `json:"start_time"`
	EndedAt           *time.Time `json:"end_time,omitempty"`
	PreviousSessionID string     `json:"previous_session_id,omitempty"`
}

// QuizResult is one graded quiz as kept in the quiz history.
type QuizResult struct {
	Timestamp time.Time            `json:"timestamp"`
	Domain    string               `json:"domain,omitempty"`
	Score     float64              `json:"score"`
	Correct   int                  `json:"correct"`
	Total     int                  `json:"total"`
	Answers   []string             `json:"answers,omitempty"`
	Questions []knowledge.Question `json:"questions"`
}

// TopicSet holds covered topic keys ("domain_2_malware"). It is stored as a
// sorted JSON list.
type TopicSet map[string]struct{}

func (s TopicSet) Add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

func (s TopicSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the members in sorted order.
func (s TopicSet) Keys() []string {
	keys := lo.Keys(s)
	slices.Sort(keys)
	return keys
}

func (s TopicSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

func (s *TopicSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	set := make(TopicSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	*s = set
	return nil
}

// TopicKey joins a domain and topic id into a covered-topic key.
func TopicKey(domainID, topicID string) string {
	return domainID + "_" + topicID
}

// StudentProgress is the durable record for one student. The in-progress
// session is never persisted.
type StudentProgress struct {
	QuestionsAnswered int             `json:"questions_answered"`
	CorrectAnswers    int             `json:"correct_answers"`
	TopicsCovered     TopicSet        `json:"topics_covered"`
	SessionsCompleted []SessionRecord `json:"sessions_completed"`
	LastSession       *SessionRecord  `json:"last_session"`
	CurrentDomain     string          `json:"current_domain"`
	CurrentTopic      string          `json:"current_topic"`
	QuizHistory       []QuizResult    `json:"quiz_history"`
	WeakAreas         []string        `json:"weak_areas"`
	StrongAreas       []string        `json:"strong_areas"`
	UpdatedAt         time.Time       `json:"updated_at"`

	CurrentSession *SessionRecord `json:"-"`
}

// New returns the all-empty record a first-time student starts from.
func New() *StudentProgress {
	return &StudentProgress{
		TopicsCovered:     make(TopicSet),
		SessionsCompleted: []SessionRecord{},
		QuizHistory:       []QuizResult{},
		WeakAreas:         []string{},
		StrongAreas:       []string{},
	}
}

// normalize fills nil collections left by older or partial records.
func (p *StudentProgress) normalize() {
	if p.TopicsCovered == nil {
		p.TopicsCovered = make(TopicSet)
	}
	if p.SessionsCompleted == nil {
		p.SessionsCompleted = []SessionRecord{}
	}
	if p.QuizHistory == nil {
		p.QuizHistory = []QuizResult{}
	}
	if p.WeakAreas == nil {
		p.WeakAreas = []string{}
	}
	if p.StrongAreas == nil {
		p.StrongAreas = []string{}
	}
}

// Clone returns a deep copy.
func (p *StudentProgress) Clone() *StudentProgress {
	c := *p
	c.TopicsCovered = make(TopicSet, len(p.TopicsCovered))
	for k := range p.TopicsCovered {
		c.TopicsCovered[k] = struct{}{}
	}
	c.SessionsCompleted = slices.Clone(p.SessionsCompleted)
	c.QuizHistory = slices.Clone(p.QuizHistory)
	c.WeakAreas = slices.Clone(p.WeakAreas)
	c.StrongAreas = slices.Clone(p.StrongAreas)
	if p.LastSession != nil {
		ls := *p.LastSession
		c.LastSession = &ls
	}
	if p.CurrentSession != nil {
		cs := *p.CurrentSession
		c.CurrentSession = &cs
	}
	return &c
}

// Accuracy is correct/answered in percent, or nil before any answer.
func (p *StudentProgress) Accuracy() *float64 {
	if p.QuestionsAnswered == 0 {
		return nil
	}
	a := 100 * float64(p.CorrectAnswers) / float64(p.QuestionsAnswered)
	return &a
}

func encode(p *StudentProgress) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func decode(data []byte) (*StudentProgress, error) {
	p := New()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	p.normalize()
	return p, nil
}
