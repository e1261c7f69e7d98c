// Package knowledge holds the exam content: domains, topics and the practice
// question bank. Content is loaded once and never mutated afterwards.
package knowledge

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// DomainIDs are the five exam domains every catalog must define.
var DomainIDs = []string{"domain_1", "domain_2", "domain_3", "domain_4", "domain_5"}

// Catalog is the read-only knowledge store and question bank.
type Catalog struct {
	domains   []Domain
	index     map[string]int
	questions map[string][]Question
}

// NewCatalog validates domains and questions and builds the lookup indexes.
func NewCatalog(domains []Domain, questions map[string][]Question) (*Catalog, error) {
	c := &Catalog{
		domains:   append([]Domain(nil), domains...),
		index:     make(map[string]int, len(domains)),
		questions: make(map[string][]Question, len(questions)),
	}
	sort.SliceStable(c.domains, func(i, j int) bool { return c.domains[i].ID < c.domains[j].ID })

	var problems []string
	for i := range c.domains {
		d := &c.domains[i]
		if _, dup := c.index[d.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate domain %s", d.ID))
			continue
		}
		c.index[d.ID] = i
		problems = append(problems, indexTopics(d)...)
	}
	for _, id := range DomainIDs {
		if _, ok := c.index[id]; !ok {
			problems = append(problems, fmt.Sprintf("missing domain %s", id))
		}
	}

	seen := make(map[string]bool)
	for domainID, qs := range questions {
		if _, ok := c.index[domainID]; !ok {
			problems = append(problems, fmt.Sprintf("questions reference unknown domain %s", domainID))
			continue
		}
		for _, q := range qs {
			if seen[q.ID] {
				problems = append(problems, fmt.Sprintf("duplicate question id %s", q.ID))
			}
			seen[q.ID] = true
			problems = append(problems, validateQuestion(q)...)
		}
		c.questions[domainID] = append([]Question(nil), qs...)
	}

	if len(problems) > 0 {
		return nil, &IntegrityError{Problems: problems}
	}
	return c, nil
}

func indexTopics(d *Domain) []string {
	var problems []string
	d.topicIndex = make(map[string]int, len(d.Topics))
	for i, t := range d.Topics {
		if t.ID != NormalizeID(t.ID) {
			problems = append(problems, fmt.Sprintf("%s: topic id %q is not normalized", d.ID, t.ID))
		}
		if _, dup := d.topicIndex[t.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate topic %s", d.ID, t.ID))
			continue
		}
		if t.Description == "" {
			problems = append(problems, fmt.Sprintf("%s/%s: empty description", d.ID, t.ID))
		}
		d.topicIndex[t.ID] = i
	}
	return problems
}

// validateQuestion enforces single-letter, unique labels and a correct label
// that matches exactly one option.
func validateQuestion(q Question) []string {
	var problems []string
	labels := lo.Map(q.Options, func(o Option, _ int) string { return o.Label })
	for _, l := range labels {
		if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
			problems = append(problems, fmt.Sprintf("question %s: invalid option label %q", q.ID, l))
		}
	}
	if dups := lo.FindDuplicates(labels); len(dups) > 0 {
		problems = append(problems, fmt.Sprintf("question %s: duplicate option labels %v", q.ID, dups))
	}
	if n := lo.Count(labels, q.Correct); n != 1 {
		problems = append(problems, fmt.Sprintf("question %s: correct label %q matches %d options", q.ID, q.Correct, n))
	}
	return problems
}

// Domains returns every domain ordered by id.
func (c *Catalog) Domains() []Domain {
	return append([]Domain(nil), c.domains...)
}

// Domain resolves a (possibly spoken) domain identifier.
func (c *Catalog) Domain(id string) (Domain, error) {
	i, ok := c.index[normalizeDomainID(id)]
	if !ok {
		return Domain{}, &UnknownDomainError{ID: id, Valid: c.domainIDs()}
	}
	return c.domains[i], nil
}

// Topic resolves a topic within a domain.
func (c *Catalog) Topic(domainID, topicID string) (Domain, Topic, error) {
	d, err := c.Domain(domainID)
	if err != nil {
		return Domain{}, Topic{}, err
	}
	id := NormalizeID(topicID)
	t, ok := d.topic(id)
	if !ok {
		valid := d.TopicIDs()
		return Domain{}, Topic{}, &UnknownTopicError{
			Domain:      d.ID,
			ID:          topicID,
			Valid:       valid,
			Suggestions: suggest(id, valid),
		}
	}
	return d, t, nil
}

// ListTopics returns (id, description) pairs for a domain in document order.
func (c *Catalog) ListTopics(domainID string) (Domain, []TopicSummary, error) {
	d, err := c.Domain(domainID)
	if err != nil {
		return Domain{}, nil, err
	}
	out := lo.Map(d.Topics, func(t Topic, _ int) TopicSummary {
		return TopicSummary{ID: t.ID, Description: t.Description}
	})
	return d, out, nil
}

// Pool returns the questions for one domain.
func (c *Catalog) Pool(domainID string) ([]Question, error) {
	id := normalizeDomainID(domainID)
	qs, ok := c.questions[id]
	if !ok || len(qs) == 0 {
		return nil, &UnknownQuizDomainError{ID: domainID, Valid: c.quizDomainIDs()}
	}
	return append([]Question(nil), qs...), nil
}

// AllQuestions returns the combined pool in domain order.
func (c *Catalog) AllQuestions() []Question {
	var all []Question
	for _, id := range c.quizDomainIDs() {
		all = append(all, c.questions[id]...)
	}
	return all
}

// QuizDomains lists the domains that have questions and how many.
func (c *Catalog) QuizDomains() []QuizDomain {
	return lo.Map(c.quizDomainIDs(), func(id string, _ int) QuizDomain {
		return QuizDomain{ID: id, Name: c.domains[c.index[id]].Name, Count: len(c.questions[id])}
	})
}

func (c *Catalog) domainIDs() []string {
	return lo.Map(c.domains, func(d Domain, _ int) string { return d.ID })
}

func (c *Catalog) quizDomainIDs() []string {
	ids := lo.Keys(c.questions)
	sort.Strings(ids)
	return ids
}
