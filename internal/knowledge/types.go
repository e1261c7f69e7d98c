package knowledge

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Domain is one of the five exam domains loaded from content/domains.
type Domain struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Weight int    `yaml:"weight"` // percent of the exam
	Topics Topics `yaml:"topics"`

	topicIndex map[string]int
}

// WeightLabel renders the exam weight as shown to students, e.g. "22%".
func (d Domain) WeightLabel() string {
	return strconv.Itoa(d.Weight) + "%"
}

// TopicIDs returns topic identifiers in document order.
func (d Domain) TopicIDs() []string {
	ids := make([]string, len(d.Topics))
	for i, t := range d.Topics {
		ids[i] = t.ID
	}
	return ids
}

func (d Domain) topic(id string) (Topic, bool) {
	i, ok := d.topicIndex[id]
	if !ok {
		return Topic{}, false
	}
	return d.Topics[i], true
}

// Topic is a subtopic of a domain. Description and KeyPoints are always
// present; everything else is an ordered list of named detail lists.
type Topic struct {
	ID             string   `yaml:"-"`
	Description    string   `yaml:"description"`
	Details        Details  `yaml:"details"`
	KeyPoints      []string `yaml:"key_points"`
	ScriptedLesson string   `yaml:"scripted_lesson"`
}

// HasScriptedLesson reports whether a verbatim lesson is stored for the topic.
func (t Topic) HasScriptedLesson() bool {
	return t.ScriptedLesson != ""
}

// TopicSummary is the (id, description) pair returned by ListTopics.
type TopicSummary struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Detail is a named list such as "control_types" or "categories".
type Detail struct {
	Name  string
	Items []string
}

// Topics decodes a YAML mapping of topic id to topic, keeping document order.
type Topics []Topic

func (ts *Topics) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: topics must be a mapping", node.Line)
	}
	out := make(Topics, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var t Topic
		if err := node.Content[i+1].Decode(&t); err != nil {
			return fmt.Errorf("topic %q: %w", node.Content[i].Value, err)
		}
		t.ID = node.Content[i].Value
		out = append(out, t)
	}
	*ts = out
	return nil
}

// Details decodes a YAML mapping of list name to items, keeping document order.
type Details []Detail

func (ds *Details) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: details must be a mapping", node.Line)
	}
	out := make(Details, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var items []string
		if err := node.Content[i+1].Decode(&items); err != nil {
			return fmt.Errorf("detail %q: %w", node.Content[i].Value, err)
		}
		out = append(out, Detail{Name: node.Content[i].Value, Items: items})
	}
	*ds = out
	return nil
}

// Option is one labeled answer choice.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Text  string `yaml:"text" json:"text"`
}

// Question is a multiple-choice practice question.
type Question struct {
	ID          string   `yaml:"id" json:"id"`
	Domain      string   `yaml:"-" json:"domain"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Options     []Option `yaml:"options" json:"options"`
	Correct     string   `yaml:"correct" json:"correct"`
	Explanation string   `yaml:"explanation" json:"explanation"`
}

// QuizDomain summarizes the question pool of one domain.
type QuizDomain struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type questionFile struct {
	Domain    string     `yaml:"domain"`
	Questions []Question `yaml:"questions"`
}
