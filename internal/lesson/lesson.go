// Package lesson renders knowledge topics into the text the tutor speaks.
package lesson

import (
	"errors"
	"fmt"
	"strings"

	"github.com/p-n-ai/exam-tutor/internal/knowledge"
)

// Mode selects how a topic is rendered.
type Mode string

const (
	ModeExplain  Mode = "explain"
	ModeTeach    Mode = "teach"
	ModeScripted Mode = "scripted"
)

const (
	explainItemLimit = 6
	teachItemLimit   = 5
)

// ErrNoScriptedLesson is returned by Scripted when the topic has no stored lesson.
var ErrNoScriptedLesson = errors.New("no scripted lesson")

// Render dispatches to the renderer for mode.
func Render(mode Mode, d knowledge.Domain, t knowledge.Topic) (string, error) {
	switch mode {
	case ModeExplain, "":
		return Explain(d, t), nil
	case ModeTeach:
		return Teach(d, t), nil
	case ModeScripted:
		return Scripted(d, t)
	default:
		return "", fmt.Errorf("unknown render mode %q", mode)
	}
}

// Explain renders the reference view of a topic: description, each detail
// list as a bullet block, then the key points.
func Explain(_ knowledge.Domain, t knowledge.Topic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 %s\n\n", knowledge.DisplayName(t.ID))
	fmt.Fprintf(&b, "%s\n\n", t.Description)

	for _, d := range t.Details {
		fmt.Fprintf(&b, "%s:\n", knowledge.DisplayName(d.Name))
		for _, item := range limit(d.Items, explainItemLimit) {
			fmt.Fprintf(&b, "• %s\n", item)
		}
		b.WriteString("\n")
	}

	if len(t.KeyPoints) > 0 {
		b.WriteString("🎯 Key Points:\n")
		for _, p := range t.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", p)
		}
	}
	return b.String()
}

// Teach renders the same content as Explain with classroom pacing.
func Teach(_ knowledge.Domain, t knowledge.Topic) string {
	spoken := strings.ReplaceAll(t.ID, "_", " ")

	var b strings.Builder
	fmt.Fprintf(&b, "📚 Today's Lesson: %s\n\n", knowledge.DisplayName(t.ID))
	fmt.Fprintf(&b, "Alright class, today we're going to cover %s. This is an important topic for your Security+ exam.\n\n", spoken)
	fmt.Fprintf(&b, "Let me start with the fundamentals. %s\n\n", t.Description)
	b.WriteString("Let me pause here for a moment so you can write that down.\n\n")

	for i, d := range t.Details {
		name := strings.ReplaceAll(d.Name, "_", " ")
		if i == 0 {
			fmt.Fprintf(&b, "Now, let me walk you through the %s you need to know:\n\n", name)
		} else {
			fmt.Fprintf(&b, "Next, let's look at the %s:\n\n", name)
		}
		for n, item := range limit(d.Items, teachItemLimit) {
			fmt.Fprintf(&b, "%d. %s\n", n+1, item)
		}
		b.WriteString("\nTake a moment to note these down. These are exam favorites.\n\n")
	}

	if len(t.KeyPoints) > 0 {
		b.WriteString("🎯 Here are the critical points you absolutely must remember:\n\n")
		for _, p := range t.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", p)
		}
		b.WriteString("\nThese often appear on the exam, so highlight them in your notes.\n\n")
	}

	b.WriteString("Now, before we move on - do you have any questions about what we've covered so far?")
	return b.String()
}

// Scripted returns the stored lesson verbatim under a short header.
func Scripted(d knowledge.Domain, t knowledge.Topic) (string, error) {
	if !t.HasScriptedLesson() {
		return "", ErrNoScriptedLesson
	}
	return fmt.Sprintf("📚 Scripted Lesson: %s\n\nDomain: %s\n\n%s", knowledge.DisplayName(t.ID), d.Name, t.ScriptedLesson), nil
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
