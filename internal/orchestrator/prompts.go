package orchestrator

import (
	"fmt"
	"strings"
)

// buildResearchPrompt asks for background material on the topic.
func buildResearchPrompt(topic string) string {
	var sb strings.Builder
	sb.WriteString("# Research Task\n\n")
	sb.WriteString("Gather background material for an article.\n\n")
	sb.WriteString(fmt.Sprintf("**Topic**: %s\n\n", topic))
	sb.WriteString("Cover the key facts, recent developments, common questions, ")
	sb.WriteString("and notable figures or statistics. Output concise research notes, ")
	sb.WriteString("not prose intended for publication.\n")
	return sb.String()
}

// buildDraftPrompt asks for the initial long-form draft.
func buildDraftPrompt(topic, style, tone string, targetWords int, research string) string {
	var sb strings.Builder
	sb.WriteString("# Writing Task\n\n")
	sb.WriteString(fmt.Sprintf("Write an article on: %s\n\n", topic))

	sb.WriteString("## Requirements\n\n")
	if targetWords > 0 {
		sb.WriteString(fmt.Sprintf("- Target length: %d words\n", targetWords))
	}
	if style != "" {
		sb.WriteString(fmt.Sprintf("- Style: %s\n", style))
	}
	if tone != "" {
		sb.WriteString(fmt.Sprintf("- Tone: %s\n", tone))
	}
	sb.WriteString("- Use markdown with a title and section headings\n\n")

	if research != "" {
		sb.WriteString("## Research Notes\n\n")
		sb.WriteString(research)
		sb.WriteString("\n")
	}
	return sb.String()
}

// buildRefinePrompt asks for a revision of the previous draft using the
// evaluator's feedback. It always revises; it never starts over.
func buildRefinePrompt(topic, prevDraft, feedback string, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString("# Revision Task\n\n")
	sb.WriteString(fmt.Sprintf("Revise the draft below on: %s\n\n", topic))
	sb.WriteString("Keep what works. Do not start from scratch.\n\n")

	sb.WriteString("## Review Feedback\n\n")
	sb.WriteString(feedback)
	sb.WriteString("\n\n")

	if len(suggestions) > 0 {
		sb.WriteString("## Specific Changes\n\n")
		for i, s := range suggestions {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Current Draft\n\n")
	sb.WriteString(prevDraft)
	sb.WriteString("\n")
	return sb.String()
}
