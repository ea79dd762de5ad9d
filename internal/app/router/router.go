// Package router implements deterministic, keyword-scored intent
// classification that picks a specialist agent for an inbound chat
// message, with no LLM call in the hot path.
package router

import (
	"strings"

	"taskctl/internal/app/tracker"
)

// Category is one of the five intent buckets a message can classify into.
type Category string

const (
	CategoryDataAnalysis    Category = "DATA_ANALYSIS"
	CategoryCodeDevelopment Category = "CODE_DEVELOPMENT"
	CategoryResearch        Category = "RESEARCH"
	CategoryPlanning        Category = "PLANNING"
	CategoryGeneralChat     Category = "GENERAL_CHAT"
)

// scoreThreshold is the minimum category score to avoid falling back to
// GENERAL_CHAT.
const scoreThreshold = 0.1

// categoryKeywords is the keyword set each category scores a message
// against. Lowercase, single tokens; matched against the message's
// lowercased token stream.
var categoryKeywords = map[Category][]string{
	CategoryDataAnalysis: {
		"data", "csv", "chart", "dataset", "analyze", "analysis", "statistics",
		"metric", "dashboard", "pandas", "sql", "query", "visualize", "graph",
	},
	CategoryCodeDevelopment: {
		"code", "function", "bug", "implement", "refactor", "compile", "debug",
		"test", "class", "variable", "api", "deploy", "build", "repository", "git",
	},
	CategoryResearch: {
		"research", "paper", "study", "survey", "compare", "summarize", "literature",
		"source", "cite", "investigate", "evidence", "find",
	},
	CategoryPlanning: {
		"plan", "schedule", "roadmap", "milestone", "timeline", "stage", "task",
		"organize", "prioritize", "backlog",
	},
}

// Classification is Intent's typed output.
type Classification struct {
	Category   Category
	Confidence float64
}

// Intent scores message against every category's keyword set using the
// package default threshold. See IntentWithThreshold.
func Intent(message string) Classification {
	return IntentWithThreshold(message, scoreThreshold)
}

// IntentWithThreshold scores message against every category's keyword set
// and returns the winner. Score for category C = (matches of C's keywords
// in message) / (total tokens). Ties favor the first category in
// categoryOrder. Below threshold, the result falls back to GENERAL_CHAT
// with confidence 1.0. threshold lets a deployment tune classification
// sensitivity without a rebuild.
func IntentWithThreshold(message string, threshold float64) Classification {
	tokens := tokenize(message)
	if len(tokens) == 0 {
		return Classification{Category: CategoryGeneralChat, Confidence: 1.0}
	}

	tokenSet := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok]++
	}

	best := Classification{Category: CategoryGeneralChat, Confidence: 0}
	for _, category := range categoryOrder {
		matches := 0
		for _, kw := range categoryKeywords[category] {
			matches += tokenSet[kw]
		}
		score := float64(matches) / float64(len(tokens))
		if score > best.Confidence {
			best = Classification{Category: category, Confidence: score}
		}
	}

	if best.Confidence < threshold {
		return Classification{Category: CategoryGeneralChat, Confidence: 1.0}
	}
	return best
}

// categoryOrder fixes iteration order so ties are resolved deterministically.
var categoryOrder = []Category{
	CategoryDataAnalysis, CategoryCodeDevelopment, CategoryResearch, CategoryPlanning,
}

func tokenize(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	return fields
}

// RecordRouting records a "route" Activity and an AgentTransfer,
// attributing the transfer to whichever agent currently owns the
// conversation (from). Only the AGENT_TRANSFER trace line is emitted; no
// AGENT_ROUTING trace line is sent.
func RecordRouting(t *tracker.Tracker, from string, classification Classification) {
	t.RecordActivity(tracker.Activity{
		Agent:       string(classification.Category),
		ActionType:  "route",
		Description: "routed by intent classification",
		Success:     true,
	})
	confidence := classification.Confidence
	t.RecordTransfer(tracker.AgentTransfer{
		From:       from,
		To:         string(classification.Category),
		Reason:     "keyword_score",
		Confidence: &confidence,
	})
}
