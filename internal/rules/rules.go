// Package rules implements auto-share rule evaluation for transcripts.
package rules

import (
	"strings"

	"minutes/api/internal/store"
)

// TypeSummaryTopicExact matches when a transcript's summary topic equals the
// rule value, case-insensitively.
const TypeSummaryTopicExact = "summary_topic_exact"

// ExtractTopic derives the topic of a transcript summary. A line starting
// with "Topic:" wins; otherwise the first non-empty line is the topic.
func ExtractTopic(summary string) string {
	var first string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "Topic:"); ok {
			return strings.TrimSpace(rest)
		}
		if first == "" {
			first = line
		}
	}
	return first
}

// Matches reports whether an enabled rule matches the given summary. The
// comparison is exact after topic extraction: a rule value that merely
// appears inside the topic does not match.
func Matches(rule store.TranscriptRule, summary string) bool {
	if !rule.Enabled || rule.Type != TypeSummaryTopicExact {
		return false
	}
	topic := ExtractTopic(summary)
	if topic == "" {
		return false
	}
	return strings.EqualFold(topic, strings.TrimSpace(rule.Value))
}
