package export

import (
	"fmt"
	"strings"
)

// BuildMarkdown renders a transcript document as Markdown. Empty metadata
// lines are omitted rather than rendered blank.
func BuildMarkdown(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Transcript %d\n\n", doc.TranscriptID)

	if doc.RecordingStart != nil {
		fmt.Fprintf(&b, "**Date:** %s\n", doc.RecordingStart.Format("2006-01-02 15:04 MST"))
	}
	if doc.MeetingType != "" {
		fmt.Fprintf(&b, "**Meeting Type:** %s\n", doc.MeetingType)
	}
	if len(doc.Participants) > 0 {
		fmt.Fprintf(&b, "**Participants:** %s\n", strings.Join(doc.Participants, ", "))
	}
	if len(doc.Projects) > 0 {
		fmt.Fprintf(&b, "**Projects:** %s\n", strings.Join(doc.Projects, ", "))
	}
	if len(doc.Clients) > 0 {
		fmt.Fprintf(&b, "**Clients:** %s\n", strings.Join(doc.Clients, ", "))
	}

	b.WriteString("\n## Summary\n\n")
	if strings.TrimSpace(doc.Summary) != "" {
		b.WriteString(strings.TrimSpace(doc.Summary))
	} else {
		b.WriteString("_No summary available._")
	}

	b.WriteString("\n\n## Content\n\n")
	if strings.TrimSpace(doc.Content) != "" {
		b.WriteString(strings.TrimSpace(doc.Content))
	} else {
		b.WriteString("_No transcript content available._")
	}
	b.WriteString("\n")

	return b.String()
}
