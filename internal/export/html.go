package export

import (
	"fmt"
	"html"
	"strings"
)

// buildHTML renders the transcript as a print-ready HTML page for the PDF
// pipeline.
func buildHTML(doc Document) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
@page { size: letter; margin: 0.75in; }
body { font-family: Georgia, serif; font-size: 11pt; line-height: 1.5; color: #1a1a1a; }
h1 { font-size: 20pt; border-bottom: 2px solid #1a1a1a; padding-bottom: 8px; }
h2 { font-size: 14pt; margin-top: 24px; }
.meta { color: #555; font-size: 10pt; margin-bottom: 16px; }
.meta dt { font-weight: bold; display: inline; }
.meta dd { display: inline; margin: 0 12px 0 4px; }
pre { white-space: pre-wrap; font-family: inherit; }
</style>
</head>
<body>
`)

	fmt.Fprintf(&b, "<h1>Transcript %d</h1>\n<dl class=\"meta\">\n", doc.TranscriptID)
	if doc.RecordingStart != nil {
		fmt.Fprintf(&b, "<dt>Date</dt><dd>%s</dd>\n", html.EscapeString(doc.RecordingStart.Format("2006-01-02 15:04 MST")))
	}
	if doc.MeetingType != "" {
		fmt.Fprintf(&b, "<dt>Meeting Type</dt><dd>%s</dd>\n", html.EscapeString(doc.MeetingType))
	}
	if len(doc.Participants) > 0 {
		fmt.Fprintf(&b, "<dt>Participants</dt><dd>%s</dd>\n", html.EscapeString(strings.Join(doc.Participants, ", ")))
	}
	if len(doc.Projects) > 0 {
		fmt.Fprintf(&b, "<dt>Projects</dt><dd>%s</dd>\n", html.EscapeString(strings.Join(doc.Projects, ", ")))
	}
	if len(doc.Clients) > 0 {
		fmt.Fprintf(&b, "<dt>Clients</dt><dd>%s</dd>\n", html.EscapeString(strings.Join(doc.Clients, ", ")))
	}
	b.WriteString("</dl>\n")

	b.WriteString("<h2>Summary</h2>\n<pre>")
	b.WriteString(html.EscapeString(strings.TrimSpace(doc.Summary)))
	b.WriteString("</pre>\n")

	b.WriteString("<h2>Content</h2>\n<pre>")
	b.WriteString(html.EscapeString(strings.TrimSpace(doc.Content)))
	b.WriteString("</pre>\n")

	b.WriteString("</body>\n</html>\n")
	return b.String()
}
