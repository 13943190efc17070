package export

import (
	"strings"
	"testing"
	"time"
)

func testDocument() Document {
	start := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return Document{
		TranscriptID:   42,
		RecordingStart: &start,
		MeetingType:    "standup",
		Summary:        "Topic: Quarterly Planning\nDiscussed the Q2 roadmap.",
		Content:        "Dana: let's begin.\nLee: agreed.",
		Participants:   []string{"dana@acme.io", "lee@acme.io"},
		Projects:       []string{"Atlas"},
		Clients:        []string{"Acme"},
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(testDocument())

	for _, want := range []string{
		"# Transcript 42",
		"**Date:** 2026-03-14 10:30 UTC",
		"**Meeting Type:** standup",
		"**Participants:** dana@acme.io, lee@acme.io",
		"**Projects:** Atlas",
		"**Clients:** Acme",
		"## Summary",
		"Discussed the Q2 roadmap.",
		"## Content",
		"Lee: agreed.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBuildMarkdownOmitsEmptyMetadata(t *testing.T) {
	md := BuildMarkdown(Document{TranscriptID: 7})

	for _, absent := range []string{"**Date:**", "**Meeting Type:**", "**Participants:**", "**Projects:**", "**Clients:**"} {
		if strings.Contains(md, absent) {
			t.Errorf("markdown should omit %q:\n%s", absent, md)
		}
	}
	if !strings.Contains(md, "_No summary available._") {
		t.Errorf("markdown missing summary placeholder:\n%s", md)
	}
	if !strings.Contains(md, "_No transcript content available._") {
		t.Errorf("markdown missing content placeholder:\n%s", md)
	}
}

func TestExportMarkdown(t *testing.T) {
	s := NewService()

	result, err := s.Export(testDocument(), FormatMarkdown)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Filename != "transcript-42.md" {
		t.Errorf("filename = %q, want transcript-42.md", result.Filename)
	}
	if result.MimeType != "text/markdown; charset=utf-8" {
		t.Errorf("mime type = %q", result.MimeType)
	}
	if !strings.Contains(string(result.Data), "# Transcript 42") {
		t.Errorf("data missing heading")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	s := NewService()

	if _, err := s.Export(testDocument(), Format("docx")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestBuildHTMLEscapes(t *testing.T) {
	doc := testDocument()
	doc.Summary = "<script>alert(1)</script>"

	html := buildHTML(doc)
	if strings.Contains(html, "<script>") {
		t.Fatal("summary not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Fatal("expected escaped summary")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"transcript-42", "transcript-42"},
		{"weekly sync / team", "weekly-sync--team"},
		{"", "transcript"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b&c")
	if got != "a%20b%26c" {
		t.Fatalf("encoded = %q, want a%%20b%%26c", got)
	}
}
