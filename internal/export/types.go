// Package export renders transcripts into downloadable Markdown and PDF
// documents.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
)

// Document is the transcript content assembled for export.
type Document struct {
	TranscriptID   int64
	RecordingStart *time.Time
	MeetingType    string
	Summary        string
	Content        string
	Participants   []string
	Projects       []string
	Clients        []string
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrUnsupportedFormat indicates the requested format is not md or pdf.
	ErrUnsupportedFormat = errors.New("export unsupported format")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
