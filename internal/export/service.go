package export

import "fmt"

// Service renders transcript documents in the supported formats.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Export renders doc in the requested format.
func (s *Service) Export(doc Document, format Format) (*Result, error) {
	title := fmt.Sprintf("transcript-%d", doc.TranscriptID)

	switch format {
	case FormatMarkdown:
		return &Result{
			Data:     []byte(BuildMarkdown(doc)),
			Filename: sanitizeFilename(title) + ".md",
			MimeType: "text/markdown; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(buildHTML(doc), title)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
