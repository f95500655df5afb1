package core

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// IngestService turns an uploaded document into corpus chunks for one
// namespace. Uploads only ever append; nothing is deduplicated or replaced.
type IngestService struct {
	store   CorpusStore
	window  int
	overlap int
}

// NewIngestService falls back to DefaultChunkWindow when window is zero or
// negative. Overlap is kept as given: zero is a valid setting and means
// consecutive chunks share no words. ChunkText rejects pairs that make no
// sense, so a negative overlap fails every ingest instead of being rewritten.
func NewIngestService(store CorpusStore, window, overlap int) *IngestService {
	if window <= 0 {
		window = DefaultChunkWindow
	}
	return &IngestService{
		store:   store,
		window:  window,
		overlap: overlap,
	}
}

// IngestDocument extracts text from the upload, chunks it, and appends the
// chunks to the namespace corpus. It returns the number of chunks added.
func (s *IngestService) IngestDocument(namespace Namespace, filename, contentType string, data []byte) (int, error) {
	text, err := ExtractText(filename, contentType, data)
	if err != nil {
		return 0, err
	}

	chunks, err := ChunkText(text, s.window, s.overlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	if err := s.store.InitCorpus(string(namespace)); err != nil {
		return 0, fmt.Errorf("%w: initializing corpus %s: %v", ErrStorage, namespace, err)
	}
	if err := s.store.AppendChunks(string(namespace), chunks); err != nil {
		return 0, fmt.Errorf("%w: appending to corpus %s: %v", ErrStorage, namespace, err)
	}

	return len(chunks), nil
}

// ExtractText picks an extractor from the content type, falling back to the
// filename extension for clients that send application/octet-stream.
func ExtractText(filename, contentType string, data []byte) (string, error) {
	name := strings.ToLower(filename)

	switch {
	case strings.Contains(contentType, "application/pdf") || strings.HasSuffix(name, ".pdf"):
		return extractPDFText(filename, data)
	case strings.HasPrefix(contentType, "text/") || strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".md"):
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrUnsupportedFormat, filename)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filename, contentType)
	}
}

func extractPDFText(filename string, data []byte) (string, error) {
	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s could not be parsed as PDF: %v", ErrUnsupportedFormat, filename, err)
	}

	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extracting text from %s: %v", ErrUnsupportedFormat, filename, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text from %s: %w", filename, err)
	}

	return buf.String(), nil
}
