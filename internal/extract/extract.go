// Package extract turns source files into plain text ready for chunking.
// It supports PDF documents, plain text files and images, the latter
// transcribed through a vision model.
package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/studyloop/mentor/internal/domain"
	"github.com/studyloop/mentor/internal/openai"
)

// OCRClient transcribes the text content of an image.
type OCRClient interface {
	ExtractImageText(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Service loads documents from disk and extracts their text.
type Service struct {
	ocr OCRClient
}

// NewService creates an extraction service. The OCR client may be nil, in
// which case image files are rejected.
func NewService(ocr OCRClient) *Service {
	return &Service{ocr: ocr}
}

// Load extracts every supported file directly under dir. Files that fail
// extraction are logged and skipped so one broken document does not abort
// the batch.
func (s *Service) Load(ctx context.Context, dir string) ([]domain.RawDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoDocumentsDir
		}
		return nil, fmt.Errorf("failed to read documents dir: %w", err)
	}

	var docs []domain.RawDocument
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !domain.SourceTypeForPath(entry.Name()).IsValid() {
			continue
		}

		doc, err := s.LoadFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Printf("extract: skipping %s: %v", entry.Name(), err)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// ListDocuments returns metadata for the supported files under dir without
// extracting them.
func (s *Service) ListDocuments(dir string) ([]domain.DocumentInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoDocumentsDir
		}
		return nil, fmt.Errorf("failed to read documents dir: %w", err)
	}

	var docs []domain.DocumentInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		sourceType := domain.SourceTypeForPath(entry.Name())
		if !sourceType.IsValid() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		docs = append(docs, domain.DocumentInfo{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
			Type:      sourceType,
		})
	}

	return docs, nil
}

// LoadFile extracts the text of a single file. Unsupported extensions and
// extraction failures surface as errors instead of empty documents.
func (s *Service) LoadFile(ctx context.Context, path string) (domain.RawDocument, error) {
	sourceType := domain.SourceTypeForPath(path)
	if !sourceType.IsValid() {
		return domain.RawDocument{}, domain.ErrUnsupportedFileType
	}

	var (
		text string
		err  error
	)
	switch sourceType {
	case domain.SourceTypePDF:
		text, err = extractPDFFile(path)
	case domain.SourceTypeImage:
		text, err = s.extractImageFile(ctx, path)
	default:
		text, err = extractTextFile(path)
	}
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
	}

	return domain.RawDocument{
		Path: path,
		Text: strings.TrimSpace(text),
		Type: sourceType,
	}, nil
}

// ExtractUpload extracts text from in-memory file contents, typically an
// HTTP upload. The source type is derived from the file name.
func (s *Service) ExtractUpload(ctx context.Context, fileName string, data []byte) (domain.RawDocument, error) {
	sourceType := domain.SourceTypeForPath(fileName)
	if !sourceType.IsValid() {
		return domain.RawDocument{}, domain.ErrUnsupportedFileType
	}

	var (
		text string
		err  error
	)
	switch sourceType {
	case domain.SourceTypePDF:
		text, err = extractPDFBytes(data)
	case domain.SourceTypeImage:
		text, err = s.transcribeImage(ctx, fileName, data)
	default:
		text = string(data)
	}
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("failed to extract %s: %w", fileName, err)
	}

	return domain.RawDocument{
		Path: fileName,
		Text: strings.TrimSpace(text),
		Type: sourceType,
	}, nil
}

func extractTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Service) extractImageFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return s.transcribeImage(ctx, path, data)
}

func (s *Service) transcribeImage(ctx context.Context, name string, data []byte) (string, error) {
	if s.ocr == nil {
		return "", fmt.Errorf("no OCR client configured for %s", filepath.Base(name))
	}
	return s.ocr.ExtractImageText(ctx, data, openai.ImageMIMEType(filepath.Ext(name)))
}
