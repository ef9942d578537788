package domain

import (
	"path/filepath"
	"strings"
)

// SourceType classifies a study document by its file extension,
// not by how its text was extracted.
type SourceType string

const (
	SourceTypePDF   SourceType = "pdf"
	SourceTypeImage SourceType = "image"
	SourceTypeText  SourceType = "text"
)

// IsValid checks if the source type is one of the supported values
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypePDF, SourceTypeImage, SourceTypeText:
		return true
	}
	return false
}

var extensionTypes = map[string]SourceType{
	".pdf":  SourceTypePDF,
	".png":  SourceTypeImage,
	".jpg":  SourceTypeImage,
	".jpeg": SourceTypeImage,
	".webp": SourceTypeImage,
	".txt":  SourceTypeText,
	".md":   SourceTypeText,
}

// SourceTypeForPath derives the source type from a file extension.
// Unsupported extensions yield an invalid zero value.
func SourceTypeForPath(path string) SourceType {
	ext := strings.ToLower(filepath.Ext(path))
	return extensionTypes[ext]
}

// RawDocument is a source document with its extracted text, ready for chunking.
type RawDocument struct {
	Path string
	Text string
	Type SourceType
}

// FileName returns the base name of the document path.
func (d RawDocument) FileName() string {
	return filepath.Base(d.Path)
}

// Fragment is a bounded overlapping substring of a document's extracted text.
// Fragments are ordered by Index within a source; each ingestion run mints
// new fragments, they are not unique across runs.
type Fragment struct {
	Text     string
	SourceID string
	Index    int
}

// DocumentInfo describes a file available in the documents directory.
type DocumentInfo struct {
	Name      string     `json:"name"`
	SizeBytes int64      `json:"size_bytes"`
	Type      SourceType `json:"type"`
}

// IndexedSource describes a source present in the vector index.
type IndexedSource struct {
	SourceID  string     `json:"source_id"`
	FileName  string     `json:"file_name"`
	Type      SourceType `json:"type"`
	Fragments int        `json:"fragments"`
}
