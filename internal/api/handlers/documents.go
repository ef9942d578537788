package handlers

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/studyloop/mentor/internal/api"
	"github.com/studyloop/mentor/internal/domain"
)

// maxUploadBytes bounds a single uploaded document.
const maxUploadBytes = 25 << 20

type DocumentLister interface {
	ListDocuments(dir string) ([]domain.DocumentInfo, error)
}

type UploadExtractor interface {
	ExtractUpload(ctx context.Context, fileName string, data []byte) (domain.RawDocument, error)
}

type IngestService interface {
	Ingest(ctx context.Context, docs []domain.RawDocument) (int, error)
	IngestDir(ctx context.Context, dir string) (int, error)
	ListIndexed(ctx context.Context) ([]domain.IndexedSource, error)
}

// UploadArchiver stores the raw bytes of an upload in object storage.
// Optional; a nil archiver disables archival.
type UploadArchiver interface {
	ArchiveUpload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

type DocumentsHandler struct {
	lister    DocumentLister
	extractor UploadExtractor
	ingest    IngestService
	archiver  UploadArchiver
	docsDir   string
}

func NewDocumentsHandler(lister DocumentLister, extractor UploadExtractor, ingest IngestService, archiver UploadArchiver, docsDir string) *DocumentsHandler {
	return &DocumentsHandler{
		lister:    lister,
		extractor: extractor,
		ingest:    ingest,
		archiver:  archiver,
		docsDir:   docsDir,
	}
}

type DocumentResponse struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Type      string `json:"type"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Count     int                `json:"count"`
}

type IndexedSourceResponse struct {
	SourceID  string `json:"source_id"`
	FileName  string `json:"file_name"`
	Type      string `json:"type"`
	Fragments int    `json:"fragments"`
}

type IndexedListResponse struct {
	Sources []IndexedSourceResponse `json:"sources"`
	Count   int                     `json:"count"`
}

type IngestResponse struct {
	IndexedFragments int `json:"indexed_fragments"`
}

type UploadResponse struct {
	FileName         string `json:"file_name"`
	IndexedFragments int    `json:"indexed_fragments"`
	ArchiveKey       string `json:"archive_key,omitempty"`
}

// List returns the supported documents present in the docs directory.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.lister.ListDocuments(h.docsDir)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		responses[i] = DocumentResponse{
			Name:      d.Name,
			SizeBytes: d.SizeBytes,
			Type:      string(d.Type),
		}
	}

	api.Success(w, http.StatusOK, DocumentListResponse{Documents: responses, Count: len(responses)})
}

// ListIndexed returns the sources currently present in the vector index.
func (h *DocumentsHandler) ListIndexed(w http.ResponseWriter, r *http.Request) {
	sources, err := h.ingest.ListIndexed(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]IndexedSourceResponse, len(sources))
	for i, s := range sources {
		responses[i] = IndexedSourceResponse{
			SourceID:  s.SourceID,
			FileName:  s.FileName,
			Type:      string(s.Type),
			Fragments: s.Fragments,
		}
	}

	api.Success(w, http.StatusOK, IndexedListResponse{Sources: responses, Count: len(responses)})
}

// Ingest indexes every supported document in the configured docs directory.
func (h *DocumentsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	count, err := h.ingest.IngestDir(r.Context(), h.docsDir)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IngestResponse{IndexedFragments: count})
}

// Upload extracts and indexes a single uploaded document. The file is saved
// into the docs directory so it survives re-ingests and shows up in listings;
// the raw bytes are archived to object storage when an archiver is configured.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		api.Error(w, http.StatusBadRequest, "invalid file name")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		api.Error(w, http.StatusRequestEntityTooLarge, "uploaded file too large")
		return
	}

	doc, err := h.extractor.ExtractUpload(r.Context(), fileName, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.saveUpload(fileName, data); err != nil {
		api.HandleError(w, err)
		return
	}

	count, err := h.ingest.Ingest(r.Context(), []domain.RawDocument{doc})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := UploadResponse{FileName: fileName, IndexedFragments: count}
	if h.archiver != nil {
		key, err := h.archiver.ArchiveUpload(r.Context(), fileName, uploadContentType(header), data)
		if err != nil {
			// Archival is best effort; the document is already indexed.
			log.Printf("upload: failed to archive %s: %v", fileName, err)
		} else {
			resp.ArchiveKey = key
		}
	}

	api.Success(w, http.StatusCreated, resp)
}

// saveUpload writes the uploaded bytes into the docs directory so the
// document is part of the local corpus alongside pre-existing files.
func (h *DocumentsHandler) saveUpload(fileName string, data []byte) error {
	if err := os.MkdirAll(h.docsDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(h.docsDir, fileName), data, 0o644)
}

func uploadContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
