package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"documind/internal/config"
	"documind/internal/domain"
)

// QAPort is the server-facing subset of the QA service.
type QAPort interface {
	Ingest(ctx context.Context, path, filename string) (domain.Document, error)
	Query(ctx context.Context, question string, topK int) (domain.QueryResult, error)
}

// Server exposes the upload and query HTTP surface. Uploaded files are
// stored under the configured upload directory with fresh ids; the original
// filename survives only in the registry.
type Server struct {
	svc       QAPort
	uploadDir string
	maxUpload int64
	log       *slog.Logger
}

// New creates the HTTP server around the given service.
func New(svc QAPort, cfg config.ServerConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc:       svc,
		uploadDir: cfg.UploadDir,
		maxUpload: int64(cfg.MaxUploadMB) << 20,
		log:       log,
	}
}

// Routes returns the route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/upload_pdf", s.handleUploadOne)
	mux.HandleFunc("/upload_pdfs", s.handleUploadMany)
	mux.HandleFunc("/query", s.handleQuery)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

type uploadResponse struct {
	FileID    string `json:"file_id"`
	Filename  string `json:"filename"`
	NumChunks int    `json:"num_chunks"`
	Preview   string `json:"preview,omitempty"`
}

type uploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// POST /upload_pdf, multipart field "file".
func (s *Server) handleUploadOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeParseError(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	resp, err := s.ingestUpload(r.Context(), file, header.Filename)
	if err != nil {
		s.log.Error("upload failed", slog.String("filename", header.Filename), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to process upload")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /upload_pdfs, multipart field "files", repeated. Each file is
// processed independently; a failure is reported next to its siblings'
// successes instead of aborting the batch.
func (s *Server) handleUploadMany(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeParseError(w, err)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "missing files field")
		return
	}

	uploaded := make([]uploadResponse, 0, len(headers))
	failed := make([]uploadFailure, 0)
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			failed = append(failed, uploadFailure{Filename: header.Filename, Error: err.Error()})
			continue
		}
		resp, err := s.ingestUpload(r.Context(), file, header.Filename)
		file.Close()
		if err != nil {
			s.log.Error("upload failed", slog.String("filename", header.Filename), slog.Any("error", err))
			failed = append(failed, uploadFailure{Filename: header.Filename, Error: err.Error()})
			continue
		}
		uploaded = append(uploaded, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploaded": uploaded, "failed": failed})
}

// POST /query, form fields "query" and optional "top_k".
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}
	question := strings.TrimSpace(r.PostFormValue("query"))
	if question == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	topK := 0
	if raw := r.PostFormValue("top_k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k <= 0 {
			writeError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = k
	}

	result, err := s.svc.Query(r.Context(), question, topK)
	if err != nil {
		s.log.Error("query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) ingestUpload(ctx context.Context, file multipart.File, filename string) (uploadResponse, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return uploadResponse{}, fmt.Errorf("create upload dir: %w", err)
	}
	ext := filepath.Ext(filename)
	path := filepath.Join(s.uploadDir, uuid.NewString()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return uploadResponse{}, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		return uploadResponse{}, fmt.Errorf("save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return uploadResponse{}, fmt.Errorf("close upload: %w", err)
	}

	doc, err := s.svc.Ingest(ctx, path, filename)
	if err != nil {
		return uploadResponse{}, err
	}
	return uploadResponse{FileID: doc.ID, Filename: doc.Filename, NumChunks: doc.ChunkCount, Preview: doc.Preview}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeParseError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
		return
	}
	writeError(w, http.StatusBadRequest, "failed to parse form")
}
