package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"crossref/internal/config"
	"crossref/internal/pipeline"
)

// Server is the thin HTTP boundary around the processing pipeline:
// multipart intake, result download, nothing else.
type Server struct {
	cfg       config.Config
	processor *pipeline.ProcessingService
}

func New(cfg config.Config, processor *pipeline.ProcessingService) *Server {
	return &Server{cfg: cfg, processor: processor}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/download/{filename}", s.handleDownload)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Backend is running"))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.MaxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file missing or too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	keywords := r.FormValue("keywords")
	if strings.TrimSpace(keywords) == "" {
		writeError(w, http.StatusBadRequest, "search keywords missing")
		return
	}

	uploadPath, err := s.stageUpload(file)
	if err != nil {
		log.Printf("stage upload: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	result, err := s.processor.Process(uploadPath, header.Filename, keywords)
	if err != nil {
		if result.OutputFilename != "" {
			// Only cleanup failed; the artifact exists, the user gets it.
			log.Printf("cleanup degraded for %s: %v", result.OutputFilename, err)
		} else if pipeline.IsUserError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		} else {
			log.Printf("process %s: %v", header.Filename, err)
			writeError(w, http.StatusInternalServerError, "failed to process the file")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"filename": result.OutputFilename})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	// Reject anything that could escape the output directory.
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	path := filepath.Join(s.cfg.OutputDir, filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// stageUpload copies the multipart part into the staging directory under
// an opaque name, the way the original service staged uploads before
// processing.
func (s *Server) stageUpload(file io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.UploadDir, uuid.NewString())
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
