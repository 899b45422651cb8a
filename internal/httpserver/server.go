// Package httpserver exposes a thin multipart-upload HTTP surface
// over internal/facade: upload the ring and the signer's encrypted
// private key, then ask the server to sign or verify. It performs no
// cryptography itself; it only stores uploads and delegates.
package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi"
	"github.com/gorilla/handlers"

	"github.com/udisondev/ringsig/internal/config"
	"github.com/udisondev/ringsig/internal/facade"
	"github.com/udisondev/ringsig/internal/ringerr"
)

const (
	ringFileName   = "ring.pem"
	secretFileName = "secret_key.pem"
)

// Server serves the upload/sign/verify HTTP surface.
type Server struct {
	cfg config.Server
	mux *chi.Mux
}

// New builds a Server and wires its routes.
func New(cfg config.Server) (*Server, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("httpserver: creating upload dir %s: %w", cfg.UploadDir, err)
	}

	s := &Server{cfg: cfg, mux: chi.NewMux()}
	s.mux.Post("/public_keys", s.handleUploadRing)
	s.mux.Post("/secret_key", s.handleUploadSecretKey)
	s.mux.Post("/sign", s.handleSign)
	s.mux.Post("/verify", s.handleVerify)
	return s, nil
}

// Handler returns the server's routes wrapped with the configured
// CORS policy, ready to pass to http.Server.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(s.mux)
}

func (s *Server) handleUploadRing(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, ringFileName)
}

func (s *Server) handleUploadSecretKey(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, secretFileName)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, destName string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing upload: %w", err))
		return
	}

	file, header, err := formFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if !s.cfg.AllowsExtension(ext) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("extension %q is not allowed", ext))
		return
	}

	dest, err := os.Create(filepath.Join(s.cfg.UploadDir, destName))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("storing upload: %w", err))
		return
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("storing upload: %w", err))
		return
	}

	slog.Info("upload stored", "name", destName, "original_filename", header.Filename)
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// formFile accepts either the "file" or "files" multipart field name,
// matching the two names the original upload endpoints used.
func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range []string{"file", "files"} {
		f, header, err := r.FormFile(field)
		if err == nil {
			return f, header, nil
		}
	}
	return nil, nil, fmt.Errorf("no uploaded file found in \"file\" or \"files\" field")
}

type signRequestBody struct {
	Index    int    `json:"index"`
	Message  string `json:"message"`
	Password string `json:"password"`
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var body signRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
		return
	}

	outPath := filepath.Join(s.cfg.UploadDir, "signature.txt")
	err := facade.Sign(r.Context(), facade.SignRequest{
		RingPath:    filepath.Join(s.cfg.UploadDir, ringFileName),
		KeyPath:     filepath.Join(s.cfg.UploadDir, secretFileName),
		SignerIndex: body.Index,
		Message:     []byte(body.Message),
		Password:    body.Password,
		OutputPath:  outPath,
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	http.ServeFile(w, r, outPath)
}

type verifyRequestBody struct {
	Message string `json:"message"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var body verifyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
		return
	}

	ok, err := facade.Verify(r.Context(), facade.VerifyRequest{
		SignaturePath: filepath.Join(s.cfg.UploadDir, "signature.txt"),
		Message:       []byte(body.Message),
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ringerr.ErrMalformedSignature),
		errors.Is(err, ringerr.ErrIndexOutOfRange),
		errors.Is(err, ringerr.ErrSignerKeyMismatch),
		errors.Is(err, ringerr.ErrUnsupportedKeyType),
		errors.Is(err, ringerr.ErrBadPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	slog.Warn("request failed", "error", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
