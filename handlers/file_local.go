package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"p9e.in/agrisurvey/pkg/survey"
)

// Photo uploads for farms, samples and pest reports land on local disk.
// The returned URL is stored verbatim in the record's photoUrl field.

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "./uploads"
}

// UploadPhoto stores a multipart photo and returns its serving URL.
func UploadPhoto(w http.ResponseWriter, r *http.Request) {
	dir := uploadDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		respondError(w, fmt.Errorf("create upload directory: %w", err))
		return
	}

	// 20MB is generous for field photos taken on a phone.
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		respondError(w, survey.NewValidationError("file", "bad multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, survey.NewValidationError("file", "missing file field"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !photoExtensions[ext] {
		respondError(w, survey.NewValidationError("file", "unsupported file type, expected an image"))
		return
	}

	// Timestamp prefix avoids collisions between devices uploading
	// files with identical camera names.
	filename := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), filepath.Base(header.Filename))
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		respondError(w, fmt.Errorf("create file: %w", err))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		respondError(w, fmt.Errorf("save file: %w", err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"url":      "/uploads/" + filename,
		"filename": filename,
	})
}
