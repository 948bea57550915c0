package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/database"
	"seatime-backend/internal/storage"
	"seatime-backend/internal/store"
)

const maxUploadSize = 10 << 20 // 10 MB

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// UploadHandler stores signed testimonials and discharge book scans.
// It depends on the storage.Store interface, not a specific backend.
type UploadHandler struct {
	files     storage.Store
	db        database.Service
	localRoot string // directory ServeFile reads from when files are stored locally
}

// NewUploadHandler creates an UploadHandler. localRoot is only used by ServeFile.
func NewUploadHandler(files storage.Store, db database.Service, localRoot string) *UploadHandler {
	return &UploadHandler{files: files, db: db, localRoot: localRoot}
}

// Upload accepts multipart/form-data with a "file" field and an optional
// "vesselId", stores the file and records it as a testimonial.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing 'file' field in form data.")
		return
	}
	defer file.Close()

	contentType, err := sniffContentType(file)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	if !allowedTypes[contentType] {
		JSONError(w, http.StatusBadRequest, fmt.Sprintf(
			"File type '%s' not allowed. Accepted: PDF, JPG, PNG.", contentType,
		))
		return
	}

	var vesselID *string
	if raw := r.FormValue("vesselId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			JSONError(w, http.StatusBadRequest, "Invalid vesselId")
			return
		}
		s := id.String()
		vesselID = &s
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	userID := ctxkeys.GetUserID(r.Context())

	if vesselID != nil {
		if _, ok := loadVessel(ctx, w, pool, *vesselID); !ok {
			return
		}
	}

	key := testimonialKey(userID, header.Filename)
	info, err := h.files.Save(ctx, key, file, contentType)
	if err != nil {
		log.Printf("[upload] save %s: %v", key, err)
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	t, err := store.InsertTestimonial(ctx, pool, userID, vesselID, info.URL, info.FileName, info.FileSize, info.FileType)
	if err != nil {
		log.Printf("[upload] record %s: %v", key, err)
		if derr := h.files.Delete(context.Background(), info.Key); derr != nil {
			log.Printf("[upload] cleanup %s: %v", key, derr)
		}
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	logActivity(pool, userID, "uploaded", "testimonial", t.ID, map[string]interface{}{
		"fileName": t.FileName,
		"fileSize": t.FileSize,
	})
	JSON(w, http.StatusCreated, t)
}

// ServeFile serves uploaded files. Remote stores redirect to their public URL;
// the local store serves from disk.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key, err := storage.CleanKey(strings.TrimPrefix(r.URL.Path, "/api/files/"))
	if err != nil {
		JSONError(w, http.StatusBadRequest, "File path required.")
		return
	}

	if url := h.files.URL(key); strings.HasPrefix(url, "https://") {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.localRoot, filepath.FromSlash(key)))
}

// sniffContentType detects the MIME type from the first 512 bytes and rewinds.
func sniffContentType(file io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// testimonialKey builds testimonials/<user>/<uuid>_<name>.
func testimonialKey(userID, filename string) string {
	return path.Join("testimonials", userID, uuid.NewString()+"_"+sanitizeFilename(filename))
}

// sanitizeFilename keeps only the base name and makes it URL-safe.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
