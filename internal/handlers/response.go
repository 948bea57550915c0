package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"seatime-backend/internal/store"
)

const maxJSONBody = 1 << 20 // 1 MB

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// validationFailed writes the 422 body shared by every request model.
func validationFailed(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":   "Validation failed",
		"details": errs,
	})
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	JSONError(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

// logActivity records an audit-log row without blocking the response.
func logActivity(db store.DB, userID, action, entityType, entityID string, details map[string]interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.LogActivity(ctx, db, userID, action, entityType, entityID, details); err != nil {
			log.Printf("[activity] %s %s %s: %v", action, entityType, entityID, err)
		}
	}()
}

func wantTrace(r *http.Request) bool {
	switch r.URL.Query().Get("trace") {
	case "1", "true", "yes":
		return true
	}
	return false
}
