package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"seatime-backend/internal/database"
	"seatime-backend/internal/store"
)

// ActivityHandler exposes the audit log to administrators.
type ActivityHandler struct {
	db database.Service
}

func NewActivityHandler(db database.Service) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// List returns audit-log rows, newest first. Supports ?entityType=, ?limit=, ?offset=.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1, 500)
	offset := queryInt(r, "offset", 0, 0, 1_000_000)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := store.ListActivity(ctx, h.db.GetPool(), r.URL.Query().Get("entityType"), limit, offset)
	if err != nil {
		log.Printf("[activity] list: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"data":   items,
		"limit":  limit,
		"offset": offset,
	})
}
