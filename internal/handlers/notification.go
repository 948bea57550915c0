package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/database"
	"seatime-backend/internal/store"
)

// NotificationHandler serves the reminders produced by the cron job.
type NotificationHandler struct {
	db database.Service
}

func NewNotificationHandler(db database.Service) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List returns the caller's notifications, newest first. ?unread=1 filters.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1, 200)
	unread := r.URL.Query().Get("unread") == "1"

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := store.ListNotifications(ctx, h.db.GetPool(), ctxkeys.GetUserID(r.Context()), unread, limit)
	if err != nil {
		log.Printf("[notifications] list: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": items})
}

// UnreadCount returns {"count": n}.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	n, err := store.CountUnread(ctx, h.db.GetPool(), ctxkeys.GetUserID(r.Context()))
	if err != nil {
		log.Printf("[notifications] count: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}
	JSON(w, http.StatusOK, map[string]int{"count": n})
}

// MarkRead marks one notification read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := store.MarkNotificationRead(ctx, h.db.GetPool(), ctxkeys.GetUserID(r.Context()), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "Notification not found")
			return
		}
		log.Printf("[notifications] mark read %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead marks every unread notification read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	n, err := store.MarkAllNotificationsRead(ctx, h.db.GetPool(), ctxkeys.GetUserID(r.Context()))
	if err != nil {
		log.Printf("[notifications] mark all read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}
	JSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// queryInt reads an integer query parameter clamped to [lo, hi].
func queryInt(r *http.Request, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return min(max(v, lo), hi)
}
