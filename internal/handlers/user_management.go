package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/database"
	"seatime-backend/internal/models"
	"seatime-backend/internal/store"
)

// UserManagementHandler provides admin-only crew listing, role changes, and deletion.
type UserManagementHandler struct {
	db database.Service
}

func NewUserManagementHandler(db database.Service) *UserManagementHandler {
	return &UserManagementHandler{db: db}
}

// List returns accounts visible to the current admin.
// admin sees crew only; super_admin sees everyone.
func (h *UserManagementHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	superAdmin := ctxkeys.GetUserRole(r.Context()) == "super_admin"
	users, err := store.ListUsers(ctx, h.db.GetPool(), superAdmin)
	if err != nil {
		log.Printf("[users] list: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": users})
}

// UpdateRole changes a user's role with hierarchical restrictions.
func (h *UserManagementHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	currentUserID := ctxkeys.GetUserID(r.Context())
	if targetID == currentUserID {
		JSONError(w, http.StatusBadRequest, "Cannot change your own role")
		return
	}

	var req models.UpdateRoleRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	target, err := store.GetUserByID(ctx, pool, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[users] load %s: %v", targetID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}

	if msg := roleChangeDenied(ctxkeys.GetUserRole(r.Context()), target.Role, req.Role); msg != "" {
		JSONError(w, http.StatusForbidden, msg)
		return
	}

	user, err := store.UpdateUserRole(ctx, pool, targetID, req.Role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[users] update role %s: %v", targetID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}

	logActivity(pool, currentUserID, "updated_role", "user", targetID, map[string]interface{}{
		"newRole": req.Role,
		"email":   user.Email,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    user,
		"message": "Role updated successfully",
	})
}

// Delete removes a user and everything they logged.
func (h *UserManagementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	currentUserID := ctxkeys.GetUserID(r.Context())
	if targetID == currentUserID {
		JSONError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	target, err := store.GetUserByID(ctx, pool, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[users] load %s: %v", targetID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	if ctxkeys.GetUserRole(r.Context()) != "super_admin" && target.Role != "crew" {
		JSONError(w, http.StatusForbidden, "Cannot delete admin or super_admin users")
		return
	}

	if err := store.DeleteUser(ctx, pool, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[users] delete %s: %v", targetID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	logActivity(pool, currentUserID, "deleted", "user", targetID, map[string]interface{}{
		"email": target.Email,
	})
	JSON(w, http.StatusOK, map[string]interface{}{"message": "User deleted successfully"})
}

// roleChangeDenied returns a reason when actor may not move a target from
// one role to another, or "" when the change is allowed.
// Only super_admin may grant or revoke admin rights.
func roleChangeDenied(actorRole, targetRole, newRole string) string {
	if actorRole == "super_admin" {
		return ""
	}
	if newRole != "crew" {
		return "Only super_admin can assign admin or super_admin roles"
	}
	if targetRole != "crew" {
		return "Cannot modify admin or super_admin users"
	}
	return ""
}
