package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/database"
	"seatime-backend/internal/models"
	"seatime-backend/internal/store"
)

const (
	tokenTTL   = 7 * 24 * time.Hour
	bcryptCost = 12
)

// AuthHandler manages registration, login, and profile retrieval.
type AuthHandler struct {
	db        database.Service
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthHandler creates an AuthHandler with the given database and JWT signing key.
func NewAuthHandler(db database.Service, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// Register creates a crew account and returns a token for immediate login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	req.Normalize()
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Printf("[auth] hash password: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	user, err := store.CreateUser(ctx, pool, req.Email, string(hashed), req.Name, req.Rank, "crew")
	if err != nil {
		if store.IsUniqueViolation(err) {
			JSONError(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		log.Printf("[auth] create user: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		log.Printf("[auth] sign token: %v", err)
		JSONError(w, http.StatusInternalServerError, "Account created but login failed")
		return
	}

	logActivity(pool, user.ID, "registered", "user", user.ID, nil)
	JSON(w, http.StatusCreated, models.AuthResponse{Token: token, User: user})
}

// Login authenticates with email + password and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := store.GetUserByEmail(ctx, h.db.GetPool(), normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[auth] lookup user: %v", err)
		}
		// Same message either way so emails can't be enumerated.
		JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		log.Printf("[auth] sign token: %v", err)
		JSONError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	JSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// GetMe returns the profile of the authenticated user.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := store.GetUserByID(ctx, h.db.GetPool(), ctxkeys.GetUserID(r.Context()))
	if err != nil {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}
	JSON(w, http.StatusOK, user)
}

// generateToken signs a JWT carrying the user ID and role.
func (h *AuthHandler) generateToken(userID, role string) (string, error) {
	now := h.now()
	claims := jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    now.Add(tokenTTL).Unix(),
		"iat":    now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}

func normalizeEmail(email string) string {
	r := models.RegisterRequest{Email: email}
	r.Normalize()
	return r.Email
}
