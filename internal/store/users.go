package store

import (
	"context"
	"fmt"

	"seatime-backend/internal/models"
)

// CreateUser inserts a user. A duplicate email surfaces as a unique violation.
func CreateUser(ctx context.Context, db DB, email, passwordHash, name, rank, role string) (models.User, error) {
	var u models.User
	err := db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, rank, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, rank, role, created_at::text, updated_at::text
	`, email, passwordHash, name, rank, role,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Rank, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the user including the password hash.
func GetUserByEmail(ctx context.Context, db DB, email string) (models.User, error) {
	var u models.User
	err := db.QueryRow(ctx, `
		SELECT id, email, password_hash, name, rank, role, created_at::text, updated_at::text
		FROM users WHERE email = $1
	`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Rank, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

// GetUserByID returns the user without the password hash.
func GetUserByID(ctx context.Context, db DB, id string) (models.User, error) {
	var u models.User
	err := db.QueryRow(ctx, `
		SELECT id, email, name, rank, role, created_at::text, updated_at::text
		FROM users WHERE id = $1
	`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Rank, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

// ListUsers returns accounts, newest first. Without includeAdmins only crew
// accounts are returned.
func ListUsers(ctx context.Context, db DB, includeAdmins bool) ([]models.User, error) {
	query := `
		SELECT id, email, name, rank, role, created_at::text, updated_at::text
		FROM users
	`
	if !includeAdmins {
		query += ` WHERE role = 'crew'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Rank, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserRole sets a user's role and returns the updated row.
func UpdateUserRole(ctx context.Context, db DB, id, role string) (models.User, error) {
	var u models.User
	err := db.QueryRow(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, email, name, rank, role, created_at::text, updated_at::text
	`, role, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Rank, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

// DeleteUser removes a user; their vessels, logs and visa areas cascade.
func DeleteUser(ctx context.Context, db DB, id string) error {
	tag, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
