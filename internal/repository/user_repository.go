package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/amirk1998/recipe-box/internal/database"
	"github.com/amirk1998/recipe-box/internal/models"
	"github.com/amirk1998/recipe-box/pkg/errors"
)

type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// Create creates a new user. A racing duplicate username surfaces as
// ErrUsernameTaken from the UNIQUE constraint at insert time.
func (r *UserRepository) Create(user *models.User) error {
	query := `
        INSERT INTO users (username, password_digest, image_url, bio, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `

	now := time.Now()
	result, err := r.db.Exec(query,
		user.Username,
		user.PasswordDigest,
		user.ImageURL,
		user.Bio,
		now,
		now,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}

	user.ID = int(id)
	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	query := `
        SELECT id, username, password_digest, image_url, bio, created_at, updated_at,
               last_login, failed_login_attempts, locked_until
        FROM users
        WHERE id = ?
    `

	return r.scanUser(r.db.QueryRow(query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	query := `
        SELECT id, username, password_digest, image_url, bio, created_at, updated_at,
               last_login, failed_login_attempts, locked_until
        FROM users
        WHERE username = ?
    `

	return r.scanUser(r.db.QueryRow(query, username))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordDigest,
		&user.ImageURL,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLogin,
		&user.FailedLoginAttempts,
		&user.LockedUntil,
	)

	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateLastLogin updates user's last login time and clears failure counters
func (r *UserRepository) UpdateLastLogin(userID int) error {
	query := `
        UPDATE users
        SET last_login = ?, failed_login_attempts = 0, locked_until = NULL
        WHERE id = ?
    `

	_, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// IncrementFailedLogins increments failed login attempts
func (r *UserRepository) IncrementFailedLogins(userID int) error {
	query := `
        UPDATE users
        SET failed_login_attempts = failed_login_attempts + 1
        WHERE id = ?
    `

	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to increment failed logins: %w", err)
	}

	return nil
}

// LockAccount locks user account for specified duration
func (r *UserRepository) LockAccount(userID int, duration time.Duration) error {
	lockedUntil := time.Now().Add(duration)

	query := `
        UPDATE users
        SET locked_until = ?
        WHERE id = ?
    `

	_, err := r.db.Exec(query, lockedUntil, userID)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	return nil
}

// IsAccountLocked checks if account is locked
func (r *UserRepository) IsAccountLocked(userID int) (bool, error) {
	query := `
        SELECT locked_until
        FROM users
        WHERE id = ?
    `

	var lockedUntil *time.Time
	err := r.db.QueryRow(query, userID).Scan(&lockedUntil)
	if err != nil {
		return false, fmt.Errorf("failed to check lock status: %w", err)
	}

	if lockedUntil == nil {
		return false, nil
	}

	return time.Now().Before(*lockedUntil), nil
}

// Count returns the total number of users
func (r *UserRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// isUniqueViolation reports whether the driver error is a UNIQUE constraint
// failure on the username column.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
