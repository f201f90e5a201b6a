package service

import (
	"context"
	"fmt"
	"time"

	"github.com/amirk1998/recipe-box/internal/audit"
	"github.com/amirk1998/recipe-box/internal/models"
	"github.com/amirk1998/recipe-box/internal/ratelimit"
	"github.com/amirk1998/recipe-box/internal/repository"
	"github.com/amirk1998/recipe-box/internal/security"
	"github.com/amirk1998/recipe-box/pkg/errors"
	"github.com/amirk1998/recipe-box/pkg/validator"
)

const (
	maxFailedLoginAttempts = 5
	accountLockDuration    = 30 * time.Minute
)

type AuthService struct {
	userRepo    *repository.UserRepository
	hasher      *security.PasswordHasher
	validator   *validator.Validator
	rateLimiter *ratelimit.RateLimiter
	auditLogger *audit.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo *repository.UserRepository,
	rateLimiter *ratelimit.RateLimiter,
	auditLogger *audit.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		hasher:      security.NewPasswordHasher(),
		validator:   validator.New(),
		rateLimiter: rateLimiter,
		auditLogger: auditLogger,
	}
}

// SignUp registers a new user and returns the public projection. No session
// state is touched here; the caller binds the session only on success.
func (s *AuthService) SignUp(ctx context.Context, req *models.SignupRequest) (*models.Profile, error) {
	// Rate limiting
	if err := s.rateLimiter.CheckLimit("signup"); err != nil {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			Action:   "SIGNUP_RATE_LIMITED",
			Resource: "auth",
			Success:  false,
			ErrorMsg: "rate limit exceeded",
		})
		return nil, err
	}

	// Validate input, collecting every message for the 422 body
	req.Username = s.validator.SanitizeString(req.Username)

	var messages []string
	if err := s.validator.ValidateUsername(req.Username); err != nil {
		if ve, ok := errors.AsValidation(err); ok {
			messages = append(messages, ve.Messages...)
		}
	}
	if err := s.validator.ValidatePassword(req.Password); err != nil {
		if ve, ok := errors.AsValidation(err); ok {
			messages = append(messages, ve.Messages...)
		}
	}
	if len(messages) > 0 {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			Action:   "SIGNUP_INVALID_INPUT",
			Resource: "auth",
			Success:  false,
			ErrorMsg: fmt.Sprintf("%v", messages),
		})
		return nil, errors.NewValidationError(messages...)
	}

	// Build the user; the digest setter is the only write path to the secret
	user := &models.User{
		Username: req.Username,
		ImageURL: req.ImageURL,
		Bio:      req.Bio,
	}

	if err := user.PasswordDigest.SetFrom(s.hasher, req.Password); err != nil {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelError,
			Action:   "SIGNUP_HASH_FAILED",
			Resource: "auth",
			Success:  false,
			ErrorMsg: err.Error(),
		})
		return nil, err
	}

	// The UNIQUE constraint is the authority on duplicates; a racing signup
	// with the same username loses here, not at a pre-check.
	if err := s.userRepo.Create(user); err != nil {
		if err == errors.ErrUsernameTaken {
			s.auditLogger.Log(&audit.Event{
				Level:    audit.LevelWarning,
				Action:   "SIGNUP_DUPLICATE_USERNAME",
				Resource: "auth",
				Success:  false,
				Metadata: req.Username,
			})
			return nil, err
		}
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelError,
			Action:   "SIGNUP_DB_ERROR",
			Resource: "auth",
			Success:  false,
			ErrorMsg: err.Error(),
		})
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditLogger.Log(&audit.Event{
		Level:    audit.LevelInfo,
		UserID:   &user.ID,
		Action:   "SIGNUP_SUCCESS",
		Resource: "auth",
		Success:  true,
	})

	return user.Profile(), nil
}

// LogIn authenticates a user by username and password. Unknown usernames and
// wrong passwords both come back as ErrInvalidCredentials.
func (s *AuthService) LogIn(ctx context.Context, req *models.LoginRequest) (*models.Profile, error) {
	// Rate limiting per username
	rateLimitKey := fmt.Sprintf("login:%s", req.Username)
	if err := s.rateLimiter.CheckLimit(rateLimitKey); err != nil {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			Action:   "LOGIN_RATE_LIMITED",
			Resource: "auth",
			Success:  false,
			ErrorMsg: "rate limit exceeded",
			Metadata: req.Username,
		})
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		// Burn equivalent hashing work to prevent user enumeration by timing
		s.hasher.DummyVerify(req.Password)

		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			Action:   "LOGIN_USER_NOT_FOUND",
			Resource: "auth",
			Success:  false,
			Metadata: req.Username,
		})
		return nil, errors.ErrInvalidCredentials
	}

	// Check if account is locked
	locked, err := s.userRepo.IsAccountLocked(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check lock status: %w", err)
	}

	if locked {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			UserID:   &user.ID,
			Action:   "LOGIN_ACCOUNT_LOCKED",
			Resource: "auth",
			Success:  false,
		})
		return nil, errors.ErrAccountLocked
	}

	if !user.PasswordDigest.Matches(s.hasher, req.Password) {
		s.userRepo.IncrementFailedLogins(user.ID)

		// Lock account if too many attempts
		if user.FailedLoginAttempts+1 >= maxFailedLoginAttempts {
			s.userRepo.LockAccount(user.ID, accountLockDuration)

			s.auditLogger.Log(&audit.Event{
				Level:    audit.LevelCritical,
				UserID:   &user.ID,
				Action:   "LOGIN_ACCOUNT_LOCKED_AUTO",
				Resource: "auth",
				Success:  false,
				ErrorMsg: fmt.Sprintf("account locked after %d failed attempts", maxFailedLoginAttempts),
			})
		}

		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			UserID:   &user.ID,
			Action:   "LOGIN_INVALID_PASSWORD",
			Resource: "auth",
			Success:  false,
		})

		return nil, errors.ErrInvalidCredentials
	}

	// Update last login
	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	s.auditLogger.Log(&audit.Event{
		Level:    audit.LevelInfo,
		UserID:   &user.ID,
		Action:   "LOGIN_SUCCESS",
		Resource: "auth",
		Success:  true,
	})

	return user.Profile(), nil
}

// CheckSession resolves a session-bound user id back to its public
// projection. A stale id whose user no longer exists reads as not logged in.
func (s *AuthService) CheckSession(ctx context.Context, userID int) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if err == errors.ErrUserNotFound {
			return nil, errors.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to resolve session user: %w", err)
	}

	return user.Profile(), nil
}
